package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/fitledger/backend/internal/catalog"
	"github.com/fitledger/backend/internal/telemetry/tracing"
	"github.com/fitledger/backend/pkg"
)

var (
	ErrWorkoutNotFound    = errors.New("workout not found")
	ErrExerciseRefInvalid = errors.New("workout references unknown exercise")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Errorf("add workout, rollback: %s", rbErr)
			}
		}
	}()

	rows, err := tx.Query(ctx,
		`INSERT INTO workout (user_id, date, comments, scheduled_time)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		workout.UserID, workout.Date, workout.Comments, workout.ScheduledTime,
	)
	if err != nil {
		return nil, err
	}

	workoutID, err := scanInsertedID(rows)
	if err != nil {
		return nil, err
	}

	for _, entry := range workout.Exercises {
		if _, err = insertEntry(ctx, tx, workoutID, entry); err != nil {
			if pkg.IsForeignKeyViolationError(err) {
				err = ErrExerciseRefInvalid
			}
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return r.GetOwned(ctx, workout.UserID, workoutID)
}

func (r *Repo) GetOwned(ctx context.Context, userID, workoutID int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.getOwned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, date, comments, scheduled_time
		FROM workout WHERE id = $1 AND user_id = $2`,
		workoutID, userID,
	)
	if err != nil {
		return nil, err
	}

	workouts, err := rows2workouts(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return nil, ErrWorkoutNotFound
	}

	workout := workouts[0]
	entries, err := r.entriesForWorkouts(ctx, []int{workout.ID})
	if err != nil {
		return nil, err
	}
	workout.Exercises = entries[workout.ID]

	return &workout, nil
}

func (r *Repo) Update(ctx context.Context, params UpdateParams) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	existing, err := r.GetOwned(ctx, params.UserID, params.WorkoutID)
	if err != nil {
		return nil, err
	}

	// zero values leave the stored field untouched
	if !params.Date.IsZero() {
		existing.Date = params.Date
	}
	if params.Comments != "" {
		existing.Comments = params.Comments
	}
	if params.ScheduledTime != nil {
		existing.ScheduledTime = params.ScheduledTime
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Errorf("update workout, rollback: %s", rbErr)
			}
		}
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE workout SET date = $1, comments = $2, scheduled_time = $3
		WHERE id = $4 AND user_id = $5`,
		existing.Date, existing.Comments, existing.ScheduledTime,
		params.WorkoutID, params.UserID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrWorkoutNotFound
	}

	if params.Exercises != nil {
		if _, err = tx.Exec(ctx,
			`DELETE FROM workout_exercise WHERE workout_id = $1`,
			params.WorkoutID,
		); err != nil {
			return nil, err
		}
		for _, entry := range params.Exercises {
			if _, err = insertEntry(ctx, tx, params.WorkoutID, entry); err != nil {
				if pkg.IsForeignKeyViolationError(err) {
					err = ErrExerciseRefInvalid
				}
				return nil, err
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return r.GetOwned(ctx, params.UserID, params.WorkoutID)
}

func (r *Repo) Delete(ctx context.Context, userID, workoutID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Errorf("delete workout, rollback: %s", rbErr)
			}
		}
	}()

	// associations go first, the workout row itself is the ownership check
	if _, err = tx.Exec(ctx,
		`DELETE FROM workout_exercise we USING workout w
		WHERE we.workout_id = w.id AND w.id = $1 AND w.user_id = $2`,
		workoutID, userID,
	); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM workout WHERE id = $1 AND user_id = $2`,
		workoutID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	return tx.Commit(ctx)
}

func (r *Repo) ListActive(ctx context.Context, userID int, now time.Time) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.listActive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, date, comments, scheduled_time
		FROM workout
		WHERE user_id = $1 AND scheduled_time >= $2
		ORDER BY scheduled_time`,
		userID, now,
	)
	if err != nil {
		return nil, err
	}

	workouts, err := rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	return r.attachEntries(ctx, workouts)
}

func (r *Repo) ListAll(ctx context.Context, userID int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.repo.listAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, date, comments, scheduled_time
		FROM workout WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	workouts, err := rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	return r.attachEntries(ctx, workouts)
}

func (r *Repo) attachEntries(ctx context.Context, workouts []Workout) ([]Workout, error) {
	if len(workouts) == 0 {
		return workouts, nil
	}

	ids := make([]int, 0, len(workouts))
	for _, w := range workouts {
		ids = append(ids, w.ID)
	}

	entries, err := r.entriesForWorkouts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range workouts {
		workouts[i].Exercises = entries[workouts[i].ID]
	}

	return workouts, nil
}

func (r *Repo) entriesForWorkouts(ctx context.Context, workoutIDs []int) (map[int][]WorkoutExercise, error) {
	rows, err := r.db.Query(ctx,
		`SELECT
			we.id, we.workout_id, we.exercise_id, we.sets, we.repetitions, we.weight,
			e.id, e.name, e.description, e.category, e.muscle_group, e.created_at
		FROM workout_exercise we
		JOIN exercise e ON e.id = we.exercise_id
		WHERE we.workout_id = ANY($1)
		ORDER BY we.id`,
		workoutIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := map[int][]WorkoutExercise{}
	for rows.Next() {
		var entry WorkoutExercise
		var ex catalog.Exercise
		if err := rows.Scan(
			&entry.ID, &entry.WorkoutID, &entry.ExerciseID,
			&entry.Sets, &entry.Repetitions, &entry.Weight,
			&ex.ID, &ex.Name, &ex.Description, &ex.Category, &ex.MuscleGroup, &ex.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		entry.Exercise = &ex
		entries[entry.WorkoutID] = append(entries[entry.WorkoutID], entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return entries, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, workoutID int, entry WorkoutExercise) (int, error) {
	rows, err := tx.Query(ctx,
		`INSERT INTO workout_exercise (workout_id, exercise_id, sets, repetitions, weight)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		workoutID, entry.ExerciseID, entry.Sets, entry.Repetitions, entry.Weight,
	)
	if err != nil {
		return 0, err
	}
	return scanInsertedID(rows)
}

func scanInsertedID(rows pgx.Rows) (int, error) {
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("unexpected error, no inserted row id")
	}
	var id int
	if err := rows.Scan(&id); err != nil {
		return 0, fmt.Errorf("rows scan: %w", err)
	}
	rows.Close()
	return id, rows.Err()
}

func rows2workouts(rows pgx.Rows) ([]Workout, error) {
	defer rows.Close()
	var workouts []Workout
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.Date, &w.Comments, &w.ScheduledTime); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		workouts = append(workouts, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return workouts, nil
}
