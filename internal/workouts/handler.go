package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/fitledger/backend/internal/auth"
	"github.com/fitledger/backend/internal/telemetry/metrics"
	"github.com/fitledger/backend/internal/telemetry/tracing"
	"github.com/fitledger/backend/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Update(ctx context.Context, params UpdateParams) (*Workout, error)
	Delete(ctx context.Context, userID, workoutID int) error
	ListActive(ctx context.Context, userID int, now time.Time) ([]Workout, error)
}

type reportGenerator interface {
	Report(ctx context.Context, userID int) (*Report, error)
}

type Handler struct {
	repo     workoutsRepo
	analyzer reportGenerator
	metrics  *metrics.Manager
	now      func() time.Time
}

func NewHandler(
	repo workoutsRepo,
	analyzer reportGenerator,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:     repo,
		analyzer: analyzer,
		metrics:  metricsManager,
		now:      time.Now,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	workoutsRouter := mainRouter.PathPrefix("/api/workouts").Subrouter()
	workoutsRouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-workout")
	workoutsRouter.HandleFunc("", handler.HandleListActive).Methods("GET").Name("list-workouts")
	workoutsRouter.HandleFunc("/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	workoutsRouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE").Name("delete-workout")

	mainRouter.HandleFunc("/api/reports", handler.HandleReport).Methods("GET").Name("workouts-report")
}

type workoutEntryRequest struct {
	ExerciseID  int     `json:"exercise_id"`
	Sets        int     `json:"sets"`
	Repetitions int     `json:"repetitions"`
	Weight      float64 `json:"weight"`
}

type workoutRequest struct {
	Date          *time.Time            `json:"date"`
	Comments      string                `json:"comments"`
	ScheduledTime *time.Time            `json:"scheduled_time"`
	Exercises     []workoutEntryRequest `json:"exercises"`
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.add")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var addReq workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&addReq); err != nil {
		log.Tracef("add workout, unmarshal json params: %s", err)
		pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
			{Msg: "invalid request body", Param: "body"},
		})
		return
	}

	var fieldErrors []pkg.FieldError
	if addReq.Date == nil || addReq.Date.IsZero() {
		fieldErrors = append(fieldErrors, pkg.FieldError{
			Msg:   "date must be a valid timestamp",
			Param: "date",
		})
	}
	if len(addReq.Exercises) == 0 {
		fieldErrors = append(fieldErrors, pkg.FieldError{
			Msg:   "at least one exercise entry is required",
			Param: "exercises",
		})
	}
	if len(fieldErrors) > 0 {
		pkg.WriteJSONValidationError(w, "Validation errors occurred", fieldErrors)
		return
	}

	addedWorkout, err := handler.repo.Add(ctx, Workout{
		UserID:        userID,
		Date:          *addReq.Date,
		Comments:      addReq.Comments,
		ScheduledTime: addReq.ScheduledTime,
		Exercises:     entriesFromRequest(addReq.Exercises),
	})
	if err != nil {
		if errors.Is(err, ErrExerciseRefInvalid) {
			pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
				{Msg: "exercise does not exist", Param: "exercises"},
			})
			return
		}
		log.Errorf("add workout for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterWorkouts.Inc()

	respJson, err := json.Marshal(addedWorkout)
	if err != nil {
		log.Errorf("add workout, marshal response: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	log.Debugf("new workout added: user %d, workout %d", userID, addedWorkout.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	workoutID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
			{Msg: "workout id must be a number", Param: "id"},
		})
		return
	}

	var updateReq workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update workout, unmarshal json params: %s", err)
		pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
			{Msg: "invalid request body", Param: "body"},
		})
		return
	}

	params := UpdateParams{
		WorkoutID:     workoutID,
		UserID:        userID,
		Comments:      updateReq.Comments,
		ScheduledTime: updateReq.ScheduledTime,
	}
	if updateReq.Date != nil {
		params.Date = *updateReq.Date
	}
	if updateReq.Exercises != nil {
		params.Exercises = entriesFromRequest(updateReq.Exercises)
	}

	updatedWorkout, err := handler.repo.Update(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, ErrWorkoutNotFound):
			pkg.WriteJSONError(w, "Workout not found", http.StatusNotFound)
		case errors.Is(err, ErrExerciseRefInvalid):
			pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
				{Msg: "exercise does not exist", Param: "exercises"},
			})
		default:
			log.Errorf("update workout %d for user %d: %s", workoutID, userID, err)
			pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	respJson, err := json.Marshal(updatedWorkout)
	if err != nil {
		log.Errorf("update workout, marshal response: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	workoutID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteJSONValidationError(w, "Validation errors occurred", []pkg.FieldError{
			{Msg: "workout id must be a number", Param: "id"},
		})
		return
	}

	if err := handler.repo.Delete(ctx, userID, workoutID); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			pkg.WriteJSONError(w, "Workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete workout %d for user %d: %s", workoutID, userID, err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	log.Debugf("workout deleted: user %d, workout %d", userID, workoutID)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.listActive")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	activeWorkouts, err := handler.repo.ListActive(ctx, userID, handler.now())
	if err != nil {
		log.Errorf("list active workouts for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if activeWorkouts == nil {
		activeWorkouts = []Workout{}
	}

	respJson, err := json.Marshal(activeWorkouts)
	if err != nil {
		log.Errorf("list active workouts, marshal response: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.report")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := handler.analyzer.Report(ctx, userID)
	if err != nil {
		log.Errorf("generate report for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(report)
	if err != nil {
		log.Errorf("generate report, marshal response: %s", err)
		pkg.WriteJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func entriesFromRequest(reqEntries []workoutEntryRequest) []WorkoutExercise {
	entries := make([]WorkoutExercise, 0, len(reqEntries))
	for _, e := range reqEntries {
		entries = append(entries, WorkoutExercise{
			ExerciseID:  e.ExerciseID,
			Sets:        e.Sets,
			Repetitions: e.Repetitions,
			Weight:      e.Weight,
		})
	}
	return entries
}
