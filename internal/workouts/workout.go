package workouts

import (
	"time"

	"github.com/fitledger/backend/internal/catalog"
)

type Workout struct {
	ID            int               `json:"id"`
	UserID        int               `json:"user_id"`
	Date          time.Time         `json:"date"`
	Comments      string            `json:"comments"`
	ScheduledTime *time.Time        `json:"scheduled_time"`
	Exercises     []WorkoutExercise `json:"exercises"`
}

// WorkoutExercise is one performed exercise within a workout. Exercise
// carries the joined catalog details when the workout was loaded with them.
type WorkoutExercise struct {
	ID          int               `json:"id"`
	WorkoutID   int               `json:"workout_id"`
	ExerciseID  int               `json:"exercise_id"`
	Sets        int               `json:"sets"`
	Repetitions int               `json:"repetitions"`
	Weight      float64           `json:"weight"`
	Exercise    *catalog.Exercise `json:"exercise,omitempty"`
}

// UpdateParams carries the fields of an update request. Zero values mean
// "leave as is". A nil Exercises slice leaves the associations untouched,
// a non-nil slice replaces them entirely.
type UpdateParams struct {
	WorkoutID     int
	UserID        int
	Date          time.Time
	Comments      string
	ScheduledTime *time.Time
	Exercises     []WorkoutExercise
}
