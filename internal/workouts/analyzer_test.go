package workouts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitledger/backend/internal/catalog"
	"github.com/fitledger/backend/internal/workouts"
)

func workoutWith(exerciseNames ...string) workouts.Workout {
	var workout workouts.Workout
	for i, name := range exerciseNames {
		workout.Exercises = append(workout.Exercises, workouts.WorkoutExercise{
			ExerciseID: i + 1,
			Exercise:   &catalog.Exercise{ID: i + 1, Name: name},
		})
	}
	return workout
}

func TestAnalyzer_Report(t *testing.T) {
	ctrl := gomock.NewController(t)
	listerMock := NewMockworkoutsLister(ctrl)
	analyzer := workouts.NewAnalyzer(listerMock)

	listerMock.EXPECT().
		ListAll(gomock.Any(), 7).
		Return([]workouts.Workout{
			workoutWith("Push Up", "Squat"),
			workoutWith("Push Up"),
			workoutWith("Push Up"),
			workoutWith(),
		}, nil)

	report, err := analyzer.Report(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalWorkouts)
	assert.Equal(t, 4, report.TotalExercises)
	assert.Equal(t, []workouts.ExerciseCount{
		{Name: "Push Up", Count: 3},
		{Name: "Squat", Count: 1},
	}, report.MostCommonExercises)
}

func TestAnalyzer_Report_TopFiveCap(t *testing.T) {
	ctrl := gomock.NewController(t)
	listerMock := NewMockworkoutsLister(ctrl)
	analyzer := workouts.NewAnalyzer(listerMock)

	listerMock.EXPECT().
		ListAll(gomock.Any(), 7).
		Return([]workouts.Workout{
			workoutWith("A", "B", "C", "D", "E", "F", "G"),
			workoutWith("G", "F"),
			workoutWith("G"),
		}, nil)

	report, err := analyzer.Report(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, report.MostCommonExercises, 5)
	assert.Equal(t, workouts.ExerciseCount{Name: "G", Count: 3}, report.MostCommonExercises[0])
	assert.Equal(t, workouts.ExerciseCount{Name: "F", Count: 2}, report.MostCommonExercises[1])
	// ties keep the order in which the names first showed up
	assert.Equal(t, []workouts.ExerciseCount{
		{Name: "A", Count: 1},
		{Name: "B", Count: 1},
		{Name: "C", Count: 1},
	}, report.MostCommonExercises[2:])
}

func TestAnalyzer_Report_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	listerMock := NewMockworkoutsLister(ctrl)
	analyzer := workouts.NewAnalyzer(listerMock)

	listerMock.EXPECT().ListAll(gomock.Any(), 7).Return(nil, nil)

	report, err := analyzer.Report(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalWorkouts)
	assert.Equal(t, 0, report.TotalExercises)
	assert.Empty(t, report.MostCommonExercises)
	assert.NotNil(t, report.MostCommonExercises)
}

func TestAnalyzer_Report_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	listerMock := NewMockworkoutsLister(ctrl)
	analyzer := workouts.NewAnalyzer(listerMock)

	listerMock.EXPECT().ListAll(gomock.Any(), 7).Return(nil, errors.New("db gone"))

	report, err := analyzer.Report(context.Background(), 7)
	require.Error(t, err)
	assert.Nil(t, report)
}
