package workouts

import (
	"context"
	"sort"

	"github.com/fitledger/backend/internal/telemetry/tracing"
)

const topExercisesCap = 5

//go:generate mockgen -source=$GOFILE -destination=analyzer_mocks_test.go -package=workouts_test

type workoutsLister interface {
	ListAll(ctx context.Context, userID int) ([]Workout, error)
}

type ExerciseCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Report struct {
	TotalWorkouts       int             `json:"totalWorkouts"`
	TotalExercises      int             `json:"totalExercises"`
	MostCommonExercises []ExerciseCount `json:"mostCommonExercises"`
}

// Analyzer derives summary stats from a user's full workout history.
// Reports are computed on demand, nothing is stored.
type Analyzer struct {
	repo workoutsLister
}

func NewAnalyzer(repo workoutsLister) *Analyzer {
	return &Analyzer{repo: repo}
}

func (a *Analyzer) Report(ctx context.Context, userID int) (_ *Report, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.analyzer.report")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	allWorkouts, err := a.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		TotalWorkouts:       len(allWorkouts),
		MostCommonExercises: []ExerciseCount{},
	}

	counts := map[string]int{}
	var namesInOrder []string
	for _, workout := range allWorkouts {
		report.TotalExercises += len(workout.Exercises)
		for _, entry := range workout.Exercises {
			if entry.Exercise == nil {
				continue
			}
			name := entry.Exercise.Name
			if _, seen := counts[name]; !seen {
				namesInOrder = append(namesInOrder, name)
			}
			counts[name]++
		}
	}

	for _, name := range namesInOrder {
		report.MostCommonExercises = append(report.MostCommonExercises, ExerciseCount{
			Name:  name,
			Count: counts[name],
		})
	}

	// stable sort keeps first-encountered order among equal counts
	sort.SliceStable(report.MostCommonExercises, func(i, j int) bool {
		return report.MostCommonExercises[i].Count > report.MostCommonExercises[j].Count
	})

	if len(report.MostCommonExercises) > topExercisesCap {
		report.MostCommonExercises = report.MostCommonExercises[:topExercisesCap]
	}

	return report, nil
}
