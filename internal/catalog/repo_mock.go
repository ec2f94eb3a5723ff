package catalog

import (
	"context"
	"sort"
	"sync"
)

var _ exercisesRepo = (*repoMock)(nil)

type repoMock struct {
	mu        sync.Mutex
	nextID    int
	exercises map[int]Exercise
}

func newRepoMock() *repoMock {
	return &repoMock{
		nextID:    1,
		exercises: map[int]Exercise{},
	}
}

func (m *repoMock) Add(_ context.Context, exercise Exercise) (*Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exercise.ID = m.nextID
	m.nextID++
	m.exercises[exercise.ID] = exercise
	return &exercise, nil
}

func (m *repoMock) Get(_ context.Context, id int) (*Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, ok := m.exercises[id]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	return &ex, nil
}

func (m *repoMock) ListAll(_ context.Context) ([]Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var exercises []Exercise
	for _, ex := range m.exercises {
		exercises = append(exercises, ex)
	}
	sort.Slice(exercises, func(i, j int) bool {
		return exercises[i].ID < exercises[j].ID
	})
	return exercises, nil
}
