package users

import (
	"context"
	"sync"
)

var _ usersRepo = (*repoMock)(nil)

type repoMock struct {
	mu     sync.Mutex
	nextID int
	users  map[int]User
}

func newRepoMock() *repoMock {
	return &repoMock{
		nextID: 1,
		users:  map[int]User{},
	}
}

func (m *repoMock) Add(_ context.Context, user User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return nil, ErrUsernameTaken
		}
		if u.Email == user.Email {
			return nil, ErrEmailTaken
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return &user, nil
}

func (m *repoMock) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}
