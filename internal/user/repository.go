package user

import (
	"context"
	"errors"
	"sync"
)

// ErrUserNotFound is returned for a user ID with no stored profile.
var ErrUserNotFound = errors.New("user not found")

// Repository persists users together with their streak state.
type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
	// Put creates a user or replaces its profile. The streak is written only
	// when the user is created; later changes go through UpdateStreak.
	Put(ctx context.Context, user *User) error
	// UpdateStreak rewrites only the streak so profile edits racing a log
	// mutation are not lost. Unknown users yield ErrUserNotFound.
	UpdateStreak(ctx context.Context, id string, streak Streak) error
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository backs development and tests. Users are deep-copied on
// every read and write.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*User)}
}

func (r *InMemoryRepository) Get(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, ErrUserNotFound
}

func (r *InMemoryRepository) Put(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyUser(user)
	if existing, ok := r.users[user.ID]; ok {
		stored.Streak = existing.Streak
	}
	r.users[user.ID] = stored
	return nil
}

func (r *InMemoryRepository) UpdateStreak(_ context.Context, id string, streak Streak) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Streak = streak
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.users, id)
	r.mu.Unlock()
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
