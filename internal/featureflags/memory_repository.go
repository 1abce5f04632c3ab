package featureflags

import (
	"context"
	"sync"
)

// InMemoryRepository keeps overrides in a map. Flags are copied on the way in
// and out so callers cannot mutate stored state.
type InMemoryRepository struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{flags: make(map[string]Flag)}
}

func (r *InMemoryRepository) GetFlag(_ context.Context, key string) (*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if flag, ok := r.flags[key]; ok {
		return &flag, nil
	}
	return nil, ErrFlagNotFound
}

func (r *InMemoryRepository) GetAllFlags(_ context.Context) (map[string]*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Flag, len(r.flags))
	for key, flag := range r.flags {
		flag := flag
		out[key] = &flag
	}
	return out, nil
}

func (r *InMemoryRepository) SetFlags(_ context.Context, flags []*Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, flag := range flags {
		r.flags[flag.Key] = *flag
	}
	return nil
}

func (r *InMemoryRepository) ResetFlag(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flags[key]; !ok {
		return ErrFlagNotFound
	}
	delete(r.flags, key)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
