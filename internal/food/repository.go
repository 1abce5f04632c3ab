package food

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// Repository errors.
var (
	ErrFoodNotFound = errors.New("food not found")
)

// Query selects foods visible to one owner.
type Query struct {
	// OwnerID adds the owner's private foods to the global catalog.
	OwnerID string

	// Text matches a case-insensitive substring of the name.
	Text string

	// Category restricts results when non-empty.
	Category Category

	// Limit caps the result size when positive.
	Limit int
}

// Repository defines the interface for food persistence.
type Repository interface {
	// Get retrieves a food by ID.
	Get(ctx context.Context, id string) (*Food, error)

	// GetMany retrieves the foods that exist among ids, keyed by ID.
	GetMany(ctx context.Context, ids []string) (map[string]*Food, error)

	// FindByName retrieves a food by normalized name within one owner's
	// namespace. An empty ownerID addresses the global catalog.
	FindByName(ctx context.Context, ownerID, name string) (*Food, error)

	// Search returns global foods plus q.OwnerID's foods, ordered by name.
	Search(ctx context.Context, q Query) ([]*Food, error)

	// Put creates or replaces a food.
	Put(ctx context.Context, f *Food) error

	// PurgeUser deletes the private foods owned by userID.
	PurgeUser(ctx context.Context, userID string) error
}

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	foods map[string]*Food
}

// NewInMemoryRepository creates a new in-memory food repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		foods: make(map[string]*Food),
	}
}

// Get retrieves a food by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Food, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.foods[id]
	if !ok {
		return nil, ErrFoodNotFound
	}
	return copyFood(f), nil
}

// GetMany retrieves several foods at once. Missing IDs are omitted.
func (r *InMemoryRepository) GetMany(_ context.Context, ids []string) (map[string]*Food, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Food, len(ids))
	for _, id := range ids {
		if f, ok := r.foods[id]; ok {
			out[id] = copyFood(f)
		}
	}
	return out, nil
}

// FindByName retrieves a food by owner and normalized name.
func (r *InMemoryRepository) FindByName(_ context.Context, ownerID, name string) (*Food, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = NormalizeName(name)
	for _, f := range r.foods {
		if f.OwnerID == ownerID && f.Name == name {
			return copyFood(f), nil
		}
	}
	return nil, ErrFoodNotFound
}

// Search returns matching global and owned foods ordered by name.
func (r *InMemoryRepository) Search(_ context.Context, q Query) ([]*Food, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	text := strings.ToLower(strings.TrimSpace(q.Text))
	var out []*Food
	for _, f := range r.foods {
		if !f.IsGlobal() && f.OwnerID != q.OwnerID {
			continue
		}
		if text != "" && !strings.Contains(f.Name, text) {
			continue
		}
		if q.Category != "" && f.Category != q.Category {
			continue
		}
		out = append(out, copyFood(f))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Put creates or replaces a food.
func (r *InMemoryRepository) Put(_ context.Context, f *Food) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.foods[f.ID] = copyFood(f)
	return nil
}

// PurgeUser deletes a user's private foods.
func (r *InMemoryRepository) PurgeUser(_ context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, f := range r.foods {
		if f.OwnerID == userID {
			delete(r.foods, id)
		}
	}
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
