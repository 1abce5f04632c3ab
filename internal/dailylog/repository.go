package dailylog

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Repository errors.
var (
	ErrLogNotFound   = errors.New("daily log not found")
	ErrLogExists     = errors.New("daily log already exists")
	ErrEntryNotFound = errors.New("log entry not found")
)

// Repository defines the interface for daily log persistence.
type Repository interface {
	// Get retrieves the log of userID on date.
	Get(ctx context.Context, userID, date string) (*DailyLog, error)

	// Create stores a new log. It returns ErrLogExists when the user already
	// has a log for that date.
	Create(ctx context.Context, log *DailyLog) error

	// Update replaces an existing log and its entries.
	Update(ctx context.Context, log *DailyLog) error

	// ListRange returns the user's logs dated from..to inclusive, oldest first.
	ListRange(ctx context.Context, userID, from, to string) ([]*DailyLog, error)

	// ListRecent returns up to limit of the user's logs, newest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]*DailyLog, error)

	// ListUserIDsByDate returns the users having a log on date.
	ListUserIDsByDate(ctx context.Context, date string) ([]string, error)

	// PurgeUser deletes every log of userID. It is a no-op for users
	// without logs.
	PurgeUser(ctx context.Context, userID string) error
}

type logKey struct {
	userID string
	date   string
}

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu   sync.RWMutex
	logs map[logKey]*DailyLog
}

// NewInMemoryRepository creates a new in-memory log repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		logs: make(map[logKey]*DailyLog),
	}
}

// Get retrieves a log.
func (r *InMemoryRepository) Get(_ context.Context, userID, date string) (*DailyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.logs[logKey{userID, date}]
	if !ok {
		return nil, ErrLogNotFound
	}
	return copyLog(l), nil
}

// Create stores a new log.
func (r *InMemoryRepository) Create(_ context.Context, log *DailyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := logKey{log.UserID, log.Date}
	if _, ok := r.logs[key]; ok {
		return ErrLogExists
	}
	r.logs[key] = copyLog(log)
	return nil
}

// Update replaces an existing log.
func (r *InMemoryRepository) Update(_ context.Context, log *DailyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := logKey{log.UserID, log.Date}
	if _, ok := r.logs[key]; !ok {
		return ErrLogNotFound
	}
	r.logs[key] = copyLog(log)
	return nil
}

// ListRange returns logs in a date range, oldest first.
func (r *InMemoryRepository) ListRange(_ context.Context, userID, from, to string) ([]*DailyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*DailyLog
	for key, l := range r.logs {
		if key.userID == userID && key.date >= from && key.date <= to {
			out = append(out, copyLog(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ListRecent returns the newest logs first.
func (r *InMemoryRepository) ListRecent(_ context.Context, userID string, limit int) ([]*DailyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*DailyLog
	for key, l := range r.logs {
		if key.userID == userID {
			out = append(out, copyLog(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListUserIDsByDate returns users with a log on date, sorted.
func (r *InMemoryRepository) ListUserIDsByDate(_ context.Context, date string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for key := range r.logs {
		if key.date == date {
			ids = append(ids, key.userID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

var _ Repository = (*InMemoryRepository)(nil)

// PurgeUser deletes all logs of a user.
func (r *InMemoryRepository) PurgeUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.logs {
		if key.userID == userID {
			delete(r.logs, key)
		}
	}
	return nil
}
