package dailylog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/clock"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/lock"
	"github.com/nutrilog/nutrilog/internal/nutrition"
	"github.com/nutrilog/nutrilog/internal/user"
)

const tracerName = "github.com/nutrilog/nutrilog/internal/dailylog"

// Recent foods scan window.
const (
	recentLogWindow = 30
	recentFoodLimit = 20
)

// Foods resolves food references.
type Foods interface {
	// Get returns a food visible to userID.
	Get(ctx context.Context, userID, foodID string) (*food.Food, error)
	// GetMany returns the foods found among ids, keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]*food.Food, error)
}

// Users provides the profile used by suggestions and records streak activity.
type Users interface {
	Get(ctx context.Context, userID string) (*user.User, error)
	TouchStreak(ctx context.Context, userID string) (*user.User, error)
}

// Advisor generates advisory strings for a log.
type Advisor interface {
	Generate(log *DailyLog, u *user.User) ([]string, error)
}

// SuggestionGate decides at request time whether suggestions are regenerated.
type SuggestionGate interface {
	IsSuggestionsDisabled(ctx context.Context) bool
}

// ServiceConfig holds configuration for the daily log service.
type ServiceConfig struct {
	Repository Repository
	Foods      Foods
	Users      Users
	Advisor    Advisor
	Gate       SuggestionGate
	Locker     lock.Locker
	Clock      clock.Clock
	Logger     zerolog.Logger
}

// Service orchestrates log mutations: lookups, per-day locking, persistence
// and the best-effort streak and suggestion side effects.
type Service struct {
	repo    Repository
	foods   Foods
	users   Users
	advisor Advisor
	gate    SuggestionGate
	locker  lock.Locker
	clock   clock.Clock
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewService creates a new daily log service.
func NewService(cfg ServiceConfig) *Service {
	locker := cfg.Locker
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	c := cfg.Clock
	if c == nil {
		c = clock.NewSystem(nil)
	}
	return &Service{
		repo:    cfg.Repository,
		foods:   cfg.Foods,
		users:   cfg.Users,
		advisor: cfg.Advisor,
		gate:    cfg.Gate,
		locker:  locker,
		clock:   c,
		logger:  cfg.Logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// Today returns the service's current calendar date.
func (s *Service) Today() string {
	return clock.Today(s.clock)
}

// AddEntryInput describes a food to log.
type AddEntryInput struct {
	FoodID   string
	Quantity float64
	Unit     string
	// LoggedAt defaults to now.
	LoggedAt *time.Time
}

// UpdateEntryInput changes a logged entry. Quantity is in the entry's base unit.
type UpdateEntryInput struct {
	Quantity float64
	LoggedAt *time.Time
}

// GetOrCreateToday returns today's log, creating an empty one if needed.
func (s *Service) GetOrCreateToday(ctx context.Context, userID string) (*DailyLog, error) {
	return s.getOrCreate(ctx, userID, s.Today())
}

// GetByDate returns an existing log.
func (s *Service) GetByDate(ctx context.Context, userID, date string) (*DailyLog, error) {
	if _, err := clock.ParseDate(date); err != nil {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "date", Message: "must be YYYY-MM-DD", Code: "invalid"},
		}}
	}
	return s.repo.Get(ctx, userID, date)
}

func (s *Service) getOrCreate(ctx context.Context, userID, date string) (*DailyLog, error) {
	l, err := s.repo.Get(ctx, userID, date)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, ErrLogNotFound) {
		return nil, err
	}

	l = New(userID, date, s.clock.Now())
	err = s.repo.Create(ctx, l)
	if errors.Is(err, ErrLogExists) {
		// Lost a create race; the winner's log is the one to use.
		return s.repo.Get(ctx, userID, date)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// AddEntry logs a food on today's log.
func (s *Service) AddEntry(ctx context.Context, userID string, in AddEntryInput) (*DailyLog, error) {
	ctx, span := s.startSpan(ctx, "dailylog.AddEntry", userID)
	defer span.End()

	if in.Quantity <= 0 {
		return nil, invalidQuantity()
	}

	f, err := s.foods.Get(ctx, userID, in.FoodID)
	if err != nil {
		return nil, err
	}
	if !nutrition.IsKnownUnit(in.Unit) {
		s.logger.Debug().
			Str("user_id", userID).
			Str("food_id", f.ID).
			Str("unit", in.Unit).
			Msg("unknown unit, treating quantity as base unit")
	}

	loggedAt := s.clock.Now()
	if in.LoggedAt != nil {
		loggedAt = *in.LoggedAt
	}

	l, err := s.mutateToday(ctx, userID, func(l *DailyLog) error {
		_, err := l.AddEntry(f, in.Quantity, in.Unit, loggedAt)
		return err
	}, true)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return l, nil
}

// UpdateEntry changes the quantity and optionally the time of an entry on
// today's log.
func (s *Service) UpdateEntry(ctx context.Context, userID, entryID string, in UpdateEntryInput) (*DailyLog, error) {
	ctx, span := s.startSpan(ctx, "dailylog.UpdateEntry", userID)
	defer span.End()

	if in.Quantity <= 0 {
		return nil, invalidQuantity()
	}

	l, err := s.mutateExistingToday(ctx, userID, func(l *DailyLog) error {
		e, ok := l.Entry(entryID)
		if !ok {
			return ErrEntryNotFound
		}
		foods, err := s.foods.GetMany(ctx, []string{e.FoodID})
		if err != nil {
			return err
		}
		f, ok := foods[e.FoodID]
		if !ok {
			return food.ErrFoodNotFound
		}
		_, err = l.UpdateEntry(entryID, in.Quantity, f, in.LoggedAt)
		return err
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return l, nil
}

// RemoveEntry deletes an entry from today's log. Unknown entries and a
// missing log are not errors.
func (s *Service) RemoveEntry(ctx context.Context, userID, entryID string) error {
	ctx, span := s.startSpan(ctx, "dailylog.RemoveEntry", userID)
	defer span.End()

	_, err := s.mutateExistingToday(ctx, userID, func(l *DailyLog) error {
		if !l.RemoveEntry(entryID) {
			return errUnchanged
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrLogNotFound) {
		recordError(span, err)
		return err
	}
	return nil
}

// AdjustWater adds deltaMl (possibly negative) to today's water intake.
func (s *Service) AdjustWater(ctx context.Context, userID string, deltaMl int) (*DailyLog, error) {
	ctx, span := s.startSpan(ctx, "dailylog.AdjustWater", userID)
	defer span.End()

	l, err := s.mutateToday(ctx, userID, func(l *DailyLog) error {
		l.AdjustWater(deltaMl)
		return nil
	}, false)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return l, nil
}

// CategoryTotals groups today's entries by food category. A user without a
// log today gets an empty map.
func (s *Service) CategoryTotals(ctx context.Context, userID string) (map[string]nutrition.Values, error) {
	l, err := s.repo.Get(ctx, userID, s.Today())
	if errors.Is(err, ErrLogNotFound) {
		return map[string]nutrition.Values{}, nil
	}
	if err != nil {
		return nil, err
	}

	foods, err := s.foods.GetMany(ctx, l.FoodIDs())
	if err != nil {
		return nil, err
	}
	return CategoryTotals(l, foods), nil
}

// History returns a zero-filled window of daily aggregates ending today.
// days is clamped to [MinHistoryDays, MaxHistoryDays].
func (s *Service) History(ctx context.Context, userID string, days int) ([]DaySummary, error) {
	days = ClampDays(days)
	today := s.Today()

	logs, err := s.repo.ListRange(ctx, userID, clock.AddDays(today, -(days-1)), today)
	if err != nil {
		return nil, err
	}
	return BuildHistory(today, days, logs), nil
}

// RecentFoods returns up to 20 distinct foods from the user's last 30 logs,
// most recently logged first.
func (s *Service) RecentFoods(ctx context.Context, userID string) ([]*food.Food, error) {
	logs, err := s.repo.ListRecent(ctx, userID, recentLogWindow)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	for _, l := range logs {
		for i := len(l.Entries) - 1; i >= 0; i-- {
			id := l.Entries[i].FoodID
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []*food.Food{}, nil
	}

	foods, err := s.foods.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*food.Food, 0, recentFoodLimit)
	for _, id := range ids {
		f, ok := foods[id]
		if !ok {
			continue
		}
		out = append(out, f)
		if len(out) == recentFoodLimit {
			break
		}
	}
	return out, nil
}

// RegenerateSuggestions recomputes the cached suggestions of an existing log.
func (s *Service) RegenerateSuggestions(ctx context.Context, userID, date string) (*DailyLog, error) {
	ctx, span := s.startSpan(ctx, "dailylog.RegenerateSuggestions", userID)
	defer span.End()

	unlock, err := s.locker.Lock(ctx, lockKey(userID, date))
	if err != nil {
		return nil, err
	}
	defer unlock()

	l, err := s.repo.Get(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	suggestions, err := s.advisor.Generate(l, u)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("generating suggestions: %w", err)
	}

	l.Suggestions = suggestions
	l.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// ListUserIDsByDate returns the users having a log on date.
func (s *Service) ListUserIDsByDate(ctx context.Context, date string) ([]string, error) {
	return s.repo.ListUserIDsByDate(ctx, date)
}

var errUnchanged = errors.New("log unchanged")

// mutateToday applies fn to today's log under the per-day lock, creating the
// log if needed, and persists the result.
func (s *Service) mutateToday(ctx context.Context, userID string, fn func(*DailyLog) error, activity bool) (*DailyLog, error) {
	date := s.Today()

	unlock, err := s.locker.Lock(ctx, lockKey(userID, date))
	if err != nil {
		return nil, err
	}
	defer unlock()

	l, err := s.getOrCreate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, l, fn, activity)
}

// mutateExistingToday is mutateToday for operations that never create a log.
func (s *Service) mutateExistingToday(ctx context.Context, userID string, fn func(*DailyLog) error) (*DailyLog, error) {
	date := s.Today()

	unlock, err := s.locker.Lock(ctx, lockKey(userID, date))
	if err != nil {
		return nil, err
	}
	defer unlock()

	l, err := s.repo.Get(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, l, fn, false)
}

func (s *Service) apply(ctx context.Context, l *DailyLog, fn func(*DailyLog) error, activity bool) (*DailyLog, error) {
	if err := fn(l); err != nil {
		if errors.Is(err, errUnchanged) {
			return l, nil
		}
		return nil, err
	}

	s.afterMutation(ctx, l, activity)

	l.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("saving daily log: %w", err)
	}
	return l, nil
}

// afterMutation runs the streak and suggestion side effects. Failures are
// logged and never undo the mutation.
func (s *Service) afterMutation(ctx context.Context, l *DailyLog, activity bool) {
	if s.users == nil {
		return
	}

	var (
		u   *user.User
		err error
	)
	if activity {
		u, err = s.users.TouchStreak(ctx, l.UserID)
		if err != nil && !errors.Is(err, user.ErrUserNotFound) {
			s.logger.Warn().Err(err).Str("user_id", l.UserID).Msg("failed to update streak")
			u, err = s.users.Get(ctx, l.UserID)
		}
	} else {
		u, err = s.users.Get(ctx, l.UserID)
	}
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.logger.Debug().Str("user_id", l.UserID).Msg("no profile, skipping streak and suggestions")
			return
		}
		s.logger.Warn().Err(err).Str("user_id", l.UserID).Str("date", l.Date).Msg("failed to load user for log side effects")
		return
	}

	if s.advisor == nil || (s.gate != nil && s.gate.IsSuggestionsDisabled(ctx)) {
		return
	}
	suggestions, err := s.advisor.Generate(l, u)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", l.UserID).Str("date", l.Date).Msg("failed to generate suggestions")
		return
	}
	l.Suggestions = suggestions
}

func (s *Service) startSpan(ctx context.Context, name, userID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("user.id", userID)))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func lockKey(userID, date string) string {
	return "dailylog:" + userID + ":" + date
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
