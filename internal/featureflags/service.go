package featureflags

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidFlag is returned when an update carries an empty key or no value.
var ErrInvalidFlag = errors.New("invalid feature flag")

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository   Repository
	Logger       zerolog.Logger
	CacheTTL     time.Duration
	DefaultFlags map[string]*Flag
}

// Service evaluates flags with a per-key TTL cache and falls back to
// defaults when the repository has no entry or is unavailable.
type Service struct {
	repo         Repository
	logger       zerolog.Logger
	cacheTTL     time.Duration
	defaultFlags map[string]*Flag
	now          func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	flag    *Flag
	expires time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	defaults := cfg.DefaultFlags
	if defaults == nil {
		defaults = DefaultFlags()
	}
	return &Service{
		repo:         cfg.Repository,
		logger:       cfg.Logger,
		cacheTTL:     ttl,
		defaultFlags: defaults,
		now:          time.Now,
		cache:        make(map[string]cacheEntry),
	}
}

// GetFlag returns the flag for key, or nil when neither the repository nor
// the defaults know it.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if flag, ok := s.cached(key); ok {
		return flag
	}

	flag, err := s.repo.GetFlag(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, ErrFlagNotFound):
		flag = s.defaultFlags[key].clone()
	default:
		s.logger.Warn().Err(err).Str("flag", key).Msg("failed to get feature flag from repository")
		return s.defaultFlags[key].clone()
	}

	s.store(key, flag)
	return flag
}

// GetAllFlags returns the stored flags merged over the defaults, sorted by key.
func (s *Service) GetAllFlags(ctx context.Context) []*Flag {
	merged := make(map[string]*Flag, len(s.defaultFlags))
	for k, v := range s.defaultFlags {
		merged[k] = v.clone()
	}

	stored, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to get feature flags from repository, using defaults")
	}
	for k, v := range stored {
		merged[k] = v
		s.store(k, v)
	}

	out := make([]*Flag, 0, len(merged))
	for _, v := range merged {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SetFlags stores flag updates and refreshes their cache entries.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	now := s.now()
	for _, flag := range flags {
		if strings.TrimSpace(flag.Key) == "" || flag.Value == nil {
			return ErrInvalidFlag
		}
		flag.UpdatedAt = now
	}

	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return err
	}

	for _, flag := range flags {
		s.store(flag.Key, flag.clone())
	}

	s.logger.Info().Int("count", len(flags)).Msg("feature flags updated")
	return nil
}

// ResetFlag removes the override for key so the default applies again.
func (s *Service) ResetFlag(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidFlag
	}
	if err := s.repo.ResetFlag(ctx, key); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	s.logger.Info().Str("key", key).Msg("feature flag reset")
	return nil
}

// InvalidateCache forces the next reads to hit the repository.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cacheEntry)
}

// IsEnabled reports whether a boolean flag is set.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	if s == nil {
		return false
	}
	return s.GetFlag(ctx, key).BoolValue(false)
}

// IsExternalLookupDisabled reports whether food search must skip USDA.
func (s *Service) IsExternalLookupDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableExternalFoodLookup)
}

// IsSuggestionsDisabled reports whether log mutations skip suggestions.
func (s *Service) IsSuggestionsDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableSuggestions)
}

func (s *Service) cached(key string) (*Flag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok || s.now().After(entry.expires) {
		return nil, false
	}
	return entry.flag, true
}

func (s *Service) store(key string, flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{flag: flag, expires: s.now().Add(s.cacheTTL)}
}
