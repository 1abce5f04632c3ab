package featureflags_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/featureflags"
)

type countingRepository struct {
	*featureflags.InMemoryRepository
	gets int
	err  error
}

func (r *countingRepository) GetFlag(ctx context.Context, key string) (*featureflags.Flag, error) {
	r.gets++
	if r.err != nil {
		return nil, r.err
	}
	return r.InMemoryRepository.GetFlag(ctx, key)
}

func (r *countingRepository) GetAllFlags(ctx context.Context) (map[string]*featureflags.Flag, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.InMemoryRepository.GetAllFlags(ctx)
}

func newService(repo featureflags.Repository) *featureflags.Service {
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   time.Minute,
	})
}

func TestService_Defaults(t *testing.T) {
	svc := newService(featureflags.NewInMemoryRepository())
	ctx := context.Background()

	assert.False(t, svc.IsExternalLookupDisabled(ctx))
	assert.False(t, svc.IsSuggestionsDisabled(ctx))

	flag := svc.GetFlag(ctx, featureflags.FlagDisableSuggestions)
	require.NotNil(t, flag)
	assert.Equal(t, false, flag.Value)

	assert.Nil(t, svc.GetFlag(ctx, "unknown_flag"))
}

func TestService_SetFlags(t *testing.T) {
	svc := newService(featureflags.NewInMemoryRepository())
	ctx := context.Background()

	err := svc.SetFlags(ctx, []*featureflags.Flag{
		{Key: featureflags.FlagDisableExternalFoodLookup, Value: true},
		{Key: featureflags.FlagDisableSuggestions, Value: float64(1)},
	})
	require.NoError(t, err)

	assert.True(t, svc.IsExternalLookupDisabled(ctx))
	assert.True(t, svc.IsSuggestionsDisabled(ctx))
}

func TestService_SetFlags_Invalid(t *testing.T) {
	svc := newService(featureflags.NewInMemoryRepository())

	err := svc.SetFlags(context.Background(), []*featureflags.Flag{{Key: " ", Value: true}})
	assert.ErrorIs(t, err, featureflags.ErrInvalidFlag)

	err = svc.SetFlags(context.Background(), []*featureflags.Flag{{Key: "x"}})
	assert.ErrorIs(t, err, featureflags.ErrInvalidFlag)
}

func TestService_CachesReads(t *testing.T) {
	repo := &countingRepository{InMemoryRepository: featureflags.NewInMemoryRepository()}
	svc := newService(repo)
	ctx := context.Background()

	svc.IsSuggestionsDisabled(ctx)
	svc.IsSuggestionsDisabled(ctx)
	assert.Equal(t, 1, repo.gets)

	// A write that bypasses the service is only seen after invalidation.
	require.NoError(t, repo.SetFlags(ctx, []*featureflags.Flag{{Key: featureflags.FlagDisableSuggestions, Value: true}}))
	assert.False(t, svc.IsSuggestionsDisabled(ctx))

	svc.InvalidateCache()
	assert.True(t, svc.IsSuggestionsDisabled(ctx))
	assert.Equal(t, 2, repo.gets)
}

func TestService_RepositoryFailureFallsBackToDefaults(t *testing.T) {
	repo := &countingRepository{
		InMemoryRepository: featureflags.NewInMemoryRepository(),
		err:                errors.New("connection refused"),
	}
	svc := newService(repo)
	ctx := context.Background()

	assert.False(t, svc.IsExternalLookupDisabled(ctx))
	assert.Len(t, svc.GetAllFlags(ctx), 2)
}

func TestService_GetAllFlags(t *testing.T) {
	svc := newService(featureflags.NewInMemoryRepository())
	ctx := context.Background()

	require.NoError(t, svc.SetFlags(ctx, []*featureflags.Flag{
		{Key: featureflags.FlagDisableSuggestions, Value: true},
		{Key: "a_custom_flag", Value: "on"},
	}))

	flags := svc.GetAllFlags(ctx)
	keys := make([]string, 0, len(flags))
	for _, f := range flags {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"a_custom_flag", featureflags.FlagDisableExternalFoodLookup, featureflags.FlagDisableSuggestions}, keys)
	assert.True(t, flags[2].BoolValue(false))
	assert.Equal(t, "on", flags[0].Value)
}

func TestFlag_Values(t *testing.T) {
	var nilFlag *featureflags.Flag
	assert.True(t, nilFlag.BoolValue(true))
	assert.Equal(t, 7, nilFlag.IntValue(7))

	assert.Equal(t, 3, (&featureflags.Flag{Value: float64(3)}).IntValue(0))
	assert.Equal(t, 0, (&featureflags.Flag{Value: "x"}).IntValue(0))
	assert.False(t, (&featureflags.Flag{Value: float64(0)}).BoolValue(true))
	assert.True(t, (&featureflags.Flag{Value: []string{}}).BoolValue(true))
}

func TestService_ResetFlag(t *testing.T) {
	repo := &countingRepository{InMemoryRepository: featureflags.NewInMemoryRepository()}
	svc := newService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetFlags(ctx, []*featureflags.Flag{{Key: featureflags.FlagDisableSuggestions, Value: true}}))
	require.True(t, svc.IsSuggestionsDisabled(ctx))

	require.NoError(t, svc.ResetFlag(ctx, featureflags.FlagDisableSuggestions))
	assert.False(t, svc.IsSuggestionsDisabled(ctx), "reset must evict the cached override")

	assert.ErrorIs(t, svc.ResetFlag(ctx, featureflags.FlagDisableSuggestions), featureflags.ErrFlagNotFound)
	assert.ErrorIs(t, svc.ResetFlag(ctx, " "), featureflags.ErrInvalidFlag)
}

func TestInMemoryRepository_CopiesFlags(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	ctx := context.Background()

	in := &featureflags.Flag{Key: "k", Value: true}
	require.NoError(t, repo.SetFlags(ctx, []*featureflags.Flag{in}))
	in.Value = false

	got, err := repo.GetFlag(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, true, got.Value)

	got.Value = "mutated"
	all, err := repo.GetAllFlags(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, all["k"].Value)
}

func TestFlag_BoolValueStrings(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"FALSE", false},
		{"maybe", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (&featureflags.Flag{Value: tt.value}).BoolValue(true), tt.value)
	}
}

func TestDefaultFlags_CoverDegradationSwitches(t *testing.T) {
	defaults := featureflags.DefaultFlags()
	require.Len(t, defaults, len(featureflags.DegradationFlags))
	for _, key := range featureflags.DegradationFlags {
		assert.False(t, defaults[key].BoolValue(true), key)
	}
}
