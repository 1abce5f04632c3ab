package app_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/nutrilog/internal/app"
	"github.com/nutrilog/nutrilog/internal/config"
	"github.com/nutrilog/nutrilog/internal/food"
)

func memoryConfig() config.Config {
	return config.Config{StorageBackend: config.StorageMemory, Timezone: "Asia/Kolkata"}
}

func TestBuild_Memory(t *testing.T) {
	ctx := context.Background()

	s, err := app.Build(ctx, memoryConfig(), zerolog.Nop(), app.Options{})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	assert.Empty(t, s.Checks)
	assert.Equal(t, "Asia/Kolkata", s.Clock.Now().Location().String())

	results, err := s.Foods.Search(ctx, food.SearchInput{UserID: "usr_a", Text: "rice"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "rice", results[0].Name)

	log, err := s.Logs.GetOrCreateToday(ctx, "usr_a")
	require.NoError(t, err)
	assert.Equal(t, s.Logs.Today(), log.Date)
}

func TestBuild_InvalidTimezone(t *testing.T) {
	cfg := memoryConfig()
	cfg.Timezone = "Nowhere/Special"

	_, err := app.Build(context.Background(), cfg, zerolog.Nop(), app.Options{})
	assert.Error(t, err)
}
