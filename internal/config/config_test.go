package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/contest")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "wilson", cfg.RankingStrategy)
	assert.Equal(t, 100, cfg.RankingPoolSize)
	assert.InDelta(t, 0.15, cfg.RankingTimeBonus, 1e-12)
	assert.InDelta(t, 1.96, cfg.WilsonZ, 1e-12)
	assert.InDelta(t, 0.05, cfg.BayesPriorMean, 1e-12)
	assert.InDelta(t, 50.0, cfg.BayesPriorWeight, 1e-12)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_MissingRedisURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/contest")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_URL")
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RANKING_STRATEGY", "bayesian")
	t.Setenv("RANKING_POOL_SIZE", "25")
	t.Setenv("RANKING_TIME_BONUS", "0.3")
	t.Setenv("WILSON_CONFIDENCE_Z", "1.64")
	t.Setenv("BAYES_PRIOR_MEAN", "0.1")
	t.Setenv("BAYES_PRIOR_WEIGHT", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bayesian", cfg.RankingStrategy)
	assert.Equal(t, 25, cfg.RankingPoolSize)
	assert.InDelta(t, 0.3, cfg.RankingTimeBonus, 1e-12)
	assert.InDelta(t, 1.64, cfg.WilsonZ, 1e-12)
	assert.InDelta(t, 0.1, cfg.BayesPriorMean, 1e-12)
	assert.InDelta(t, 20.0, cfg.BayesPriorWeight, 1e-12)
}

func TestLoad_InvalidStrategy(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RANKING_STRATEGY", "laplace")

	_, err := Load()
	assert.ErrorContains(t, err, "RANKING_STRATEGY")
}

func TestLoad_InvalidRanges(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"pool size zero", "RANKING_POOL_SIZE", "0"},
		{"pool size not a number", "RANKING_POOL_SIZE", "many"},
		{"time bonus negative", "RANKING_TIME_BONUS", "-0.1"},
		{"time bonus above one", "RANKING_TIME_BONUS", "1.5"},
		{"z non-positive", "WILSON_CONFIDENCE_Z", "0"},
		{"prior mean above one", "BAYES_PRIOR_MEAN", "1.2"},
		{"prior weight zero", "BAYES_PRIOR_WEIGHT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
