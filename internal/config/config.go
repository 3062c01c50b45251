// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string
	LogFormat   string

	// Ranking knobs. The scoring strategy and the time-normalization bonus
	// are first-class configuration, not hidden constants.
	RankingStrategy  string
	RankingPoolSize  int
	RankingTimeBonus float64
	WilsonZ          float64
	BayesPriorMean   float64
	BayesPriorWeight float64

	// Rate limiting for the accelerator hook endpoints.
	EventRatePerSecond float64
	EventRateBurst     int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		RankingStrategy: getEnv("RANKING_STRATEGY", "wilson"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.RankingStrategy != "wilson" && cfg.RankingStrategy != "bayesian" {
		return nil, fmt.Errorf("RANKING_STRATEGY must be \"wilson\" or \"bayesian\", got %q", cfg.RankingStrategy)
	}

	var err error
	if cfg.RankingPoolSize, err = getEnvInt("RANKING_POOL_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.RankingPoolSize <= 0 {
		return nil, fmt.Errorf("RANKING_POOL_SIZE must be positive")
	}
	if cfg.RankingTimeBonus, err = getEnvFloat("RANKING_TIME_BONUS", 0.15); err != nil {
		return nil, err
	}
	if cfg.RankingTimeBonus < 0 || cfg.RankingTimeBonus > 1 {
		return nil, fmt.Errorf("RANKING_TIME_BONUS must be within [0, 1]")
	}
	if cfg.WilsonZ, err = getEnvFloat("WILSON_CONFIDENCE_Z", 1.96); err != nil {
		return nil, err
	}
	if cfg.WilsonZ <= 0 {
		return nil, fmt.Errorf("WILSON_CONFIDENCE_Z must be positive")
	}
	if cfg.BayesPriorMean, err = getEnvFloat("BAYES_PRIOR_MEAN", 0.05); err != nil {
		return nil, err
	}
	if cfg.BayesPriorMean < 0 || cfg.BayesPriorMean > 1 {
		return nil, fmt.Errorf("BAYES_PRIOR_MEAN must be within [0, 1]")
	}
	if cfg.BayesPriorWeight, err = getEnvFloat("BAYES_PRIOR_WEIGHT", 50); err != nil {
		return nil, err
	}
	if cfg.BayesPriorWeight <= 0 {
		return nil, fmt.Errorf("BAYES_PRIOR_WEIGHT must be positive")
	}
	if cfg.EventRatePerSecond, err = getEnvFloat("EVENT_RATE_PER_SECOND", 50); err != nil {
		return nil, err
	}
	if cfg.EventRateBurst, err = getEnvInt("EVENT_RATE_BURST", 100); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return v, nil
}
