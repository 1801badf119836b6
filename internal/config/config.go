package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config конфигурация движка дедупликации и HTTP-сервера
type Config struct {
	// Сервер
	Port string `json:"port"`

	// База данных
	DatabasePath string `json:"database_path"`

	// Дедупликация
	SimilarityThreshold float64 `json:"similarity_threshold"`
	Workers             int     `json:"workers"`

	// Арбитр
	ArbiterEnabled bool          `json:"arbiter_enabled"`
	ArbiterBaseURL string        `json:"arbiter_base_url"`
	ArbiterAPIKey  string        `json:"arbiter_api_key"`
	ArbiterModel   string        `json:"arbiter_model"`
	ArbiterTimeout time.Duration `json:"arbiter_timeout"`
	ArbiterRPS     float64       `json:"arbiter_rps"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Port:                "8080",
		DatabasePath:        "dedup.db",
		SimilarityThreshold: 0.75,
		ArbiterTimeout:      10 * time.Second,
		ArbiterRPS:          1.0,
	}
}

// LoadConfig загружает конфигурацию из переменных окружения,
// отсутствующие значения берутся из DefaultConfig
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if port := os.Getenv("DEDUP_PORT"); port != "" {
		cfg.Port = port
	}
	if path := os.Getenv("DEDUP_DATABASE_PATH"); path != "" {
		cfg.DatabasePath = path
	}

	cfg.SimilarityThreshold = getEnvFloat("DEDUP_SIMILARITY_THRESHOLD", cfg.SimilarityThreshold)
	cfg.Workers = getEnvInt("DEDUP_WORKERS", cfg.Workers)

	cfg.ArbiterEnabled = getEnvBool("DEDUP_ARBITER_ENABLED", cfg.ArbiterEnabled)
	cfg.ArbiterBaseURL = os.Getenv("DEDUP_ARBITER_BASE_URL")
	cfg.ArbiterAPIKey = os.Getenv("DEDUP_ARBITER_API_KEY")
	cfg.ArbiterModel = os.Getenv("DEDUP_ARBITER_MODEL")
	cfg.ArbiterTimeout = getEnvDuration("DEDUP_ARBITER_TIMEOUT", cfg.ArbiterTimeout)
	cfg.ArbiterRPS = getEnvFloat("DEDUP_ARBITER_RPS", cfg.ArbiterRPS)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in (0, 1], got %f", c.SimilarityThreshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.ArbiterEnabled && c.ArbiterBaseURL == "" {
		return fmt.Errorf("arbiter is enabled but DEDUP_ARBITER_BASE_URL is not set")
	}
	return nil
}

// getEnvInt читает целочисленную переменную окружения
func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvFloat читает вещественную переменную окружения
func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvBool читает булеву переменную окружения
func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration читает переменную окружения с длительностью
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
