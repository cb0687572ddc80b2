// Package config содержит логику чтения конфигурации сервиса drop4life.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress        = "localhost:8080"
	defaultDirectoryCacheTTL = 5 * time.Minute
)

// Config содержит параметры конфигурации сервиса drop4life.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DatabaseURI       string        `env:"DATABASE_URI"`
	RedisAddress      string        `env:"REDIS_ADDRESS"`
	DirectoryCacheTTL time.Duration `env:"DIRECTORY_CACHE_TTL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами. Адрес базы данных обязателен.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envRedisAddress := cfg.RedisAddress
	envCacheTTL := cfg.DirectoryCacheTTL

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address for directory cache, empty disables the cache")
	flag.DurationVar(&cfg.DirectoryCacheTTL, "t", defaultDirectoryCacheTTL, "directory cache TTL")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envRedisAddress != "" {
		cfg.RedisAddress = envRedisAddress
	}
	if envCacheTTL != 0 {
		cfg.DirectoryCacheTTL = envCacheTTL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.DatabaseURI == "" {
		return nil, errors.New("database URI is required: set DATABASE_URI or -d")
	}
	if cfg.DirectoryCacheTTL <= 0 {
		return nil, fmt.Errorf("directory cache TTL must be positive, got %s", cfg.DirectoryCacheTTL)
	}

	return cfg, nil
}
