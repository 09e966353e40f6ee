// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables, optionally preloaded from a .env file. It provides a centralized
// Config struct used across the server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache and admin sessions). Empty host disables both.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Product images
	ImageDir string

	// Optional S3-compatible mirror for product images
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	// Optional RabbitMQ broker for accepted orders
	AMQPURL   string
	AMQPQueue string

	// Admin password as a bcrypt hash. Empty leaves admin routes open.
	AdminPasswordHash string

	ReconcileSchedule string

	// Requests per second (and burst) allowed per client on checkout and login.
	RateLimit float64
	RateBurst int

	LogFile  string
	LogLevel string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is loaded first if present; real environment variables win over it.
// Returns an error if critical values are missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "shopfront"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "shopfront"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		ImageDir: envOrDefault("IMAGE_DIR", "data/images"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),

		AMQPURL:   os.Getenv("AMQP_URL"),
		AMQPQueue: envOrDefault("AMQP_QUEUE", "orders"),

		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		ReconcileSchedule: envOrDefault("RECONCILE_SCHEDULE", "@every 10m"),

		LogFile:  os.Getenv("LOG_FILE"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RateLimit, err = strconv.ParseFloat(envOrDefault("RATE_LIMIT", "5"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT: %w", err)
	}
	if cfg.RateBurst, err = strconv.Atoi(envOrDefault("RATE_BURST", "10")); err != nil {
		return nil, fmt.Errorf("RATE_BURST: %w", err)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.AdminPasswordHash == "" {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH must be set in production")
		}
	}
	if cfg.AdminPasswordHash != "" && cfg.ValkeyHost == "" {
		return nil, fmt.Errorf("VALKEY_HOST is required when ADMIN_PASSWORD_HASH is set")
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AuthEnabled reports whether admin routes require a session.
func (c *Config) AuthEnabled() bool {
	return c.AdminPasswordHash != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
