package common

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Lookback window bounds surfaced to the operator (days).
const (
	MinLookbackDays = 1
	MaxLookbackDays = 90
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Mail     MailConfig
	Sync     SyncConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// MailConfig holds IMAP-related configuration
type MailConfig struct {
	ServerAddr  string // host:port, implicit TLS
	DialTimeout time.Duration
	MaxRetries  int
}

// SyncConfig holds sync-run configuration
type SyncConfig struct {
	DefaultLookbackDays int
	ProfilePath         string // optional JSON file with extra bank profiles
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Mail: MailConfig{
			ServerAddr:  getEnv("IMAP_ADDR", "imap.gmail.com:993"),
			DialTimeout: getEnvAsDuration("IMAP_DIAL_TIMEOUT", 10*time.Second),
			MaxRetries:  getEnvAsInt("IMAP_DIAL_RETRIES", 2),
		},
		Sync: SyncConfig{
			DefaultLookbackDays: getEnvAsInt("SYNC_LOOKBACK_DAYS", 30),
			ProfilePath:         getEnv("BANK_PROFILE_PATH", ""),
		},
	}
}

// ValidateLookback bounds the operator-supplied lookback window.
func ValidateLookback(days int) error {
	if days < MinLookbackDays || days > MaxLookbackDays {
		return fmt.Errorf("%w: lookback days must be between %d and %d, got %d",
			ErrInvalidInput, MinLookbackDays, MaxLookbackDays, days)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
