package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreBackendFile   = "file"
	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory"
)

// Config aggregates runtime configuration for the console.
type Config struct {
	App     AppConfig
	API     APIConfig
	Store   StoreConfig
	Redis   RedisConfig
	Logger  LoggerConfig
	Session SessionConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// APIConfig describes the remote lending API.
type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
	MaxBodyBytes   int64
}

// StoreConfig selects where the credential and preferences are persisted.
type StoreConfig struct {
	Backend string
	Path    string
	// SealKey is an optional base64 encoded 32 byte key used to seal file values.
	SealKey string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SessionConfig tunes session state behavior.
type SessionConfig struct {
	EnrichTimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "library-console"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "4200"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		API: APIConfig{
			BaseURL:        strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3000/api"), "/"),
			TimeoutSeconds: getEnvAsInt("API_TIMEOUT_SECONDS", 15),
			MaxBodyBytes:   int64(getEnvAsInt("API_MAX_BODY_BYTES", 10<<20)),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreBackendFile)),
			Path:    getEnv("STORE_PATH", "library-console.json"),
			SealKey: os.Getenv("STORE_SEAL_KEY"),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			Namespace: getEnv("REDIS_NAMESPACE", "library-console"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			EnrichTimeoutSeconds: getEnvAsInt("SESSION_ENRICH_TIMEOUT_SECONDS", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendFile, StoreBackendRedis, StoreBackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.Store.Backend)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.Store.SealKey != "" {
		if _, err := c.Store.Key(); err != nil {
			return err
		}
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the outbound call timeout.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Key decodes the sealing key. A nil key means values are stored in the clear.
func (s StoreConfig) Key() (*[32]byte, error) {
	if s.SealKey == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s.SealKey)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_SEAL_KEY: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("invalid STORE_SEAL_KEY: want 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

// EnrichTimeout bounds the background profile fetch after login.
func (s SessionConfig) EnrichTimeout() time.Duration {
	if s.EnrichTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.EnrichTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
