package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

type Config struct {
	AppName  string
	HTTPPort int
	Debug    bool
	LogLevel string

	StoreBackend string // memory or badger (in-memory mode)
	SeedFile     string // empty means the embedded seed list

	ScriptTimeout  time.Duration
	WSWriteTimeout time.Duration
}

func Load() *Config {
	return &Config{
		AppName:        getEnv("APP_NAME", "jobboard"),
		HTTPPort:       getEnvInt("HTTP_PORT", 8000),
		Debug:          getEnvBool("DEBUG", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StoreBackend:   getEnv("STORE_BACKEND", BackendMemory),
		SeedFile:       getEnv("SEED_FILE", ""),
		ScriptTimeout:  getEnvDuration("SCRIPT_TIMEOUT", 5),
		WSWriteTimeout: getEnvDuration("WS_WRITE_TIMEOUT", 5),
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendBadger:
	default:
		return fmt.Errorf("unknown store backend: %s", c.StoreBackend)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.HTTPPort)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}

// getEnvDuration reads a whole number of seconds.
func getEnvDuration(key string, fallbackSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackSeconds)) * time.Second
}
