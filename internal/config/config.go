package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	WarehousePath string

	RemotiveURL   string
	RemoteOKURL   string
	SourceTimeout time.Duration

	UseOllama     bool
	OllamaURL     string
	OllamaModel   string
	OllamaTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	OTELCollectorURL string
}

// LoadConfig reads settings from the environment, with a .env file (if
// present) loaded first. Missing keys fall back to defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		WarehousePath: getEnvString("WAREHOUSE_PATH", "./data/jobs.db"),

		RemotiveURL:   getEnvString("REMOTIVE_URL", "https://remotive.com/api/remote-jobs"),
		RemoteOKURL:   getEnvString("REMOTEOK_URL", "https://remoteok.com/api"),
		SourceTimeout: getEnvDuration("SOURCE_TIMEOUT", 30*time.Second),

		UseOllama:     getEnvBool("USE_OLLAMA", true),
		OllamaURL:     getEnvString("OLLAMA_URL", "http://localhost:11434/api/generate"),
		OllamaModel:   getEnvString("OLLAMA_MODEL", "llama3.1"),
		OllamaTimeout: getEnvDuration("OLLAMA_TIMEOUT", 120*time.Second),

		RedisAddr:     getEnvString("REDIS_ADDR", ""),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
	}

	return config, nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
