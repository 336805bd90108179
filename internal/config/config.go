package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App  AppConfig
	API  APIConfig
	Auth AuthConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
}

type APIConfig struct {
	BaseURL           string
	RequestTimeout    time.Duration
	StreamIdleTimeout time.Duration
	AskVersion        int // 1 or 2
	SessionCacheTTL   time.Duration
}

type AuthConfig struct {
	Token string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/chat.log"),
		},
		API: APIConfig{
			BaseURL:           getEnv("ASK_API_BASE_URL", "http://localhost:3000/api"),
			RequestTimeout:    getEnvAsDuration("ASK_REQUEST_TIMEOUT", 30*time.Second),
			StreamIdleTimeout: getEnvAsDuration("ASK_STREAM_IDLE_TIMEOUT", 90*time.Second),
			AskVersion:        getEnvAsInt("ASK_PROTOCOL_VERSION", 2),
			SessionCacheTTL:   getEnvAsDuration("SESSION_CACHE_TTL", 30*time.Second),
		},
		Auth: AuthConfig{
			Token: getEnv("ASK_API_TOKEN", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
