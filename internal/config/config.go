package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Logging
	LogLevel string

	// Database
	DatabaseURL    string
	StorageBackend string // "postgres" | "memory"

	// Redis
	RedisURL string

	// Identity
	JWTSecret string

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Pipeline
	TempDir            string
	WorkerCount        int
	SegmentCount       int
	SegmentSeconds     int
	FilterMinKeepRatio float64

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		Env:            getEnvOrDefault("ENV", "development"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		StorageBackend: getEnvOrDefault("STORAGE_BACKEND", "postgres"),
		RedisURL:       mustGetEnv("REDIS_URL"),
		JWTSecret:      mustGetEnv("JWT_SECRET"),
		OpenAIAPIKey:   mustGetEnv("OPENAI_API_KEY"),
		OpenAIModel:    getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),

		TempDir:            getEnvOrDefault("TEMP_DIR", "./temp"),
		WorkerCount:        getEnvAsIntOrDefault("WORKER_COUNT", 3),
		SegmentCount:       getEnvAsIntOrDefault("SEGMENT_COUNT", 3),
		SegmentSeconds:     getEnvAsIntOrDefault("SEGMENT_SECONDS", 180),
		FilterMinKeepRatio: getEnvAsFloatOrDefault("FILTER_MIN_KEEP_RATIO", 0.3),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.StorageBackend == "postgres" {
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
