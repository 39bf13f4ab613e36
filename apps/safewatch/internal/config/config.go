package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DbURL                 string
	KafkaBroker           string
	KafkaTopic            string
	APIPort               int
	PollIntervalSeconds   int
	FetchTimeoutSeconds   int
	MaxConcurrentMonitors int
	MaxNotifyAttempts     int
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	SMTPFrom              string
}

// NewConfig loads configuration from environment variables
func NewConfig() *Config {
	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	return &Config{
		DbURL:                 getEnvOrFatal("DB_URL"),
		KafkaBroker:           getEnv("KAFKA_BROKER", ""),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "safewatch.alerts"),
		APIPort:               getEnvInt("API_PORT", 8080),
		PollIntervalSeconds:   getEnvInt("POLL_INTERVAL_SECONDS", 60),
		FetchTimeoutSeconds:   getEnvInt("FETCH_TIMEOUT_SECONDS", 15),
		MaxConcurrentMonitors: getEnvInt("MAX_CONCURRENT_MONITORS", 4),
		MaxNotifyAttempts:     getEnvInt("MAX_NOTIFY_ATTEMPTS", 3),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnvInt("SMTP_PORT", 587),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:              getEnv("SMTP_FROM", "alerts@safewatch.local"),
	}
}

func getEnvOrFatal(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	log.Fatalf("Warning: environment variable %s not set", key)

	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
