package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string

	// Media host (S3-compatible)
	MediaBucket   string
	MediaRegion   string
	MediaEndpoint string // empty for real AWS

	// Email
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPassword  string
	EmailFromName string
	EmailsEnabled bool

	FrontendURL   string
	SweepInterval time.Duration
}

func Load() *Config {
	// Missing .env is fine, env vars still apply.
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "quivio"),
		DBPassword: getEnv("DB_PASSWORD", "quivio_dev_password"),
		DBName:     getEnv("DB_NAME", "quivio"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),

		MediaBucket:   getEnv("MEDIA_BUCKET", "quivio-media"),
		MediaRegion:   getEnv("MEDIA_REGION", "us-east-1"),
		MediaEndpoint: getEnv("MEDIA_ENDPOINT", ""),

		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Quivio"),
		EmailsEnabled: getEnvBool("EMAILS_ENABLED", false),

		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
		SweepInterval: getEnvDuration("CAPSULE_SWEEP_INTERVAL", 60*time.Second),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
