package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"lms/logger"
)

// Config holds application configuration
type Config struct {
	Port    string
	AppMode string
	AppName string

	DBDriver   string // postgres, mysql, sqlite
	DBDSN      string // overrides the host/user/... fields when set
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTKey      string
	JWTTTLHours int
	SaltRound   int

	CorsOrigins string

	QuizRetakePolicy string // latest, best

	SendgridAPIKey string
	EmailSender    string

	ReconcileCron string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Warn("no .env file found, using system environment variables")
	}

	AppConfig = &Config{
		Port:    getEnv("PORT", "5000"),
		AppMode: getEnv("APP_MODE", "dev"),
		AppName: getEnv("APP_NAME", "LMS"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBDSN:      getEnv("DB_DSN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "lms"),
		DBPort:     getEnv("DB_PORT", "5432"),

		JWTKey:      getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),
		SaltRound:   getEnvInt("SALT_ROUND", 10),

		CorsOrigins: getEnv("CORS_ORIGINS", "*"),

		QuizRetakePolicy: strings.ToLower(getEnv("QUIZ_RETAKE_POLICY", "latest")),

		SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@lms.local"),

		ReconcileCron: getEnv("RECONCILE_CRON", "30 3 * * *"),
	}

	if AppConfig.JWTKey == "defaultSecret" {
		logger.Log.Warn("using default JWT_SECRET_KEY, update it in your environment")
	}
	if AppConfig.QuizRetakePolicy != "latest" && AppConfig.QuizRetakePolicy != "best" {
		logger.Log.Warn("unknown QUIZ_RETAKE_POLICY, falling back to latest", "value", AppConfig.QuizRetakePolicy)
		AppConfig.QuizRetakePolicy = "latest"
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		logger.Log.Warn("invalid integer in environment", "key", key, "error", err)
		return defaultValue
	}
	return intValue
}
