package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Application
	Env        string
	AppVersion string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (poll lease)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Backup engine
	PollSpec    string // robfig/cron spec for the run-due poll
	PollLockTTL time.Duration
	PollLockKey string
	SendTimeout time.Duration // delivery collaborator boundary timeout

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Backup S3 (S3-compatible endpoint behind the "firebase" provider route)
	BackupS3Endpoint        string
	BackupS3Region          string
	BackupS3AccessKeyID     string
	BackupS3SecretAccessKey string
	BackupS3UsePathStyle    bool
	BackupBucket            string

	// Logging
	LogDir   string
	LogLevel string
}

func New() *Config {
	return &Config{
		// Application
		Env:        getEnv("ENV", "development"),
		AppVersion: getEnv("APP_VERSION", "dev"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "aerozone"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "aerozone_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Backup engine
		PollSpec:    getEnv("BACKUP_POLL_SPEC", "@every 1m"),
		PollLockTTL: getEnvAsDuration("BACKUP_POLL_LOCK_TTL", "10m"),
		PollLockKey: getEnv("BACKUP_POLL_LOCK_KEY", "aerozone:backup:poll"),
		SendTimeout: getEnvAsDuration("BACKUP_SEND_TIMEOUT", "2m"),

		// SMTP
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "backups@aerozone.app"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "AeroZone Backups"),

		// Backup S3
		BackupS3Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		BackupS3Region:          getEnv("BACKUP_S3_REGION", "us-east-1"),
		BackupS3AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		BackupS3SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		BackupS3UsePathStyle:    getEnv("BACKUP_S3_USE_PATH_STYLE", "true") == "true",
		BackupBucket:            getEnv("BACKUP_BUCKET", "aerozone-backups"),

		// Logging
		LogDir:   getEnv("LOG_DIR", "logs"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}
