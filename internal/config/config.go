package config

import (
	"os"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// TokenSecret is the server-wide HMAC signing key for bearer tokens.
	// Read once at startup and injected into the codec; never mutated after.
	TokenSecret string

	// Session lifetimes. Defaults: standard ~360 days, temporary 10 minutes.
	SessionLifetime     time.Duration
	TempSessionLifetime time.Duration

	// OTPLifetime bounds how long a recovery operation stays usable.
	OTPLifetime time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users      string
	Admins     string
	Sessions   string
	Operations string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:      getEnv("DYNAMO_TABLE_USERS", "users"),
			Admins:     getEnv("DYNAMO_TABLE_ADMINS", "admins"),
			Sessions:   getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Operations: getEnv("DYNAMO_TABLE_OPERATIONS", "recovery_operations"),
		},

		TokenSecret: getEnv("TOKEN_SECRET", ""),

		SessionLifetime:     getEnvDuration("SESSION_LIFETIME", 360*24*time.Hour),
		TempSessionLifetime: getEnvDuration("TEMP_SESSION_LIFETIME", 10*time.Minute),
		OTPLifetime:         getEnvDuration("OTP_LIFETIME", 15*time.Minute),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
