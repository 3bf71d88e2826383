package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort    string
	AppEnv     string
	AppVersion string
	LogLevel   string
	LogPretty  bool

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	PushProvider            string // "fcm" | "sns"
	FirebaseProjectID       string
	FirebaseCredentialsFile string
	SNSRegion               string

	JWTPublicKeyPath string
	AllowedOrigins   []string // CORS allowed origins

	// TrustProxyHeaders lets X-Forwarded-For / X-Real-Ip set the client IP.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool

	RetentionDays       int
	RetentionBatchLimit int
	SweepAt             string // HH:MM wall-clock time in SweepTimezone
	SweepTimezone       string

	StreamPollInterval    time.Duration
	StreamRefreshInterval time.Duration
	MetricsAddr           string

	OTELEnable      bool
	OTELEndpoint    string
	OTELSampleRatio float64
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Notifications string
	Profiles      string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:    getEnv("APP_PORT", "3000"),
		AppEnv:     getEnv("APP_ENV", "development"),
		AppVersion: getEnv("APP_VERSION", "dev"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnvBool("LOG_PRETTY", false),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Profiles:      getEnv("DYNAMO_TABLE_PROFILES", "profiles"),
		},

		PushProvider:            strings.ToLower(getEnv("PUSH_PROVIDER", "fcm")),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		SNSRegion:               getEnv("SNS_REGION", "us-east-1"),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		RetentionDays:       getEnvInt("RETENTION_DAYS", 30),
		RetentionBatchLimit: getEnvInt("RETENTION_BATCH_LIMIT", 500),
		SweepAt:             getEnv("SWEEP_AT", "03:00"),
		SweepTimezone:       getEnv("SWEEP_TIMEZONE", "America/New_York"),

		StreamPollInterval:    getEnvDuration("STREAM_POLL_INTERVAL", time.Second),
		StreamRefreshInterval: getEnvDuration("STREAM_REFRESH_INTERVAL", time.Minute),
		MetricsAddr:           getEnv("METRICS_ADDR", ":9090"),

		OTELEnable:      getEnvBool("OTEL_ENABLE", false),
		OTELEndpoint:    getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OTELSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1.0),
	}
}

// RetentionHorizon is the maximum age a notification may reach before it is swept.
func (c *Config) RetentionHorizon() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
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
