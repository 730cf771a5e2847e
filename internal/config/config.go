package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	DefaultVertical string

	// Session storage
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	// Booking collaborator
	BookingProvider string // mock | portal | local
	PortalBaseURL   string
	PortalAPIKey    string
	DefaultSalonID  int
	BookingsDBPath  string

	// Idempotent commit gate
	IdempotencyWindow time.Duration

	// BankID identity verification
	BankIDMode       string // demo | real
	BankIDBaseURL    string
	BankIDClientCert string
	BankIDClientKey  string
	BankIDCACert     string

	// Notifications
	SMSProvider       string // mock | twilio
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromNumber  string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Email outbox worker
	OutboxDBPath       string
	OutboxPollInterval time.Duration
	OutboxMaxAttempts  int

	// HTTP surface
	CORSAllowedOrigins []string
	TurnRateLimit      float64
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DefaultVertical: getEnv("VERTICAL", "hair"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		BookingProvider: getEnv("BOOKING_PROVIDER", "mock"),
		PortalBaseURL:   getEnv("PORTAL_BASE", "http://127.0.0.1:8080"),
		PortalAPIKey:    getEnv("PORTAL_API_KEY", "change-me"),
		DefaultSalonID:  getEnvAsInt("DEFAULT_SALON_ID", 97),
		BookingsDBPath:  getEnv("BOOKINGS_DB_PATH", "bookings.db"),

		IdempotencyWindow: getEnvAsDuration("IDEMPOTENCY_WINDOW", 45*time.Second),

		BankIDMode:       getEnv("BANKID_MODE", "demo"),
		BankIDBaseURL:    getEnv("BANKID_BASE", "https://appapi2.test.bankid.com"),
		BankIDClientCert: getEnv("BANKID_CLIENT_CERT", ""),
		BankIDClientKey:  getEnv("BANKID_CLIENT_KEY", ""),
		BankIDCACert:     getEnv("BANKID_CA_CERT", ""),

		SMSProvider:       getEnv("SMS_PROVIDER", "mock"),
		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:  getEnv("TWILIO_FROM_NUMBER", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "noreply@example.com"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Bokningsservice"),

		OutboxDBPath:       getEnv("OUTBOX_DB_PATH", "outbox.db"),
		OutboxPollInterval: getEnvAsDuration("EMAIL_WORKER_POLL", 2*time.Second),
		OutboxMaxAttempts:  getEnvAsInt("EMAIL_MAX_ATTEMPTS", 10),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
		TurnRateLimit:      getEnvAsFloat("TURN_RATE_LIMIT", 10),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
