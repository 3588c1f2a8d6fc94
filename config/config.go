package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string

	// Database
	DBURL          string
	DBHost         string
	DBPort         int
	DBName         string
	DBUsername     string
	DBPassword     string
	DBSecretID     string
	DBSSLDisabled  bool
	DBLogLevel     string
	DBMaxOpenConns int

	// Auth
	JWTSecret      string
	JWTExpiryHours int
	AdminUsername  string
	AdminPassword  string

	// Reminders
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioPhoneNumber  string
	TwilioWhatsApp     string
	ReminderCron       string
	ReminderWindowDays int

	// Events
	AMQPURL      string
	AMQPExchange string

	LogLevel string
	LogJSON  bool
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "5000"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		DBURL:          os.Getenv("DB_URL"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnvInt("DB_PORT", 5432),
		DBName:         getEnv("DB_NAME", "condofee"),
		DBUsername:     os.Getenv("DB_USERNAME"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBSecretID:     os.Getenv("DB_SECRET_ID"),
		DBSSLDisabled:  getEnvBool("DB_SSL_MODE_DISABLE", false),
		DBLogLevel:     getEnv("DB_LOG_LEVEL", "error"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 24),
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),

		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber:  os.Getenv("TWILIO_PHONE_NUMBER"),
		TwilioWhatsApp:     os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		ReminderCron:       getEnv("REMINDER_CRON", "0 9 * * *"),
		ReminderWindowDays: getEnvInt("REMINDER_WINDOW_DAYS", 3),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "condofee.events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),
	}
}

// Validate returns every configuration problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBURL == "" && c.DBHost == "" {
		errors = append(errors, "either DB_URL or DB_HOST must be provided")
	}
	if c.DBURL == "" && (c.DBPort < 1 || c.DBPort > 65535) {
		errors = append(errors, fmt.Sprintf("invalid database port %d: must be between 1 and 65535", c.DBPort))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.JWTExpiryHours < 1 {
		errors = append(errors, fmt.Sprintf("invalid JWT expiry %d: must be at least 1 hour", c.JWTExpiryHours))
	}

	if c.ReminderCron != "" {
		if _, err := cron.ParseStandard(c.ReminderCron); err != nil {
			errors = append(errors, fmt.Sprintf("invalid reminder schedule '%s': %v", c.ReminderCron, err))
		}
	}
	if c.ReminderWindowDays < 0 {
		errors = append(errors, fmt.Sprintf("invalid reminder window %d: cannot be negative", c.ReminderWindowDays))
	}
	if c.TwilioAccountSID != "" && c.TwilioPhoneNumber == "" {
		errors = append(errors, "TWILIO_PHONE_NUMBER is required when Twilio is configured")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// TwilioEnabled reports whether SMS reminders can be sent.
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
