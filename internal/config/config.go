package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig returns host, port, user, password, database name
func DatabaseConfig() (string, string, string, string, string) {
	host := GetEnv("DB_HOST", "localhost")
	port := GetEnv("DB_PORT", "5432")
	user := GetEnv("DB_USER", "postgres")
	password := GetEnv("DB_PASS", "")
	name := GetEnv("DB_NAME", "reminders")
	return host, port, user, password, name
}

// RedisConfig returns host, port, password
func RedisConfig() (string, string, string) {
	host := GetEnv("R_HOST", "redis")
	port := GetEnv("R_PORT", "6379")
	password := GetEnv("R_PASS", "")
	return host, port, password
}

// MailerConfig returns which mailer backend to use ("smtp" or "api")
// and the display name used in the From header.
func MailerConfig() (string, string) {
	backend := GetEnv("MAILER", "smtp")
	fromName := GetEnv("EMAIL_FROM_NAME", "SmartReminder")
	return backend, fromName
}

// SMTPConfig returns host, port, user, password for the SMTP backend.
// User and password may be empty; the mailer treats that as unconfigured.
func SMTPConfig() (string, int, string, string) {
	host := GetEnv("SMTP_HOST", "smtp.gmail.com")
	port, err := strconv.Atoi(GetEnv("SMTP_PORT", "587"))
	if err != nil {
		port = 587
	}
	user := GetEnv("EMAIL_USER", "")
	password := GetEnv("EMAIL_PASS", "")
	return host, port, user, password
}

// APIMailerConfig returns endpoint URL and API key for the HTTP backend.
func APIMailerConfig() (string, string) {
	url := GetEnv("MAIL_API_URL", "")
	key := GetEnv("MAIL_API_KEY", "")
	return url, key
}

// SchedulerInterval returns the scan interval. Values are whole seconds,
// matching the SCHEDULER_INTERVAL knob of the deployment environment.
func SchedulerInterval() time.Duration {
	seconds, err := strconv.Atoi(GetEnv("SCHEDULER_INTERVAL", "60"))
	if err != nil || seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}

// Timezone returns the reference zone used to interpret wall-clock input.
// Falls back to UTC when the name does not resolve.
func Timezone() *time.Location {
	name := GetEnv("TZ", "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetEnv retrieves values from environment files based on the key it matches,
// returns a string (value) if not empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
