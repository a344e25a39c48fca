package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string
	SecretKey   string

	// SMTP settings for password-reset mail. When SMTPUser is empty the app
	// falls back to a logging mailer and never dials out.
	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	MailSender string

	// MaxUploadBytes bounds a single multipart upload request.
	MaxUploadBytes int64

	Migrations bool
	Seed       bool
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by user) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.SecretKey = getEnv("SECRET_KEY", "devsessionsecret")
	cfg.SMTPHost = getEnv("MAIL_SERVER", "smtp.gmail.com")
	cfg.SMTPPort = getEnvInt("MAIL_PORT", 587)
	cfg.SMTPUser = os.Getenv("MAIL_USERNAME")
	cfg.SMTPPass = os.Getenv("MAIL_PASSWORD")
	cfg.MailSender = getEnv("MAIL_SENDER", cfg.SMTPUser)
	cfg.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20))
	cfg.Migrations = ParseBool("MIGRATIONS", false)
	cfg.Seed = ParseBool("DB_SEED", false)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}
