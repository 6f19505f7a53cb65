package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Port           string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	PublicBaseURL  string
	AllowedOrigins []string

	AdminEmail    string
	AdminPassword string

	Mail    MailConfig
	Uploads UploadConfig

	DBTimeout         time.Duration
	NewsletterWorkers int
	MailRatePerSecond int
}

// MailConfig describes the outbound SMTP transport and per-form recipients.
type MailConfig struct {
	Enabled            bool
	Host               string
	Port               int
	User               string
	Password           string
	InsecureSkipVerify bool
	FromName           string
	Timeout            time.Duration

	ContactTo string
	PQRTo     string
	WorkTo    string
}

// UploadConfig selects where accepted files are written.
type UploadConfig struct {
	Backend     string // "disk" or "s3"
	Dir         string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	port := getEnv("PORT", "3000")
	mailUser := getEnv("MAIL_USER", "")

	cfg := &Config{
		Port:           port,
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:4200")),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		Mail: MailConfig{
			Enabled:            getEnvBool("MAIL_ENABLED", true),
			Host:               getEnv("SMTP_HOST", "localhost"),
			Port:               getEnvInt("SMTP_PORT", 465),
			User:               mailUser,
			Password:           getEnv("MAIL_PASS", ""),
			InsecureSkipVerify: getEnvBool("SMTP_INSECURE_SKIP_VERIFY", false),
			FromName:           getEnv("MAIL_FROM_NAME", "Conambiente"),
			Timeout:            getEnvDuration("MAIL_TIMEOUT", 15*time.Second),
			ContactTo:          getEnv("MAIL_TO_CONTACT_WITH_US", mailUser),
			PQRTo:              getEnv("MAIL_TO_PQR", mailUser),
			WorkTo:             getEnv("MAIL_TO_WORK_WITH_US", mailUser),
		},
		Uploads: UploadConfig{
			Backend:     getEnv("UPLOAD_BACKEND", "disk"),
			Dir:         getEnv("UPLOADS_DIR", "uploads"),
			S3Endpoint:  getEnv("S3_ENDPOINT", ""),
			S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("S3_SECRET_KEY", ""),
			S3Bucket:    getEnv("S3_BUCKET", ""),
		},
		DBTimeout:         getEnvDuration("DB_TIMEOUT", 5*time.Second),
		NewsletterWorkers: getEnvInt("NEWSLETTER_WORKERS", 1),
		MailRatePerSecond: getEnvInt("MAIL_RATE_PER_SECOND", 0),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.AdminEmail == "" || c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	switch c.Uploads.Backend {
	case "disk":
	case "s3":
		u := c.Uploads
		if u.S3Endpoint == "" || u.S3AccessKey == "" || u.S3SecretKey == "" || u.S3Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY and S3_BUCKET are required when UPLOAD_BACKEND=s3")
		}
	default:
		return fmt.Errorf("UPLOAD_BACKEND must be disk or s3, got %q", c.Uploads.Backend)
	}
	if c.NewsletterWorkers < 1 {
		c.NewsletterWorkers = 1
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
