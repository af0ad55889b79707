package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	ServiceName string
	HTTPPort    string

	DatabaseURL      string
	DBConnectRetries int
	DBConnectDelay   time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AccessTokenSecret  string
	RefreshTokenSecret string
	ActivationSecret   string
	ResetSecret        string

	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	SessionTTL         time.Duration
	ActivationTokenTTL time.Duration
	ResetTokenTTL      time.Duration
	ContentCacheTTL    time.Duration

	CookieDomain string
	CookieSecure bool

	FrontendURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	PaymentAPIURL         string
	PaymentSecretKey      string
	PaymentPublishableKey string

	VideoAPIURL    string
	VideoAPISecret string

	MediaUploadURL string
	MediaAPIKey    string

	AdminEmail    string
	AdminPassword string

	RateLimitRPM int

	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
}

// Load reads configuration from environment variables with sane defaults.
// Token signing secrets have no defaults: a missing secret is a startup error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		ServiceName: getEnv("SERVICE_NAME", "lerko-backend"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBConnectRetries: getInt("DB_CONNECT_RETRIES", 5),
		DBConnectDelay:   getDuration("DB_CONNECT_DELAY", 5*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		ActivationSecret:   os.Getenv("ACTIVATION_SECRET"),
		ResetSecret:        os.Getenv("RESET_SECRET"),

		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 3*24*time.Hour),
		SessionTTL:         getDuration("SESSION_TTL", 7*24*time.Hour),
		ActivationTokenTTL: getDuration("ACTIVATION_TOKEN_TTL", 5*time.Minute),
		ResetTokenTTL:      getDuration("RESET_TOKEN_TTL", 24*time.Hour),
		ContentCacheTTL:    getDuration("CONTENT_CACHE_TTL", 7*24*time.Hour),

		CookieDomain: os.Getenv("COOKIE_DOMAIN"),
		CookieSecure: getBool("COOKIE_SECURE", true),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_MAIL"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", os.Getenv("SMTP_MAIL")),

		PaymentAPIURL:         getEnv("PAYMENT_API_URL", "https://api.stripe.com/v1"),
		PaymentSecretKey:      os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentPublishableKey: os.Getenv("PAYMENT_PUBLISHABLE_KEY"),

		VideoAPIURL:    getEnv("VIDEO_API_URL", "https://dev.vdocipher.com/api"),
		VideoAPISecret: os.Getenv("VIDEO_API_SECRET"),

		MediaUploadURL: os.Getenv("MEDIA_UPLOAD_URL"),
		MediaAPIKey:    os.Getenv("MEDIA_API_KEY"),

		AdminEmail:    strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		RateLimitRPM: getInt("RATE_LIMIT_RPM", 400),

		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		CORSAllowedMethods: getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		CORSAllowedHeaders: getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	for name, secret := range map[string]string{
		"ACCESS_TOKEN_SECRET":  cfg.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET": cfg.RefreshTokenSecret,
		"ACTIVATION_SECRET":    cfg.ActivationSecret,
		"RESET_SECRET":         cfg.ResetSecret,
	} {
		if strings.TrimSpace(secret) == "" {
			return Config{}, fmt.Errorf("%s is required", name)
		}
	}

	// Rotation up to refresh expiry requires the session record to outlive
	// the refresh token.
	if cfg.RefreshTokenTTL > cfg.SessionTTL {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_TTL must not exceed SESSION_TTL")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
