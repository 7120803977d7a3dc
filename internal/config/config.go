package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	LogLevel    string
	DatabaseURL string
	MongoDB     string

	JWTSecret     string
	JWTExpire     time.Duration
	ResetTokenTTL time.Duration

	NewsAPIKey string
	NewsAPIURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiAPIKey  string

	SMTP SMTPConfig

	ClientURL      string
	AllowedOrigins []string

	AuthRateLimit float64
	AuthRateBurst int

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
}

type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromName  string
	FromEmail string
}

// Enabled reports whether outbound mail is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

var devOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:5174",
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil { // Load .env file if it exists
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		HTTPPort:    getEnv("PORT", "5000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", "newsbrief.db"),
		MongoDB:     getEnv("MONGO_DB", "newsbrief"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpire:     getEnvAsDuration("JWT_EXPIRE", 30*24*time.Hour),
		ResetTokenTTL: getEnvAsDuration("RESET_TOKEN_TTL", 10*time.Minute),

		NewsAPIKey: getEnv("NEWS_API_KEY", ""),
		NewsAPIURL: getEnv("NEWS_API_URL", "https://newsdata.io/api/1"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),

		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_HOST", ""),
			Port:      getEnvAsInt("SMTP_PORT", 587),
			User:      getEnv("SMTP_USER", ""),
			Password:  getEnv("SMTP_PASS", ""),
			FromName:  getEnv("FROM_NAME", "News Summarizer"),
			FromEmail: getEnv("FROM_EMAIL", ""),
		},

		ClientURL: strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:5173"), "/"),

		AuthRateLimit: getEnvAsFloat("AUTH_RATE_LIMIT", 10),
		AuthRateBurst: getEnvAsInt("AUTH_RATE_BURST", 20),
		TrustProxy:    getEnvAsBool("TRUST_PROXY", false),
	}

	cfg.AllowedOrigins = splitList(getEnv("CORS_ORIGINS", ""))
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = append([]string{cfg.ClientURL}, devOrigins...)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	if c.SMTP.Enabled() && c.SMTP.FromEmail == "" {
		errs = append(errs, errors.New("FROM_EMAIL is required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
