package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Identity provider tokens: JWKS when set, otherwise HS256 with JWTSecret.
	JWTSecret  string
	JWKSURL    string
	JWTIssuer  string
	WebhookKey string

	// AI Providers
	GLMAPIKey string
	GLMAPIURL string
	GLMModel  string

	DeepSeekAPIKey string
	DeepSeekAPIURL string
	DeepSeekModel  string

	AITimeout time.Duration

	// Export
	PDFRendererURL   string
	PDFRendererToken string
	PDFTimeout       time.Duration

	// Photos
	CloudinaryURL    string
	CloudinaryFolder string

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string
	CronSecret   string

	// Jobs
	LifecycleInterval time.Duration
	LogRetention      time.Duration

	// Server
	Port        string
	CORSOrigins string
	RateLimit   int
	LogLevel    string
	SentryDSN   string
	AppEnv      string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "resume_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWKSURL:    getEnv("JWKS_URL", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", ""),
		WebhookKey: getEnv("IDENTITY_WEBHOOK_SECRET", ""),

		GLMAPIKey: getEnv("GLM_API_KEY", ""),
		GLMAPIURL: getEnv("GLM_API_URL", "https://api.z.ai/api/paas/v4/chat/completions"),
		GLMModel:  getEnv("GLM_MODEL", "glm-5"),

		DeepSeekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekAPIURL: getEnv("DEEPSEEK_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		DeepSeekModel:  getEnv("DEEPSEEK_MODEL", "deepseek-chat"),

		AITimeout: parseDuration(getEnv("AI_TIMEOUT", "60s"), 60*time.Second),

		PDFRendererURL:   getEnv("PDF_RENDERER_URL", ""),
		PDFRendererToken: getEnv("PDF_RENDERER_TOKEN", ""),
		PDFTimeout:       parseDuration(getEnv("PDF_TIMEOUT", "30s"), 30*time.Second),

		CloudinaryURL:    getEnv("CLOUDINARY_URL", ""),
		CloudinaryFolder: getEnv("CLOUDINARY_FOLDER", "resumes/photos"),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),
		CronSecret:   getEnv("CRON_SECRET", ""),

		LifecycleInterval: parseDuration(getEnv("LIFECYCLE_INTERVAL", "1h"), time.Hour),
		LogRetention:      parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		RateLimit:   parseInt(getEnv("RATE_LIMIT", "60"), 60),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		AppEnv:      getEnv("APP_ENV", "development"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// parseDuration accepts "0" to mean disabled.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
