package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Server
	AppEnv      string `env:"APP_ENV,default=development"`
	Port        string `env:"PORT,default=8080"`
	CORSOrigins string `env:"CORS_ORIGINS,default=http://localhost:3000"`
	SentryDSN   string `env:"SENTRY_DSN"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	// Database
	DBHost     string `env:"DB_HOST,default=localhost"`
	DBPort     string `env:"DB_PORT,default=5432"`
	DBUser     string `env:"DB_USER,default=postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME,default=prompteon"`
	DBSSLMode  string `env:"DB_SSLMODE,default=disable"`

	// Session tokens
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY,default=15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY,default=168h"`

	// Shared rate-limit counters. Empty uses the in-process counter.
	RedisURL string `env:"REDIS_URL"`

	// Email (SMTP). Empty host logs messages instead of sending.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM"`

	// SMS providers, tried in this order.
	Fast2SMSAPIKey   string `env:"FAST2SMS_API_KEY"`
	Fast2SMSAPIURL   string `env:"FAST2SMS_API_URL,default=https://www.fast2sms.com/dev/bulkV2"`
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhone      string `env:"TWILIO_PHONE_NUMBER"`

	// AI provider (OpenAI-compatible chat completions)
	LLMAPIKey string        `env:"LLM_API_KEY"`
	LLMAPIURL string        `env:"LLM_API_URL,default=https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"`
	LLMModel  string        `env:"LLM_MODEL,default=gemini-2.5-flash"`
	AITimeout time.Duration `env:"AI_TIMEOUT,default=60s"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
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

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD environment variable is required")
	}
	return nil
}
