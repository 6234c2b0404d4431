package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module loads configuration once at startup.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Config is the full runtime configuration, sourced from the environment
// with an optional .env file for local development.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	LogLevel       string

	HTTPAddr    string
	DatabaseURL string
	MediaRoot   string

	StripeWebhookSecret string

	SMTPAddr      string
	SMTPUsername  string
	SMTPPassword  string
	EmailFrom     string
	EmailsEnabled bool

	TracingEnabled       bool
	OTLPEndpoint         string
	OTLPProtocol         string
	TracingSamplingRatio float64
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceName:    envOr("SERVICE_NAME", "brandforge"),
		ServiceVersion: envOr("SERVICE_VERSION", "dev"),
		Environment:    envOr("ENVIRONMENT", "development"),
		LogLevel:       envOr("LOG_LEVEL", ""),

		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		DatabaseURL: envOr("DATABASE_URL", "file:brandforge.db?_pragma=foreign_keys(1)"),
		MediaRoot:   envOr("MEDIA_ROOT", "media"),

		StripeWebhookSecret: envOr("STRIPE_WEBHOOK_SECRET", ""),

		SMTPAddr:      envOr("SMTP_ADDR", ""),
		SMTPUsername:  envOr("SMTP_USERNAME", ""),
		SMTPPassword:  envOr("SMTP_PASSWORD", ""),
		EmailFrom:     envOr("EMAIL_FROM", "no-reply@brandforge.io"),
		EmailsEnabled: envBool("EMAILS_ENABLED", false),

		TracingEnabled: envBool("TRACING_ENABLED", false),
		OTLPEndpoint:   envOr("OTLP_ENDPOINT", ""),
		OTLPProtocol:   envOr("OTLP_PROTOCOL", "grpc"),
	}

	ratio, err := strconv.ParseFloat(envOr("TRACING_SAMPLING_RATIO", "0.1"), 64)
	if err != nil {
		return Config{}, err
	}
	cfg.TracingSamplingRatio = ratio

	return cfg, nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
