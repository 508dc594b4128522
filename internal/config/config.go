package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pubsub"
)

// Config holds all configuration for the application.
type Config struct {
	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`

	SessionTTL      time.Duration `validate:"gt=0"`
	ReclaimInterval time.Duration `validate:"gte=0"`
	MaxHops         int           `validate:"gte=1,lte=1000"`
	TurnTimeout     time.Duration `validate:"gte=0"`

	FallbackTopic   string
	FallbackMessage string `validate:"required_with=FallbackTopic"`
	EndTopic        string `validate:"required"`

	AdminAddr        string `validate:"required"`
	MetricsNamespace string `validate:"required"`

	NLGTemplatesPath string
	NLGHotReload     bool

	ScriptsDir           string
	TranscriptMaxEntries int `validate:"gte=0"`

	Tracing pubsub.TracingConfig
}

// New loads configuration from a .env file (if present) and environment variables.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return Load()
}

// Load reads configuration from environment variables only.
func Load() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		LogFormat:        p.str("LOG_FORMAT", "text"),
		LogLevel:         p.str("LOG_LEVEL", "info"),
		SessionTTL:       p.duration("SESSION_TTL", 5*time.Minute),
		ReclaimInterval:  p.duration("RECLAIM_INTERVAL", 5*time.Minute),
		MaxHops:          p.integer("MAX_HOPS", 32),
		TurnTimeout:      p.duration("TURN_TIMEOUT", 10*time.Second),
		FallbackTopic:    p.str("FALLBACK_TOPIC", "sys_utterance"),
		FallbackMessage:  p.str("FALLBACK_MESSAGE", "Entschuldigung, da ist etwas schiefgelaufen. Bitte versuche es noch einmal."),
		EndTopic:         p.str("END_TOPIC", "sys_end_dialog"),
		AdminAddr:        p.str("ADMIN_ADDR", ":8080"),
		MetricsNamespace: p.str("METRICS_NAMESPACE", "dialog"),
		NLGTemplatesPath: p.str("NLG_TEMPLATES_PATH", ""),
		NLGHotReload:     p.boolean("NLG_HOT_RELOAD", false),

		ScriptsDir:           p.str("SCRIPTS_DIR", ""),
		TranscriptMaxEntries: p.integer("TRANSCRIPT_MAX_ENTRIES", 200),

		Tracing: pubsub.TracingConfig{
			Enabled:        p.boolean("PUBSUB_TRACING_ENABLED", false),
			ServiceName:    p.str("PUBSUB_TRACING_SERVICE_NAME", "dialog-service"),
			ServiceVersion: p.str("PUBSUB_TRACING_SERVICE_VERSION", ""),
			ZipkinURL:      p.str("PUBSUB_TRACING_ZIPKIN_URL", "http://localhost:9411/api/v2/spans"),
			SampleRatio:    p.float("PUBSUB_TRACING_SAMPLE_RATIO", 1),
		},
	}

	if p.err != nil {
		return nil, p.err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parser reads typed values and keeps the first parse error.
type parser struct {
	err error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
}
