package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration.
type Config struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Env             string   `envconfig:"ENV" default:"dev"`
	CORSAllowOrigin []string `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:5173"`
	DatabaseURL     string   `envconfig:"DATABASE_URL"`

	ObjectStoreType string `envconfig:"OBJECT_STORE" default:"local"`
	LocalStoreDir   string `envconfig:"LOCAL_STORE_DIR" default:"./data"`
	AWSRegion       string `envconfig:"AWS_REGION"`
	S3Bucket        string `envconfig:"S3_BUCKET"`
	S3Prefix        string `envconfig:"S3_PREFIX"`

	LLMProvider     string `envconfig:"LLM_PROVIDER" default:"anthropic"`
	LLMModel        string `envconfig:"LLM_MODEL" default:"claude-sonnet-4-5-20250929"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	MaxUploadMiB    int64  `envconfig:"MAX_UPLOAD_MIB" default:"20"`

	// AnalyzingDeadline bounds how long a deck may sit in "analyzing"
	// before the reconciliation sweep force-fails it.
	AnalyzingDeadline time.Duration `envconfig:"ANALYZING_DEADLINE" default:"15m"`
	SweepSchedule     string        `envconfig:"SWEEP_SCHEDULE" default:"*/5 * * * *"`

	// CouncilRunTimeout bounds a single council run. It must stay below
	// AnalyzingDeadline so a run aborts itself before the sweeper reaps
	// its claim; Load clamps it if configured otherwise.
	CouncilRunTimeout time.Duration `envconfig:"COUNCIL_RUN_TIMEOUT" default:"10m"`
}

// Load reads configuration from environment variables, with a
// best-effort .env load for local development.
func Load() Config {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		log.Printf("config: %v", err)
	}
	c.Env = normalizeEnv(c.Env)
	c.ObjectStoreType = normalizeStoreType(c.ObjectStoreType)

	if c.Env == "production" && c.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	if c.AnalyzingDeadline > 0 && c.CouncilRunTimeout >= c.AnalyzingDeadline {
		clamped := c.AnalyzingDeadline - time.Minute
		if clamped <= 0 {
			clamped = c.AnalyzingDeadline / 2
		}
		log.Printf("COUNCIL_RUN_TIMEOUT %s is not below ANALYZING_DEADLINE %s; using %s",
			c.CouncilRunTimeout, c.AnalyzingDeadline, clamped)
		c.CouncilRunTimeout = clamped
	}
	return c
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
