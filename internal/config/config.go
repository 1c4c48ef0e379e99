package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/erazemk/inventar/internal/inventory"
)

// Prefix is prepended to every environment variable, e.g. INVENTAR_ADDR.
const Prefix = "INVENTAR"

// Config is the runtime configuration. Command-line flags override it.
type Config struct {
	DBPath        string `envconfig:"DB_PATH" default:"inventar.sqlite3"`
	Addr          string `envconfig:"ADDR" default:":8080"`
	LogPath       string `envconfig:"LOG_PATH"`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`

	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	LoginRate      float64       `envconfig:"LOGIN_RATE" default:"0.2"`
	LoginBurst     int           `envconfig:"LOGIN_BURST" default:"5"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	AutoApproveCheckOut bool `envconfig:"AUTO_APPROVE_CHECK_OUT" default:"true"`
	AutoApproveCheckIn  bool `envconfig:"AUTO_APPROVE_CHECK_IN" default:"true"`

	WebhookURL      string        `envconfig:"WEBHOOK_URL"`
	WebhookTimeout  time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
	WebhookRetries  int           `envconfig:"WEBHOOK_RETRIES" default:"3"`
	NotifyQueueSize int           `envconfig:"NOTIFY_QUEUE_SIZE" default:"256"`

	OverdueSchedule    string `envconfig:"OVERDUE_SCHEDULE" default:"0 * * * *"`
	LowStockSchedule   string `envconfig:"LOW_STOCK_SCHEDULE" default:"0 7 * * 1-5"`
	TokenPurgeSchedule string `envconfig:"TOKEN_PURGE_SCHEDULE" default:"@daily"`

	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"false"`
	OTLPEndpoint   string `envconfig:"OTLP_ENDPOINT" default:"localhost:4318"`
}

// Load reads variables from envFile (or ./.env when envFile is empty, if it
// exists) into the process environment and then decodes INVENTAR_* variables.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("database path must not be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	if c.LoginRate <= 0 || c.LoginBurst < 1 {
		return errors.New("login rate and burst must be positive")
	}
	if c.NotifyQueueSize < 1 {
		return errors.New("notification queue size must be at least 1")
	}
	return nil
}

// Policy returns the transaction approval policy.
func (c *Config) Policy() inventory.Policy {
	return inventory.Policy{
		AutoApproveCheckOut: c.AutoApproveCheckOut,
		AutoApproveCheckIn:  c.AutoApproveCheckIn,
	}
}
