package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Auction        AuctionConfig        `yaml:"auction"`
	Database       DatabaseConfig       `yaml:"database"`
	Server         ServerConfig         `yaml:"server"`
	Events         EventsConfig         `yaml:"events"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
	LeaderElection LeaderElectionConfig `yaml:"leader_election"`
}

// AuctionConfig holds auction engine settings.
type AuctionConfig struct {
	// TimerSeconds is how long a lot stays open without a new bid. The
	// countdown resets to this value on every accepted bid.
	TimerSeconds int `yaml:"timer_seconds"`
	// BidIncrementRate is the minimum raise over the standing bid,
	// expressed as a fraction (0.05 = 5%).
	BidIncrementRate float64 `yaml:"bid_increment_rate"`
	// MaxUnsoldPasses is how many times a lot that attracts no bids is
	// requeued at the back of the pool before being marked permanently
	// unsold.
	MaxUnsoldPasses int `yaml:"max_unsold_passes"`
}

// TimerDuration returns the per-lot countdown as a duration.
func (a AuctionConfig) TimerDuration() time.Duration {
	return time.Duration(a.TimerSeconds) * time.Second
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host" envconfig:"DB_HOST"`
	Port     int    `yaml:"port" envconfig:"DB_PORT"`
	User     string `yaml:"user" envconfig:"DB_USER"`
	Password string `yaml:"password" envconfig:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" envconfig:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	Driver   string `yaml:"driver" envconfig:"DB_DRIVER"` // "postgres" or "memory"
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"SERVER_PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AllowedOrigins is handed to the CORS middleware on the gateway.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// EventsConfig holds NATS relay settings.
type EventsConfig struct {
	// URL of the NATS server. Empty disables the relay; the gateway then
	// receives events in-process.
	URL string `yaml:"url" envconfig:"NATS_URL"`
	// SubjectPrefix is prepended to event subjects, producing subjects
	// like "<prefix>.<event type>".
	SubjectPrefix string `yaml:"subject_prefix"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" envconfig:"OTLP_ENDPOINT"`
	Insecure       bool   `yaml:"insecure"`
}

// LeaderElectionConfig holds Kubernetes leader election settings.
type LeaderElectionConfig struct {
	Enabled        bool          `yaml:"enabled"`
	LeaseName      string        `yaml:"lease_name"`
	LeaseNamespace string        `yaml:"lease_namespace"`
	LeaseDuration  time.Duration `yaml:"lease_duration"`
	RenewDeadline  time.Duration `yaml:"renew_deadline"`
	RetryPeriod    time.Duration `yaml:"retry_period"`
}

// Load reads a YAML configuration file from the given path and applies
// environment variable overrides (DB_*, NATS_URL, SERVER_PORT, ...).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Defaults()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		Auction: AuctionConfig{
			TimerSeconds:     15,
			BidIncrementRate: 0.05,
			MaxUnsoldPasses:  1,
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Driver:  "postgres",
		},
		Events: EventsConfig{
			SubjectPrefix: "auction.events",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "cricket-auctioneer",
			ServiceVersion: "0.1.0",
		},
		LeaderElection: LeaderElectionConfig{
			Enabled:        false,
			LeaseName:      "auctioneer-leader",
			LeaseNamespace: "default",
			LeaseDuration:  15 * time.Second,
			RenewDeadline:  10 * time.Second,
			RetryPeriod:    2 * time.Second,
		},
	}
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
		// valid
	default:
		return fmt.Errorf("unsupported database driver %q: must be \"postgres\" or \"memory\"", c.Database.Driver)
	}
	if c.Auction.TimerSeconds <= 0 {
		return fmt.Errorf("auction.timer_seconds must be positive, got %d", c.Auction.TimerSeconds)
	}
	if c.Auction.BidIncrementRate <= 0 || c.Auction.BidIncrementRate >= 1 {
		return fmt.Errorf("auction.bid_increment_rate must be in (0, 1), got %v", c.Auction.BidIncrementRate)
	}
	if c.Auction.MaxUnsoldPasses < 0 {
		return fmt.Errorf("auction.max_unsold_passes must not be negative, got %d", c.Auction.MaxUnsoldPasses)
	}
	return nil
}
