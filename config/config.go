package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete guardian configuration.
type Config struct {
	Guardian GuardianConfig `json:"guardian" yaml:"guardian"`
	Gateway  GatewayConfig  `json:"gateway" yaml:"gateway"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Health   HealthConfig   `json:"health" yaml:"health"`
}

// GuardianConfig holds the enforcement parameters.
type GuardianConfig struct {
	// MaxLoss is the daily loss ceiling in account-currency units. Must be
	// negative; P&L at or below it trips the block.
	MaxLoss float64 `json:"max_loss" yaml:"max_loss"`

	// ResetHour/ResetMinute schedule the daily reset boundary.
	ResetHour   int `json:"reset_hour" yaml:"reset_hour"`
	ResetMinute int `json:"reset_minute" yaml:"reset_minute"`

	// Poll cadences per enforcement mode.
	NormalInterval Duration `json:"normal_interval" yaml:"normal_interval"`
	BlockInterval  Duration `json:"block_interval" yaml:"block_interval"`

	// SymbolFilter restricts monitoring to one symbol. Empty means all.
	SymbolFilter string `json:"symbol_filter,omitempty" yaml:"symbol_filter,omitempty"`
}

// GatewayConfig describes the MT5 bridge connection.
type GatewayConfig struct {
	BridgeURL string `json:"bridge_url" yaml:"bridge_url"`
	Token     string `json:"token,omitempty" yaml:"token,omitempty"`

	ReconnectDelay    Duration `json:"reconnect_delay" yaml:"reconnect_delay"`
	ReconnectBackoff  float64  `json:"reconnect_backoff" yaml:"reconnect_backoff"`
	MaxReconnectTries int      `json:"max_reconnect_tries" yaml:"max_reconnect_tries"`
}

// JournalConfig selects the action-log backend.
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "csv" or "sqlite"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// HealthConfig controls the health/status HTTP endpoint.
type HealthConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON), applies
// environment overrides, and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadEnv builds a config from defaults plus environment variables only. A
// .env file next to the working directory is honored when present.
func LoadEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays SENTINEL_* environment variables onto the config.
func (c *Config) applyEnv() {
	if v, ok := envFloat("SENTINEL_MAX_LOSS"); ok {
		c.Guardian.MaxLoss = v
	}
	if v, ok := envInt("SENTINEL_RESET_HOUR"); ok {
		c.Guardian.ResetHour = v
	}
	if v, ok := envInt("SENTINEL_RESET_MINUTE"); ok {
		c.Guardian.ResetMinute = v
	}
	if v, ok := envDuration("SENTINEL_NORMAL_INTERVAL"); ok {
		c.Guardian.NormalInterval = Duration(v)
	}
	if v, ok := envDuration("SENTINEL_BLOCK_INTERVAL"); ok {
		c.Guardian.BlockInterval = Duration(v)
	}
	if v := os.Getenv("SENTINEL_SYMBOL_FILTER"); v != "" {
		c.Guardian.SymbolFilter = v
	}
	if v := os.Getenv("SENTINEL_BRIDGE_URL"); v != "" {
		c.Gateway.BridgeURL = v
	}
	if v := os.Getenv("SENTINEL_BRIDGE_TOKEN"); v != "" {
		c.Gateway.Token = v
	}
	if v := os.Getenv("SENTINEL_JOURNAL_TYPE"); v != "" {
		c.Journal.Type = v
	}
	if v := os.Getenv("SENTINEL_JOURNAL_DIR"); v != "" {
		c.Journal.Dir = v
	}
	if v := os.Getenv("SENTINEL_JOURNAL_DB"); v != "" {
		c.Journal.DBPath = v
	}
	if v := os.Getenv("SENTINEL_HEALTH_ADDR"); v != "" {
		c.Health.Enabled = true
		c.Health.Addr = v
	}
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Validate checks if the configuration is valid. A guardian must refuse to
// enforce with an invalid config rather than run with a no-op threshold.
func (c *Config) Validate() error {
	if c.Guardian.MaxLoss >= 0 {
		return fmt.Errorf("guardian.max_loss must be negative, got %v", c.Guardian.MaxLoss)
	}
	if c.Guardian.ResetHour < 0 || c.Guardian.ResetHour > 23 {
		return fmt.Errorf("guardian.reset_hour must be 0-23, got %d", c.Guardian.ResetHour)
	}
	if c.Guardian.ResetMinute < 0 || c.Guardian.ResetMinute > 59 {
		return fmt.Errorf("guardian.reset_minute must be 0-59, got %d", c.Guardian.ResetMinute)
	}
	if c.Guardian.NormalInterval <= 0 {
		return fmt.Errorf("guardian.normal_interval must be positive")
	}
	if c.Guardian.BlockInterval <= 0 {
		return fmt.Errorf("guardian.block_interval must be positive")
	}
	if c.Gateway.ReconnectDelay <= 0 {
		return fmt.Errorf("gateway.reconnect_delay must be positive")
	}
	if c.Gateway.ReconnectBackoff < 1 {
		return fmt.Errorf("gateway.reconnect_backoff must be >= 1")
	}
	if c.Gateway.MaxReconnectTries <= 0 {
		return fmt.Errorf("gateway.max_reconnect_tries must be positive")
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal.dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite', got %q", c.Journal.Type)
	}
	if c.Health.Enabled && !strings.Contains(c.Health.Addr, ":") {
		return fmt.Errorf("health.addr must be host:port, got %q", c.Health.Addr)
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Default returns a configuration with the stock enforcement parameters.
func Default() *Config {
	return &Config{
		Guardian: GuardianConfig{
			MaxLoss:        -300,
			ResetHour:      4,
			ResetMinute:    0,
			NormalInterval: Duration(5 * time.Second),
			BlockInterval:  Duration(500 * time.Millisecond),
		},
		Gateway: GatewayConfig{
			BridgeURL:         "http://127.0.0.1:8077",
			ReconnectDelay:    Duration(5 * time.Second),
			ReconnectBackoff:  1.5,
			MaxReconnectTries: 10,
		},
		Journal: JournalConfig{
			Type: "csv",
			Dir:  "./logs",
		},
		Health: HealthConfig{
			Enabled: false,
			Addr:    ":8765",
		},
	}
}
