// Package config loads tipjar settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the client configuration
type Config struct {
	// Network is the chain environment, "mainnet" or "testnet"
	Network  string         `yaml:"network" validate:"oneof=mainnet testnet"`
	API      APIConfig      `yaml:"api"`
	EVM      EVMConfig      `yaml:"evm"`
	Solana   SolanaConfig   `yaml:"solana"`
	Prices   PricesConfig   `yaml:"prices"`
	Recorder RecorderConfig `yaml:"recorder"`
	Donation DonationConfig `yaml:"donation"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// APIConfig points at the tipjar backend
type APIConfig struct {
	URL     string        `yaml:"url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// EVMConfig defines Ethereum RPC settings. Empty RPC uses the official endpoint for the network.
type EVMConfig struct {
	RPC           string   `yaml:"rpc" validate:"omitempty,url"`
	FallbackRPCs  []string `yaml:"fallback_rpcs,omitempty" validate:"dive,url"`
	Confirmations uint64   `yaml:"confirmations" validate:"gte=1"`
}

// SolanaConfig defines Solana RPC settings. Empty RPC uses the official endpoint for the network.
type SolanaConfig struct {
	RPC          string   `yaml:"rpc" validate:"omitempty,url"`
	FallbackRPCs []string `yaml:"fallback_rpcs,omitempty" validate:"dive,url"`
}

// PricesConfig tunes the price oracle
type PricesConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"gt=0"`
	FreshnessWindow time.Duration `yaml:"freshness_window" validate:"gtfield=RefreshInterval"`
}

// RecorderConfig tunes the donation recorder
type RecorderConfig struct {
	QueueSize int `yaml:"queue_size" validate:"gte=1"`
}

// DonationConfig holds amount step settings
type DonationConfig struct {
	PresetsUSD []float64 `yaml:"presets_usd" validate:"min=1,dive,gt=0"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set
type MetricsConfig struct {
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// Load reads configuration from path on top of Defaults
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Defaults when path does not exist
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Defaults(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes configuration to path
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks every field against its constraints
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// EVMEndpoints returns the configured EVM RPC endpoints in priority order
func (c *Config) EVMEndpoints() []string {
	return endpoints(c.EVM.RPC, c.EVM.FallbackRPCs)
}

// SolanaEndpoints returns the configured Solana RPC endpoints in priority order
func (c *Config) SolanaEndpoints() []string {
	return endpoints(c.Solana.RPC, c.Solana.FallbackRPCs)
}

func endpoints(primary string, fallbacks []string) []string {
	var out []string
	if primary != "" {
		out = append(out, primary)
	}
	return append(out, fallbacks...)
}

// Path returns the config file path inside home
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default tipjar home directory
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tipjar"
	}
	return filepath.Join(home, ".tipjar")
}
