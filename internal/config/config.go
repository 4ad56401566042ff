// Package config provides centralized configuration for the inscription
// planner daemon (network, storage, fees, listen address). The planner
// package keeps its own dust, postage and service-fee constants, and the
// cmd binaries carry their own flag defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Network
// =============================================================================

// NetworkType selects the chaincfg network used for address parsing.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Config
// =============================================================================

// Config holds all configuration for the inscribed daemon.
type Config struct {
	// Network selects mainnet or testnet address/script parameters.
	Network NetworkType `yaml:"network"`

	// Storage holds the inscription index database location.
	Storage StorageConfig `yaml:"storage"`

	// RPC configures the JSON-RPC HTTP surface.
	RPC RPCConfig `yaml:"rpc"`

	// Collaborator configures the upstream chain view.
	Collaborator CollaboratorConfig `yaml:"collaborator"`

	// Fees holds the default fee and postage parameters applied when a
	// request does not override them.
	Fees FeeConfig `yaml:"fees"`

	// Logging configures the daemon's structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig configures the SQLite-backed inscription index.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// RPCConfig configures the JSON-RPC HTTP server.
type RPCConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CollaboratorConfig configures the upstream mempool.space-protocol view.
type CollaboratorConfig struct {
	BaseURL string `yaml:"base_url"`
}

// FeeConfig holds the default fee-related parameters (§4.1, §4.4-4.6).
type FeeConfig struct {
	// DefaultFeeRateSatsPerVbyte is used when a request omits fee_rate.
	DefaultFeeRateSatsPerVbyte float64 `yaml:"default_fee_rate_sats_per_vbyte"`

	// TargetPostage is the default sat value carried on inscribed outputs.
	TargetPostage uint64 `yaml:"target_postage"`

	// ServiceFeePerItem is the flat per-mint operator fee, waived for
	// whitelisted sources.
	ServiceFeePerItem uint64 `yaml:"service_fee_per_item"`

	// ServiceFeeAddress receives the accumulated service fee.
	ServiceFeeAddress string `yaml:"service_fee_address"`
}

// LoggingConfig configures the daemon's structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Network: Mainnet,
		Storage: StorageConfig{
			DataDir: "~/.inscribed",
		},
		RPC: RPCConfig{
			ListenAddr:     "127.0.0.1:8332",
			AllowedOrigins: []string{"*"},
		},
		Collaborator: CollaboratorConfig{
			BaseURL: "https://mempool.space/api",
		},
		Fees: FeeConfig{
			DefaultFeeRateSatsPerVbyte: 1.0,
			TargetPostage:              10_000,
			ServiceFeePerItem:          3_000,
			ServiceFeeAddress:          "",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// ConfigFileName is the default config file name.
const ConfigFileName = "config.yaml"

// LoadConfig loads configuration from a YAML file under dataDir. If the
// file doesn't exist, it creates one with default values.
func LoadConfig(dataDir string) (*Config, error) {
	expandedDir := expandPath(dataDir)
	configPath := filepath.Join(expandedDir, ConfigFileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.Storage.DataDir = dataDir

		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file at path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	header := []byte("# inscribed daemon configuration\n# generated automatically on first run\n\n")
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// IsTestnet reports whether the configured network is testnet.
func (c *Config) IsTestnet() bool {
	return c.Network == Testnet
}

func expandPath(p string) string {
	if p == "" {
		return "./data"
	}
	if p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
