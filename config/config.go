package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/soltip/soltip/logx"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const (
	NetworkDevnet      = "devnet"
	NetworkTestnet     = "testnet"
	NetworkMainnetBeta = "mainnet-beta"
	NetworkLocalnet    = "localnet"

	DefaultListen      = "127.0.0.1:8080"
	DefaultReceiptsDir = "./data/receipts"
	DefaultStoreType   = "leveldb"
)

var networkEndpoints = map[string]string{
	NetworkDevnet:      rpc.DevNet_RPC,
	NetworkTestnet:     rpc.TestNet_RPC,
	NetworkMainnetBeta: rpc.MainNetBeta_RPC,
	NetworkLocalnet:    rpc.LocalNet_RPC,
}

// Default returns the configuration used when no file is given: devnet,
// confirmed commitment, no wallets.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads and parses the soltip.yml file
func LoadConfig(path string) (*AppConfig, error) {
	logx.Info("CONFIG", "LoadConfig called with path: ", path)
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, fmt.Errorf("failed to decode YAML %s: %w", path, err)
	}

	cfg := &cfgFile.Config
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	logx.Info("CONFIG", fmt.Sprintf("Loaded config: network=%s endpoint=%s wallets=%d", cfg.Cluster.Network, cfg.Cluster.Endpoint, len(cfg.Wallets.Adapters)))
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Cluster.Network == "" && c.Cluster.Endpoint == "" {
		c.Cluster.Network = NetworkDevnet
	}
	if c.Cluster.Endpoint == "" {
		c.Cluster.Endpoint = networkEndpoints[c.Cluster.Network]
	}
	if c.Cluster.Commitment == "" {
		c.Cluster.Commitment = string(rpc.CommitmentConfirmed)
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Store.Type == "" {
		c.Store.Type = DefaultStoreType
	}
	if c.Store.ReceiptsDir == "" {
		c.Store.ReceiptsDir = DefaultReceiptsDir
	}
}

func (c *AppConfig) Validate() error {
	if c.Cluster.Endpoint == "" {
		return fmt.Errorf("unknown cluster network %q and no endpoint", c.Cluster.Network)
	}
	switch rpc.CommitmentType(c.Cluster.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("unsupported commitment %q", c.Cluster.Commitment)
	}

	seen := make(map[string]bool, len(c.Wallets.Adapters))
	for _, w := range c.Wallets.Adapters {
		if w.Name == "" {
			return fmt.Errorf("wallet adapter without name")
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate wallet adapter %q", w.Name)
		}
		seen[w.Name] = true
	}
	if c.Wallets.Default != "" && !seen[c.Wallets.Default] {
		return fmt.Errorf("default wallet %q is not configured", c.Wallets.Default)
	}
	return nil
}

// Commitment returns the configured commitment level
func (c *AppConfig) Commitment() rpc.CommitmentType {
	return rpc.CommitmentType(c.Cluster.Commitment)
}

type UIConfig struct {
	StatusResetMs int `ini:"status_reset_ms"`
}

type ConfirmConfig struct {
	PollIntervalMs int `ini:"poll_interval_ms"`
}

type RateLimitConfig struct {
	MaxRequests int `ini:"max_requests"`
	WindowMs    int `ini:"window_ms"`
}

// Tuning holds the timing knobs read from tuning.ini
type Tuning struct {
	UI        UIConfig
	Confirm   ConfirmConfig
	RateLimit RateLimitConfig
}

func DefaultTuning() *Tuning {
	return &Tuning{
		UI:        UIConfig{StatusResetMs: 3000},
		Confirm:   ConfirmConfig{PollIntervalMs: 500},
		RateLimit: RateLimitConfig{MaxRequests: 10, WindowMs: 60000},
	}
}

// LoadTuning reads tuning from an .ini file; missing keys keep their defaults
func LoadTuning(path string) (*Tuning, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	t := DefaultTuning()
	if err := cfg.Section("ui").MapTo(&t.UI); err != nil {
		return nil, err
	}
	if err := cfg.Section("confirm").MapTo(&t.Confirm); err != nil {
		return nil, err
	}
	if err := cfg.Section("ratelimit").MapTo(&t.RateLimit); err != nil {
		return nil, err
	}
	if t.UI.StatusResetMs <= 0 || t.Confirm.PollIntervalMs <= 0 || t.RateLimit.MaxRequests <= 0 || t.RateLimit.WindowMs <= 0 {
		return nil, fmt.Errorf("tuning values in %s must be positive", path)
	}
	return t, nil
}

func (t *Tuning) StatusReset() time.Duration {
	return time.Duration(t.UI.StatusResetMs) * time.Millisecond
}

func (t *Tuning) PollInterval() time.Duration {
	return time.Duration(t.Confirm.PollIntervalMs) * time.Millisecond
}

func (t *Tuning) RateLimitWindow() time.Duration {
	return time.Duration(t.RateLimit.WindowMs) * time.Millisecond
}
