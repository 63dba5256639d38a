package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/joho/godotenv"

	"github.com/powerhive/ckpool-stats/pkg/ckpool"
)

// Config holds all configuration for the ckpool-stats CLI.
type Config struct {
	// Pool API
	BaseURL       string
	Timeout       time.Duration
	ProxyAddr     string
	StrictAddress bool

	// Database
	DBPath    string
	Retention time.Duration // zero keeps snapshots forever

	// Harvesting
	HarvestInterval time.Duration
	Concurrency     int

	// Users (comma-separated via CKPOOL_USERS env var)
	Users []string

	// Metrics endpoint for daemon mode, disabled when empty
	MetricsAddr string
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://solo.ckpool.org",
		Timeout:         ckpool.DefaultTimeout,
		DBPath:          "ckpool.db",
		Retention:       30 * 24 * time.Hour,
		HarvestInterval: 60 * time.Second,
		Concurrency:     4,
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if v := os.Getenv("CKPOOL_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CKPOOL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("CKPOOL_PROXY"); v != "" {
		cfg.ProxyAddr = v
	}
	if v := os.Getenv("CKPOOL_STRICT_ADDRESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StrictAddress = b
		}
	}
	if v := os.Getenv("CKPOOL_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SNAPSHOT_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.Retention = d
		}
	}
	if v := os.Getenv("HARVEST_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.HarvestInterval = d
		}
	}
	if v := os.Getenv("HARVEST_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("CKPOOL_USERS"); v != "" {
		cfg.Users = splitList(v)
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	return cfg
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// NewClient builds a stats client from the configuration.
func (c *Config) NewClient() (*ckpool.HTTPClient, error) {
	opts := []ckpool.FactoryOption{
		ckpool.WithFactoryTimeout(c.Timeout),
	}
	if c.ProxyAddr != "" {
		opts = append(opts, ckpool.WithSOCKS5Proxy(c.ProxyAddr))
	}
	if c.StrictAddress {
		opts = append(opts, ckpool.WithFactoryValidator(ckpool.PayoutAddressValidator(&chaincfg.MainNetParams)))
	}
	return ckpool.NewClientFactory(opts...).NewClient(c.BaseURL)
}
