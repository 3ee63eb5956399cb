package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type KVConfig struct {
	Backend string `yaml:"backend"` // bolt | rocks | memory
	Path    string `yaml:"path"`
}

type BackendConfig struct {
	// BaseURL of the enrichment service; empty disables all backend calls.
	// Hot-reloadable via Watch.
	BaseURL string `yaml:"base_url"`
}

type ArchiveConfig struct {
	Driver string `yaml:"driver"` // pgx | sqlite; empty disables
	DSN    string `yaml:"dsn"`
}

type APIConfig struct {
	Listen string `yaml:"listen"`
}

type Config struct {
	Brokers       string        `yaml:"brokers"`
	Group         string        `yaml:"group"`
	EventsTopic   string        `yaml:"events_topic"`
	SessionsTopic string        `yaml:"sessions_topic"` // empty disables the snapshot sink
	KV            KVConfig      `yaml:"kv"`
	Backend       BackendConfig `yaml:"backend"`
	Archive       ArchiveConfig `yaml:"archive"`
	API           APIConfig     `yaml:"api"`
	ReadyFifo     string        `yaml:"ready_fifo"`
}

func Default() Config {
	return Config{
		Brokers:     "127.0.0.1:9092",
		Group:       "walletfeed-aggregator",
		EventsTopic: "wallet.events",
		KV:          KVConfig{Backend: "bolt", Path: "./data/sessions.db"},
		API:         APIConfig{Listen: "127.0.0.1:8091"},
	}
}

// Load overlays the YAML file at path on the defaults. Empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
