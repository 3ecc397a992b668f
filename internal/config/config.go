package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"discord-sentinel-bot/internal/database"
	"discord-sentinel-bot/internal/redis"
)

// Config is the operator-supplied runtime configuration, read from
// config.json next to the binary.
type Config struct {
	Token       string                  `json:"token"`
	Redis       redis.Config            `json:"redis"`
	Postgres    database.PostgresConfig `json:"postgres"`
	MetricsAddr string                  `json:"metrics_addr"`
}

// Defaults is the built-in detection profile guilds start from. Guild
// overrides stored in Postgres take precedence per action kind.
type Defaults struct {
	Punishment string         `yaml:"punishment"`
	Thresholds map[string]int `yaml:"thresholds"`
}

//go:embed defaults.yaml
var defaultsRaw []byte

// Load reads config.json from path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%s: token is required", path)
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9109"
	}
	return &cfg, nil
}

// LoadDefaults parses the embedded detection profile.
func LoadDefaults() (*Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(defaultsRaw, &d); err != nil {
		return nil, fmt.Errorf("parse defaults.yaml: %w", err)
	}
	if d.Punishment == "" || len(d.Thresholds) == 0 {
		return nil, fmt.Errorf("defaults.yaml: punishment and thresholds are required")
	}
	return &d, nil
}
