package config

import (
	"os"
	"path/filepath"
	"testing"

	"discord-sentinel-bot/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	d, err := LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if !models.ValidPunishment(d.Punishment) {
		t.Errorf("default punishment %q is not a valid sanction", d.Punishment)
	}
	for _, kind := range models.ThresholdKinds() {
		if v, ok := d.Thresholds[kind]; !ok || v < 1 {
			t.Errorf("embedded profile missing a sane threshold for %s (got %d)", kind, v)
		}
	}
	for kind := range d.Thresholds {
		if models.ActionDisplayName(kind) == kind {
			t.Errorf("embedded profile has unknown action kind %q", kind)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	raw := `{
		"token": "abc123",
		"postgres": {"host": "localhost", "port": 5432},
		"redis": {"addr": "localhost:6379"}
	}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "abc123" {
		t.Errorf("token = %q", cfg.Token)
	}
	if cfg.MetricsAddr == "" {
		t.Error("metrics addr default not applied")
	}
}

func TestLoadRequiresToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("config without a token should be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing config file should be rejected")
	}
}
