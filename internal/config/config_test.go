package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()

	if err := validateConfig(cfg); err != nil {
		t.Fatalf("default configuration is invalid: %v", err)
	}
	if cfg.Privacy.ScoreThreshold != 0.6 {
		t.Errorf("ScoreThreshold = %g, want 0.6", cfg.Privacy.ScoreThreshold)
	}
	if cfg.Privacy.ContextWindow != 40 {
		t.Errorf("ContextWindow = %d, want 40", cfg.Privacy.ContextWindow)
	}
	if cfg.Privacy.ContextBoost != 0.35 {
		t.Errorf("ContextBoost = %g, want 0.35", cfg.Privacy.ContextBoost)
	}
	if cfg.NER.Mode != "off" {
		t.Errorf("NER.Mode = %q, want off", cfg.NER.Mode)
	}
	if !cfg.Privacy.Enabled {
		t.Error("privacy should be enabled by default")
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"PortZero", func(c *Config) { c.Server.Port = 0 }},
		{"PortTooLarge", func(c *Config) { c.Server.Port = 70000 }},
		{"ThresholdNegative", func(c *Config) { c.Privacy.ScoreThreshold = -0.1 }},
		{"ThresholdAboveOne", func(c *Config) { c.Privacy.ScoreThreshold = 1.5 }},
		{"BoostAboveOne", func(c *Config) { c.Privacy.ContextBoost = 2 }},
		{"NegativeWindow", func(c *Config) { c.Privacy.ContextWindow = -1 }},
		{"UnknownNERMode", func(c *Config) { c.NER.Mode = "magic" }},
		{"ServiceModeWithoutURL", func(c *Config) { c.NER.Mode = "service"; c.NER.ServiceURL = "" }},
		{"ZeroWorkers", func(c *Config) { c.Compare.Workers = 0 }},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "verbose" }},
		{"BadLogFormat", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := GetDefaults()
			tc.mutate(cfg)
			if err := validateConfig(cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	t.Run("ServiceModeWithURL", func(t *testing.T) {
		cfg := GetDefaults()
		cfg.NER.Mode = "service"
		cfg.NER.ServiceURL = "http://localhost:5001"
		if err := validateConfig(cfg); err != nil {
			t.Errorf("valid config rejected: %v", err)
		}
	})
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
privacy:
  score_threshold: 0.8
  context_window: 25
ocr:
  languages: ["eng", "deu"]
  timeout: 90s
compare:
  workers: 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Privacy.ScoreThreshold != 0.8 {
		t.Errorf("ScoreThreshold = %g, want 0.8", cfg.Privacy.ScoreThreshold)
	}
	if cfg.Privacy.ContextWindow != 25 {
		t.Errorf("ContextWindow = %d, want 25", cfg.Privacy.ContextWindow)
	}
	if len(cfg.OCR.Languages) != 2 || cfg.OCR.Languages[1] != "deu" {
		t.Errorf("OCR.Languages = %v", cfg.OCR.Languages)
	}
	if cfg.OCR.Timeout != 90*time.Second {
		t.Errorf("OCR.Timeout = %v, want 90s", cfg.OCR.Timeout)
	}
	if cfg.Compare.Workers != 4 {
		t.Errorf("Compare.Workers = %d, want 4", cfg.Compare.Workers)
	}
	// Untouched settings keep their defaults.
	if cfg.Privacy.ContextBoost != 0.35 {
		t.Errorf("ContextBoost = %g, want default 0.35", cfg.Privacy.ContextBoost)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("privacy:\n  score_threshold: 3.0\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for out-of-range threshold")
	}
}
