package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Anomaly.MediumThreshold != 0.33 || cfg.Anomaly.HighThreshold != 0.66 {
		t.Errorf("thresholds = %g/%g", cfg.Anomaly.MediumThreshold, cfg.Anomaly.HighThreshold)
	}
	if cfg.Alloy.MaxAddition != 5.0 || cfg.Alloy.SignificanceFloor != 0.01 {
		t.Errorf("alloy limits = %+v", cfg.Alloy)
	}
	if cfg.Alloy.MinConfidence != 0.5 || cfg.Alloy.LargeTotal != 3.0 {
		t.Errorf("alloy limits = %+v", cfg.Alloy)
	}
	if cfg.Audit.FilePath == "" {
		t.Error("default config must carry an audit sink")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadAppliesPartialOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meltguard.yaml")
	content := `
server:
  addr: ":9090"
anomaly:
  medium_threshold: 0.25
models:
  fake: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Anomaly.MediumThreshold != 0.25 {
		t.Errorf("medium threshold = %g", cfg.Anomaly.MediumThreshold)
	}
	// untouched fields keep defaults
	if cfg.Anomaly.HighThreshold != 0.66 {
		t.Errorf("high threshold = %g", cfg.Anomaly.HighThreshold)
	}
	if !cfg.Models.Fake {
		t.Error("fake flag lost")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = " " }},
		{"thresholds out of order", func(c *Config) { c.Anomaly.MediumThreshold = 0.7 }},
		{"threshold above one", func(c *Config) { c.Anomaly.HighThreshold = 1.5 }},
		{"negative floor", func(c *Config) { c.Alloy.SignificanceFloor = -1 }},
		{"confidence above one", func(c *Config) { c.Alloy.MinConfidence = 1.2 }},
		{"no audit sink", func(c *Config) { c.Audit.FilePath = ""; c.Audit.SQLitePath = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"missing bundle", func(c *Config) { c.Models.Fake = false; c.Models.AnomalyBundle = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
