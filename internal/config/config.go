// Package config loads the MeltGuard service configuration from YAML.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds MeltGuard configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Models  ModelsConfig  `yaml:"models"`
	Grades  GradesConfig  `yaml:"grades"`
	Anomaly AnomalyConfig `yaml:"anomaly"`
	Alloy   AlloyConfig   `yaml:"alloy"`
	Audit   AuditConfig   `yaml:"audit"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // HTTP listen address, e.g. ":8080"
}

type ModelsConfig struct {
	AnomalyBundle string `yaml:"anomaly_bundle"` // dir with model.onnx + bundle.json
	AlloyBundle   string `yaml:"alloy_bundle"`
	Fake          bool   `yaml:"fake"` // use in-process fakes instead of ONNX
}

type GradesConfig struct {
	SpecsPath string `yaml:"specs_path"` // optional JSON grade table; builtin when empty
}

type AnomalyConfig struct {
	MediumThreshold float64 `yaml:"medium_threshold"`
	HighThreshold   float64 `yaml:"high_threshold"`
}

type AlloyConfig struct {
	MaxAddition       float64 `yaml:"max_addition"`
	SignificanceFloor float64 `yaml:"significance_floor"`
	MinConfidence     float64 `yaml:"min_confidence"`
	LargeTotal        float64 `yaml:"large_total"`
}

type AuditConfig struct {
	FilePath   string `yaml:"file_path"`   // JSONL decision log; disabled when empty
	SQLitePath string `yaml:"sqlite_path"` // SQLite decision log; disabled when empty
	QueueSize  int    `yaml:"queue_size"`
	Workers    int    `yaml:"workers"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

// Load reads configuration from a YAML file. If the file doesn't exist, it
// returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Models.AnomalyBundle == "" {
		cfg.Models.AnomalyBundle = "models/anomaly"
	}
	if cfg.Models.AlloyBundle == "" {
		cfg.Models.AlloyBundle = "models/alloy"
	}
	if cfg.Anomaly.MediumThreshold == 0 {
		cfg.Anomaly.MediumThreshold = 0.33
	}
	if cfg.Anomaly.HighThreshold == 0 {
		cfg.Anomaly.HighThreshold = 0.66
	}
	if cfg.Alloy.MaxAddition == 0 {
		cfg.Alloy.MaxAddition = 5.0
	}
	if cfg.Alloy.SignificanceFloor == 0 {
		cfg.Alloy.SignificanceFloor = 0.01
	}
	if cfg.Alloy.MinConfidence == 0 {
		cfg.Alloy.MinConfidence = 0.5
	}
	if cfg.Alloy.LargeTotal == 0 {
		cfg.Alloy.LargeTotal = 3.0
	}
	if cfg.Audit.FilePath == "" && cfg.Audit.SQLitePath == "" {
		cfg.Audit.FilePath = "audit/decisions.jsonl"
	}
	if cfg.Audit.QueueSize == 0 {
		cfg.Audit.QueueSize = 1000
	}
	if cfg.Audit.Workers == 0 {
		cfg.Audit.Workers = 1
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
