package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	if !cfg.Models.Fake {
		if strings.TrimSpace(cfg.Models.AnomalyBundle) == "" {
			return errors.New("models.anomaly_bundle must be set")
		}
		if strings.TrimSpace(cfg.Models.AlloyBundle) == "" {
			return errors.New("models.alloy_bundle must be set")
		}
	}

	if cfg.Anomaly.MediumThreshold <= 0 || cfg.Anomaly.MediumThreshold >= 1 {
		return fmt.Errorf("anomaly.medium_threshold %g must be in (0, 1)", cfg.Anomaly.MediumThreshold)
	}
	if cfg.Anomaly.HighThreshold <= 0 || cfg.Anomaly.HighThreshold >= 1 {
		return fmt.Errorf("anomaly.high_threshold %g must be in (0, 1)", cfg.Anomaly.HighThreshold)
	}
	if cfg.Anomaly.MediumThreshold >= cfg.Anomaly.HighThreshold {
		return fmt.Errorf("anomaly thresholds out of order: medium %g >= high %g",
			cfg.Anomaly.MediumThreshold, cfg.Anomaly.HighThreshold)
	}

	if cfg.Alloy.MaxAddition <= 0 {
		return fmt.Errorf("alloy.max_addition %g must be positive", cfg.Alloy.MaxAddition)
	}
	if cfg.Alloy.SignificanceFloor < 0 {
		return fmt.Errorf("alloy.significance_floor %g must not be negative", cfg.Alloy.SignificanceFloor)
	}
	if cfg.Alloy.MinConfidence < 0 || cfg.Alloy.MinConfidence > 1 {
		return fmt.Errorf("alloy.min_confidence %g must be in [0, 1]", cfg.Alloy.MinConfidence)
	}
	if cfg.Alloy.LargeTotal <= 0 {
		return fmt.Errorf("alloy.large_total %g must be positive", cfg.Alloy.LargeTotal)
	}

	if cfg.Audit.FilePath == "" && cfg.Audit.SQLitePath == "" {
		return errors.New("at least one audit sink must be configured")
	}
	if cfg.Audit.QueueSize < 0 {
		return errors.New("audit.queue_size must not be negative")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", cfg.Logging.Level)
	}

	return nil
}
