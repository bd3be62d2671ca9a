package app

import (
	"errors"
	"fmt"
)

// DefaultCorePackage is the host package. It is initialized and loaded before
// any other package and never resolved from disk.
const DefaultCorePackage = "forall.core"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PackagesPath string // directory tree holding package.hcl manifests
	CorePackage  string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PackagesPath == "" {
		return nil, errors.New("PackagesPath is a required configuration field and cannot be empty")
	}
	if cfg.CorePackage == "" {
		cfg.CorePackage = DefaultCorePackage
	}
	cfg.LogLevel = normalizeLogSetting(cfg.LogLevel)
	cfg.LogFormat = normalizeLogSetting(cfg.LogFormat)
	if _, ok := logLevels[cfg.LogLevel]; cfg.LogLevel != "" && !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "" && cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	if cfg.HealthcheckPort < 0 {
		return nil, fmt.Errorf("healthcheck port must not be negative, got %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
