package cli

import (
	"fmt"
	"path/filepath"

	"github.com/glorpus-work/playsync/internal/logger"
	"github.com/glorpus-work/playsync/pkg/config"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	DestDir      *string
	LockfilePath *string
	Concurrency  *int
)

// loadConfig reads the config file and applies command-line overrides.
// Without --config, playsync.yaml in the working directory is used if present.
func loadConfig(concurrencySet bool) (*config.Config, error) {
	configPath := config.DefaultPath
	if ConfigPath != nil && *ConfigPath != "" {
		configPath = *ConfigPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if DestDir != nil && *DestDir != "" {
		if cfg.Paths.DestDir, err = filepath.Abs(*DestDir); err != nil {
			return nil, fmt.Errorf("invalid --dest: %w", err)
		}
	}
	if LockfilePath != nil && *LockfilePath != "" {
		if cfg.Paths.Lockfile, err = filepath.Abs(*LockfilePath); err != nil {
			return nil, fmt.Errorf("invalid --lockfile: %w", err)
		}
	}
	if concurrencySet && Concurrency != nil {
		if *Concurrency < 0 {
			return nil, fmt.Errorf("--concurrency must not be negative, got %d", *Concurrency)
		}
		cfg.Settings.Concurrency = *Concurrency
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}

	return cfg, nil
}

func initLogger(cfg *config.Config) {
	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.LogFormat))
}
