package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/squish/pkg/squish/config"
	"github.com/jamesainslie/squish/pkg/squish/logging"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

// initializeLogging is the root command's PersistentPreRunE. It makes
// sure the XDG directories exist and brings up the logging system
// before any command body runs.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.EnsureDataDir(); err != nil {
		return err
	}
	if err := config.EnsureStateDir(); err != nil {
		return err
	}

	cfg := config.LoadOrDefault()

	level := cfg.Logging.Level
	if flagLevel := viper.GetString("log_level"); flagLevel != "" {
		level = flagLevel
	}
	if getVerbose() {
		level = "debug"
	}
	if level == "" {
		level = "info"
	}

	logCfg := logging.Config{
		Level:      level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if getVerbose() && !getQuiet() {
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	return nil
}

// parseRotationConfig converts the config file's human-readable
// rotation settings into the logging package's byte counts. Empty or
// unparsable sizes fall back to 10MB.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	maxSize := 10 * types.MiB

	if rc.MaxSize != "" {
		if parsed, err := types.ParseSize(rc.MaxSize); err == nil {
			maxSize = parsed
		}
	}

	return logging.RotationConfig{
		MaxSize:    maxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
}
