package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/squish/pkg/squish/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage squish configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/squish/config.yaml (if set)
  2. ~/.config/squish/config.yaml

Environment variables can override config file settings using the SQUISH_ prefix:
  SQUISH_OVERWRITE=false
  SQUISH_CONVERT_FORMAT=webp
  SQUISH_JOBS=8`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		// Show defaults anyway
		cfg = config.Default()
	}

	// Show config file being used
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	// Display configuration
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("overwrite:              %t\n", cfg.Overwrite)
	fmt.Printf("convert.enabled:        %t\n", cfg.Convert.Enabled)
	fmt.Printf("convert.format:         %s\n", cfg.Convert.Format)
	fmt.Printf("jobs:                   %d\n", cfg.Jobs)
	fmt.Printf("scratch_dir:            %s\n", cfg.ScratchDir)
	fmt.Printf("dark_mode:              %t\n", cfg.DarkMode)
	fmt.Printf("window:                 %dx%d at (%d, %d)\n",
		cfg.Window.Width, cfg.Window.Height, cfg.Window.X, cfg.Window.Y)
	fmt.Printf("history.enabled:        %t\n", cfg.History.Enabled)
	fmt.Printf("history.path:           %s\n", cfg.History.Path)
	fmt.Printf("sessions.enabled:       %t\n", cfg.Sessions.Enabled)
	fmt.Printf("sessions.path:          %s\n", cfg.Sessions.Path)
	fmt.Printf("sessions.retention:     %d days\n", cfg.Sessions.RetentionDays)
	fmt.Printf("watch.settle_ms:        %d\n", cfg.Watch.SettleMS)
	fmt.Printf("logging.level:          %s\n", cfg.Logging.Level)
	fmt.Printf("logging.path:           %s\n", cfg.Logging.Path)

	// Show any environment overrides
	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []struct {
		name string
		key  string
	}{
		{"SQUISH_OVERWRITE", "overwrite"},
		{"SQUISH_CONVERT_ENABLED", "convert.enabled"},
		{"SQUISH_CONVERT_FORMAT", "convert.format"},
		{"SQUISH_JOBS", "jobs"},
		{"SQUISH_SCRATCH_DIR", "scratch_dir"},
		{"SQUISH_DARK_MODE", "dark_mode"},
		{"SQUISH_HISTORY_ENABLED", "history.enabled"},
		{"SQUISH_HISTORY_PATH", "history.path"},
		{"SQUISH_SESSIONS_ENABLED", "sessions.enabled"},
		{"SQUISH_WATCH_SETTLE_MS", "watch.settle_ms"},
		{"SQUISH_LOGGING_LEVEL", "logging.level"},
	}

	anyOverrides := false
	for _, ev := range envVars {
		if val := os.Getenv(ev.name); val != "" {
			fmt.Printf("%s=%s\n", ev.name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	// Ensure config file exists
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Determine editor
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'squish config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
