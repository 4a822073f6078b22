package main

import (
	"fmt"
	"os"

	"coursemirror/pkg/auth"
	"coursemirror/pkg/config"
	"coursemirror/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage coursemirror configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (COURSEMIRROR_*, also read from .env files)
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	RunE:  runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set portal.start_url to the course's file listing")
	fmt.Println("2. Run 'coursemirror auth login' or set portal.cookies")
	fmt.Println("3. Run 'coursemirror mirror'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Portal.Cookies != "" {
		display.Portal.Cookies = maskSecret(display.Portal.Cookies)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.Portal.StartURL == "" {
		warnings = append(warnings, "portal.start_url is not set, pass the course URL to 'mirror'")
	}
	if cfg.Portal.Cookies == "" && os.Getenv(auth.EnvUsername) == "" {
		warnings = append(warnings, "no cookies configured, a stored account will be needed")
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		warnings = append(warnings, "rate limiting is disabled")
	}

	for _, w := range warnings {
		ui.PrintWarning("warning: " + w)
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Portal", cfg.Portal.BaseURL)
	ui.PrintInfo("Output directory", cfg.Download.BaseDirectory)
	ui.PrintInfo("Limits", fmt.Sprintf("depth %d, pages %d, %d requests/minute",
		cfg.Traversal.MaxDepth, cfg.Traversal.MaxPages, cfg.RateLimit.RequestsPerMinute))
	return nil
}

// maskSecret keeps the first and last four characters of long values
func maskSecret(s string) string {
	if len(s) <= 12 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
