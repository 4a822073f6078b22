package main

import (
	"fmt"
	"os"
	"runtime"

	"coursemirror/pkg/config"
	"coursemirror/pkg/logger"
	"coursemirror/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information, set with -ldflags at release time
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	verbose    bool
	noBanner   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coursemirror",
	Short: "Mirror course files from the Ninova portal to disk",
	Long: `coursemirror walks the file listings of a Ninova course and downloads every
document into a local folder tree that follows the course's own breadcrumbs.

Sessions come from a cookie header copied from your browser or from a
browser-driven login with stored credentials (see 'coursemirror auth').`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noBanner {
			return
		}
		switch cmd.Name() {
		case "version", "help", "show":
		default:
			ui.PrintBanner()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/coursemirror/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every log line instead of the progress spinner")
	rootCmd.PersistentFlags().BoolVar(&noBanner, "no-banner", false, "do not print the banner")

	rootCmd.SetVersionTemplate(`coursemirror {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the global flags with the command's own flags and
// loads the configuration from every source.
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	flags["log-level"] = logLevel
	flags["log-file"] = logFile

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger initializes the global logger. Unless --verbose is given the
// console only shows warnings, so the spinner line stays readable; the log
// file, when set, still receives the configured level.
func setupLogger(cfg *config.Config, interactive bool) (logger.Logger, error) {
	logCfg := cfg.Logging
	if interactive && !verbose && logCfg.File == "" && logLevel == "" {
		logCfg.Level = "warn"
	}
	if err := logger.Initialize(&logCfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.GetLogger(), nil
}
