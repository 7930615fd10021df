// Package cli implements the triomail command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hellonolen/triopia-mail/internal/config"
	"github.com/hellonolen/triopia-mail/internal/logging"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "triomail",
	Short: "Terminal navigation client for Triopia mail",
	Long: `triomail renders the Triopia mail sidebar in the terminal: inbox
sources with live unread badges, collapsible groups, search, and a
persistent navigation state that survives restarts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// Execute runs the command tree.
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

// loadConfig loads configuration honoring the persistent flags, then
// initializes the global logger from it.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoader()
	if configFile != "" {
		loader.SetConfigFile(configFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})

	return cfg, nil
}
