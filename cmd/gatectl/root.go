package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/execgate/pkg/audit"
	"github.com/doodlesbykumbi/execgate/pkg/config"
)

var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gatectl",
	Short: "Administer execgate execution requests",
	Long: `Administer execgate execution requests, their connections and the
roles that decide who may review and execute them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		logger = newLogger(cfg)

		// stdout is reserved for command output
		audit.DefaultLogger.SetWriter(os.Stderr)
		audit.SetEnabled(cfg.AuditEnabled)
		return nil
	},
	SilenceUsage: true,
}

func newLogger(c *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Str("app", "gatectl").Logger()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
