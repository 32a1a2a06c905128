package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/execgate/pkg/metrics"
	"github.com/doodlesbykumbi/execgate/pkg/policy"
	gormstore "github.com/doodlesbykumbi/execgate/pkg/store/gorm"
)

// policyWatchCmd represents the policy watch command
var policyWatchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Watch a role document and reload it when it changes",
	Long: `Watch a role document and load it again whenever it is written.

The document is loaded once on startup. Changes take effect for the next
authorization check; nothing is cached between checks.

With --metrics-addr the load counters are served at /metrics on that
address for as long as the watch runs.

Example:
  gatectl policy watch /etc/execgate/roles.yml --metrics-addr :9464`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		principalID, _ := cmd.Flags().GetString("as")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		filename, err := roleDocument(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch policy: %v\n", err)
			os.Exit(1)
		}

		if err := watchPolicy(cmd.Context(), principalID, filename, metricsAddr); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch policy: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	policyCmd.AddCommand(policyWatchCmd)
	policyWatchCmd.Flags().String("as", "gatectl", "Principal recorded in the audit trail")
	policyWatchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
}

func watchPolicy(ctx context.Context, principalID, filename, metricsAddr string) error {
	database, err := connect()
	if err != nil {
		return err
	}
	principals := gormstore.NewPrincipalStore(database)
	m := metrics.New()

	if metricsAddr != "" {
		srv := metrics.NewServer(m, metricsAddr, os.Stderr)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error().Err(err).Str("addr", metricsAddr).Msg("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info().Str("addr", metricsAddr).Msg("serving metrics")
	}

	reload := func() {
		loader := policy.NewLoader(principals).
			WithPrincipalID(principalID).
			WithSource(filename).
			WithMetrics(m)
		result, err := loader.LoadFile(ctx, filename)
		if err != nil {
			logger.Error().Err(err).Str("file", filename).Msg("failed to reload role document")
			return
		}
		logger.Info().
			Str("file", filename).
			Int("roles", result.Roles).
			Int("principals", result.Principals).
			Msg("role document reloaded")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// editors replace files on save, so watch the directory
	if err := watcher.Add(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filename, err)
	}
	target := filepath.Clean(filename)

	fmt.Printf("Watching %s for role changes\n", filename)
	reload()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fmt.Printf("[%s] %s modified, reloading roles...\n", time.Now().Format(time.RFC3339), filename)
				reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		case <-sigChan:
			fmt.Println("\nShutting down...")
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
