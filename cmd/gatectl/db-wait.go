package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	gormstore "github.com/doodlesbykumbi/execgate/pkg/store/gorm"
)

// dbWaitCmd represents the db wait command
var dbWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the database to accept connections",
	Long: `Wait for the database to accept connections by polling it.

Example:
  gatectl db wait
  gatectl db wait --retries 60`,
	Run: func(cmd *cobra.Command, args []string) {
		retries, _ := cmd.Flags().GetInt("retries")

		if err := waitForDatabase(cmd.Context(), retries); err != nil {
			fmt.Fprintf(os.Stderr, "Database did not become ready: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbWaitCmd)
	dbWaitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
}

func waitForDatabase(ctx context.Context, retries int) error {
	fmt.Println("Waiting for the database to be ready...")

	var lastErr error
	for i := 0; i < retries; i++ {
		database, err := connect()
		if err == nil {
			health := gormstore.NewHealthStore(database)
			checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err = health.CheckConnectivity(checkCtx)
			cancel()
			if sqlDB, dbErr := database.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
		}
		if err == nil {
			fmt.Println()
			fmt.Println("Database is ready!")
			return nil
		}
		lastErr = err

		fmt.Print(".")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	fmt.Println()
	return fmt.Errorf("gave up after %d attempts: %w", retries, lastErr)
}
