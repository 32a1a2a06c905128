package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// connectionCmd represents the connection command
var connectionCmd = &cobra.Command{
	Use:   "connection",
	Short: "Manage database connections",
	Long:  `Manage the connections requests run against and their review settings.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'connection' requires a subcommand (add, list)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(connectionCmd)
}
