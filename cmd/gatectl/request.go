package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// requestCmd represents the request command
var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Inspect and execute requests",
	Long: `Inspect and execute requests on behalf of a principal.

Every subcommand acts as the principal named with --as and is subject to
that principal's roles.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'request' requires a subcommand (list, show, execute)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(requestCmd)
	requestCmd.PersistentFlags().String("as", "", "Principal to act as")
}
