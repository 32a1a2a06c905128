package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// policyCmd represents the policy command
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage roles and principals",
	Long:  `Manage the roles, policies and principal assignments that authorize requests.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'policy' requires a subcommand (load, validate, watch)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(policyCmd)
}

// roleDocument returns the file named on the command line, falling back to
// the configured roles_file.
func roleDocument(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.RolesFile != "" {
		return cfg.RolesFile, nil
	}
	return "", fmt.Errorf("no role document given and roles_file is not configured")
}
