package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/execgate/pkg/policy"
)

// policyValidateCmd represents the policy validate command
var policyValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a role document without loading it",
	Long: `Parse and validate a role document without touching the database.

Example:
  gatectl policy validate roles.yml`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename, err := roleDocument(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid policy: %v\n", err)
			os.Exit(1)
		}

		result, err := policy.NewLoader(nil).WithDryRun(true).LoadFile(cmd.Context(), filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid policy: %v\n", err)
			os.Exit(1)
		}

		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	},
}

func init() {
	policyCmd.AddCommand(policyValidateCmd)
}
