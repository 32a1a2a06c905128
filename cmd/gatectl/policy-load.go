package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/execgate/pkg/policy"
	gormstore "github.com/doodlesbykumbi/execgate/pkg/store/gorm"
)

// policyLoadCmd represents the policy load command
var policyLoadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load a role document",
	Long: `Load a role document into the database.

Roles named in the document replace their stored policies. Principals named
in the document have their role assignments replaced. Roles and principals
not named in the document are left untouched.

Without a file argument the configured roles_file is loaded.

Example:
  gatectl policy load roles.yml
  gatectl policy load --as ops-bot /etc/execgate/roles.yml`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		principalID, _ := cmd.Flags().GetString("as")

		filename, err := roleDocument(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load policy: %v\n", err)
			os.Exit(1)
		}

		result, err := loadPolicyFile(cmd.Context(), principalID, filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load policy: %v\n", err)
			os.Exit(1)
		}

		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	},
}

func init() {
	policyCmd.AddCommand(policyLoadCmd)
	policyLoadCmd.Flags().String("as", "gatectl", "Principal recorded in the audit trail")
}

func loadPolicyFile(ctx context.Context, principalID, filename string) (*policy.Result, error) {
	database, err := connect()
	if err != nil {
		return nil, err
	}

	loader := policy.NewLoader(gormstore.NewPrincipalStore(database)).
		WithPrincipalID(principalID).
		WithSource(filename)
	result, err := loader.LoadFile(ctx, filename)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("file", filename).
		Int("roles", result.Roles).
		Int("principals", result.Principals).
		Msg("role document loaded")
	return result, nil
}
