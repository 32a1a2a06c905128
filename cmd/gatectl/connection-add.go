package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/execgate/pkg/model"
	gormstore "github.com/doodlesbykumbi/execgate/pkg/store/gorm"
)

// connectionAddCmd represents the connection add command
var connectionAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Create or update a connection",
	Long: `Create or update a connection.

The credentials reference is resolved when a request executes:
"env:NAME" reads an environment variable, "file:PATH" reads a file and
anything else is used as the DSN itself.

Example:
  gatectl connection add prod --display-name Production --credentials-ref env:PROD_DSN --num-required 2
  gatectl connection add replica --read-only-capable --allow-read-only-reexecution`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		displayName, _ := flags.GetString("display-name")
		description, _ := flags.GetString("description")
		credentialsRef, _ := flags.GetString("credentials-ref")
		readOnly, _ := flags.GetBool("read-only-capable")
		numRequired, _ := flags.GetInt("num-required")
		selfApproval, _ := flags.GetBool("allow-self-approval")
		reexecution, _ := flags.GetBool("allow-read-only-reexecution")

		if !flags.Changed("num-required") {
			numRequired = cfg.DefaultNumTotalRequired
		}
		if displayName == "" {
			displayName = args[0]
		}

		conn := &model.Connection{
			ID:              args[0],
			DisplayName:     displayName,
			Description:     description,
			ReadOnlyCapable: readOnly,
			CredentialsRef:  credentialsRef,
			ReviewConfig: model.ReviewConfig{
				NumTotalRequired:         numRequired,
				AllowSelfApproval:        selfApproval,
				AllowReadOnlyReexecution: reexecution,
			},
		}
		if err := addConnection(cmd.Context(), conn); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save connection: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Connection %s saved\n", conn.ID)
	},
}

func init() {
	connectionCmd.AddCommand(connectionAddCmd)
	flags := connectionAddCmd.Flags()
	flags.String("display-name", "", "Human readable name (defaults to the id)")
	flags.String("description", "", "Description")
	flags.String("credentials-ref", "", "Where to find the DSN (env:NAME, file:PATH or a DSN)")
	flags.Bool("read-only-capable", false, "Connection can run read-only requests")
	flags.Int("num-required", 1, "Approvals required (defaults to default_num_total_required)")
	flags.Bool("allow-self-approval", false, "Count the author's own approval")
	flags.Bool("allow-read-only-reexecution", false, "Allow executed read-only requests to run again")
}

func addConnection(ctx context.Context, conn *model.Connection) error {
	database, err := connect()
	if err != nil {
		return err
	}
	return gormstore.NewConnectionStore(database).SaveConnection(ctx, conn)
}
