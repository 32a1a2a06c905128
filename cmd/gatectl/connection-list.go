package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	gormstore "github.com/doodlesbykumbi/execgate/pkg/store/gorm"
)

// connectionListCmd represents the connection list command
var connectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connections",
	Run: func(cmd *cobra.Command, args []string) {
		if err := listConnections(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list connections: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	connectionCmd.AddCommand(connectionListCmd)
}

func listConnections(ctx context.Context) error {
	database, err := connect()
	if err != nil {
		return err
	}
	conns, err := gormstore.NewConnectionStore(database).ListConnections(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREAD-ONLY\tREQUIRED\tSELF-APPROVAL\tRE-EXECUTION")
	for _, c := range conns {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%t\t%t\n",
			c.ID, c.DisplayName, c.ReadOnlyCapable,
			c.ReviewConfig.NumTotalRequired,
			c.ReviewConfig.AllowSelfApproval,
			c.ReviewConfig.AllowReadOnlyReexecution)
	}
	return w.Flush()
}
