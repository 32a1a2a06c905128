package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/execgate/pkg/store"
)

// requestListCmd represents the request list command
var requestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the requests a principal may read",
	Long: `List the requests a principal may read, oldest first.

Example:
  gatectl request list --as alice
  gatectl request list --as alice --connection prod --archived`,
	Run: func(cmd *cobra.Command, args []string) {
		principalID, _ := cmd.Flags().GetString("as")
		connectionID, _ := cmd.Flags().GetString("connection")
		authorID, _ := cmd.Flags().GetString("author")
		archived, _ := cmd.Flags().GetBool("archived")

		filter := store.RequestFilter{
			ConnectionID:    connectionID,
			AuthorID:        authorID,
			IncludeArchived: archived,
		}
		if err := listRequests(cmd.Context(), principalID, filter); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list requests: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	requestCmd.AddCommand(requestListCmd)
	requestListCmd.Flags().String("connection", "", "Only requests for this connection")
	requestListCmd.Flags().String("author", "", "Only requests by this author")
	requestListCmd.Flags().Bool("archived", false, "Include archived requests")
}

func listRequests(ctx context.Context, principalID string, filter store.RequestFilter) error {
	ctx, err := asPrincipal(ctx, principalID)
	if err != nil {
		return err
	}
	svc, err := newServices()
	if err != nil {
		return err
	}

	reqs, err := svc.requestSvc.ListFiltered(ctx, filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONNECTION\tAUTHOR\tREVIEW\tEXECUTION\tTITLE")
	for _, r := range reqs {
		title := r.Title
		if r.Archived {
			title += " (archived)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.ConnectionID, r.AuthorID, r.ReviewStatus, r.ExecutionStatus, title)
	}
	return w.Flush()
}
