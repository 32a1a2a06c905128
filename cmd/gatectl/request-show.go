package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/execgate/pkg/audit"
	"github.com/doodlesbykumbi/execgate/pkg/request"
)

// requestShowCmd represents the request show command
var requestShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a request and its history",
	Long: `Show a request, its live review status and its event history.

With --audit the request's audit trail is read from AUDIT_DATABASE_URL and
printed after the history. Refused executions only appear there.

Example:
  gatectl request show 0190f6c2-... --as alice
  gatectl request show 0190f6c2-... --as alice --audit
  gatectl request show 0190f6c2-... --as alice -o json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		principalID, _ := cmd.Flags().GetString("as")
		output, _ := cmd.Flags().GetString("output")
		withAudit, _ := cmd.Flags().GetBool("audit")

		if err := showRequest(cmd.Context(), principalID, args[0], output, withAudit); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show request: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	requestCmd.AddCommand(requestShowCmd)
	requestShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	requestShowCmd.Flags().Bool("audit", false, "Include the audit trail")
}

// requestDetails is the json shape of request show.
type requestDetails struct {
	*request.Details
	Audit []audit.Message `json:"audit,omitempty"`
}

func showRequest(ctx context.Context, principalID, id, output string, withAudit bool) error {
	ctx, err := asPrincipal(ctx, principalID)
	if err != nil {
		return err
	}
	svc, err := newServices()
	if err != nil {
		return err
	}

	d, err := svc.requestSvc.Get(ctx, id)
	if err != nil {
		return err
	}

	var trail []audit.Message
	if withAudit {
		if trail, err = auditTrail(ctx, id); err != nil {
			return err
		}
	}

	if output == "json" {
		data, err := json.MarshalIndent(requestDetails{Details: d, Audit: trail}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	printDetails(d)
	if withAudit {
		printAudit(trail)
	}
	return nil
}

func auditTrail(ctx context.Context, id string) ([]audit.Message, error) {
	store, err := audit.NewStore()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("--audit requires AUDIT_DATABASE_URL")
	}
	defer store.Close()
	return store.ForRequest(ctx, id)
}

func printAudit(trail []audit.Message) {
	fmt.Println("\nAudit:")
	if len(trail) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, m := range trail {
		fmt.Printf("  %s %-8s %-7s %s\n", m.Timestamp.Format(time.RFC3339), m.Msgid, m.Result, m.Message)
	}
}

func printDetails(d *request.Details) {
	r := d.Request
	fmt.Printf("%s\n\n", r.Title)
	fmt.Printf("ID:          %s\n", r.ID)
	fmt.Printf("Connection:  %s\n", r.ConnectionID)
	fmt.Printf("Author:      %s\n", r.AuthorID)
	fmt.Printf("Type:        %s\n", r.Type)
	fmt.Printf("Read-only:   %t\n", r.ReadOnly)
	fmt.Printf("Review:      %s (%d approved, %d rejected, %d changes requested)\n", d.ReviewStatus, len(d.Votes.Approvers), len(d.Votes.Rejecters), len(d.Votes.ChangeRequested))
	fmt.Printf("Execution:   %s\n", r.ExecutionStatus)
	if r.Archived {
		fmt.Println("Archived:    yes")
	}
	if r.Description != "" {
		fmt.Printf("\n%s\n", r.Description)
	}
	fmt.Printf("\n%s\n", r.Statement)

	if len(d.Events) == 0 {
		return
	}
	fmt.Println("\nHistory:")
	for _, e := range d.Events {
		fmt.Printf("  #%d %s %s by %s", e.Sequence, e.CreatedAt.Format(time.RFC3339), e.Type, e.AuthorID)
		if rv, ok := e.Review(); ok {
			fmt.Printf(": %s", rv.Action)
		}
		fmt.Println()
	}
	for _, c := range d.Comments {
		fmt.Printf("\n%s (%s):\n  %s\n", c.AuthorID, c.CreatedAt.Format(time.RFC3339), c.Summary)
	}
}
