package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/execgate/pkg/executor"
	"github.com/doodlesbykumbi/execgate/pkg/gate"
)

// requestExecuteCmd represents the request execute command
var requestExecuteCmd = &cobra.Command{
	Use:   "execute <id>",
	Short: "Execute an approved request",
	Long: `Execute an approved request against its connection.

The request runs only if the principal holds execute on the connection, the
request is approved and it has not been executed yet. Read-only requests may
run again on connections that allow it.

Example:
  gatectl request execute 0190f6c2-... --as alice
  gatectl request execute 0190f6c2-... --as alice --timeout 5m`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		principalID, _ := cmd.Flags().GetString("as")

		var opts []gate.Option
		if cmd.Flags().Changed("timeout") {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			opts = append(opts, gate.WithTimeout(timeout))
		}

		if err := executeRequest(cmd.Context(), principalID, args[0], opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Execution failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	requestCmd.AddCommand(requestExecuteCmd)
	requestExecuteCmd.Flags().Duration("timeout", 0, "Override execution_timeout for this run")
}

func executeRequest(ctx context.Context, principalID, id string, opts ...gate.Option) error {
	ctx, err := asPrincipal(ctx, principalID)
	if err != nil {
		return err
	}
	svc, err := newServices()
	if err != nil {
		return err
	}

	exec := executor.NewPostgres(logger)
	defer func() { _ = exec.Close() }()

	g := gate.New(svc.requests, svc.connections, svc.evaluator, exec, logger).WithMetrics(svc.metrics)
	g.Timeout = cfg.ExecutionTimeout

	out, err := g.TryExecute(ctx, id, opts...)
	if err != nil {
		if out != nil && !out.Executed {
			return fmt.Errorf("refused (%s): %w", out.Reason, err)
		}
		return err
	}

	if out.Reexecution {
		fmt.Printf("Request %s re-executed in %s\n", id, out.Duration)
	} else {
		fmt.Printf("Request %s executed in %s\n", id, out.Duration)
	}
	if out.Result != nil && out.Result.Message != "" {
		fmt.Println(out.Result.Message)
	}
	return nil
}
