package abort

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/mta-deploy/deployctl/cli/flag"
	"gitlab.com/mta-deploy/deployctl/cli/support"
	"gitlab.com/mta-deploy/deployctl/process"
)

// Cmd is the cobra command object
var Cmd = &cobra.Command{
	Use:   "abort PROCESS_ID",
	Short: "Force-terminates a deployment operation and its sub-processes",
	Long:  ``,
	RunE:  run,
	Args:  cobra.ExactArgs(1),
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, closer, err := support.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dialling server: %w", err)
	}
	defer closer()
	if err := svc.Execute(ctx, process.ActionAbort, flag.Value.User, args[0]); err != nil {
		return fmt.Errorf("abort failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "aborted", args[0])
	return nil
}
