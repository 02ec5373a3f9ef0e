package retry

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
	Use:   "retry PROCESS_ID",
	Short: "Re-queues every dead-lettered step of a failed deployment operation",
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
	if err := svc.Execute(ctx, process.ActionRetry, flag.Value.User, args[0]); err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "retry submitted for", args[0])
	return nil
}
