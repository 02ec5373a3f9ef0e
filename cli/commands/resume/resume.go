package resume

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
	Use:   "resume PROCESS_ID",
	Short: "Unblocks a deployment operation waiting on a manual decision",
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
	if err := svc.Execute(ctx, process.ActionResume, flag.Value.User, args[0]); err != nil {
		return fmt.Errorf("resume failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "resumed", args[0])
	return nil
}
