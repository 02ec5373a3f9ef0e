package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/mta-deploy/deployctl/cli/support"
)

// Cmd is the cobra command object
var Cmd = &cobra.Command{
	Use:   "actions PROCESS_ID",
	Short: "Lists the actions applicable to an operation in its current state",
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
	ids, err := svc.AvailableActions(ctx, args[0])
	if err != nil {
		return fmt.Errorf("list available actions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no actions available")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ids, " "))
	return nil
}
