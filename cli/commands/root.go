package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/mta-deploy/deployctl/cli/commands/abort"
	"gitlab.com/mta-deploy/deployctl/cli/commands/actions"
	"gitlab.com/mta-deploy/deployctl/cli/commands/resume"
	"gitlab.com/mta-deploy/deployctl/cli/commands/retry"
	"gitlab.com/mta-deploy/deployctl/cli/flag"
	"gitlab.com/mta-deploy/deployctl/common/logx"
	"gitlab.com/mta-deploy/deployctl/config"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "deployctl",
	Short: "MTA deployment operation control",
	Long:  ``,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := flag.Value.LogLevel
		if level == "" {
			if cfg, err := config.GetEnvironment(); err == nil {
				level = cfg.LogLevel
			}
		}
		var lev slog.Level
		var addSource bool
		switch level {
		case "debug":
			lev = slog.LevelDebug
			addSource = true
		case "info":
			lev = slog.LevelInfo
		case "warn":
			lev = slog.LevelWarn
		default:
			lev = slog.LevelError
		}
		logx.SetDefault(lev, addSource, "deployctl")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(abort.Cmd)
	RootCmd.AddCommand(retry.Cmd)
	RootCmd.AddCommand(resume.Cmd)
	RootCmd.AddCommand(actions.Cmd)
	RootCmd.PersistentFlags().StringVarP(&flag.Value.Server, flag.Server, flag.ServerShort, "", "sets the address of a NATS server, overriding NATS_URL")
	RootCmd.PersistentFlags().StringVarP(&flag.Value.User, flag.User, flag.UserShort, "", "sets the user acting on the operation")
	RootCmd.PersistentFlags().StringVarP(&flag.Value.LogLevel, flag.LogLevel, flag.LogLevelShort, "", "sets the logging level for the CLI, overriding DEPLOYCTL_LOG_LEVEL")
}
