package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-scheduler/internal/config"
	client "github.com/oshokin/alarm-scheduler/internal/service/client"
	"github.com/oshokin/alarm-scheduler/internal/version"
)

var (
	// options are shared by every subcommand through persistent flags.
	options client.Options

	// rootCmd represents the base command for managing alarms.
	rootCmd = &cobra.Command{
		Use:   "alarmctl",
		Short: "Manage alarms on an alarm scheduler server.",
		Long: `Creates, inspects and clears named alarms on a running alarm-server.

The server address is taken from --server or from the configuration file.
An alarm with an empty name is the default alarm; omit the name argument to use it.`,
		SilenceUsage: true,
	}
)

// Execute runs the alarmctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run executes action against the configured server with signal-aware cancellation.
func run(action client.Action) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return client.Run(ctx, &options, action)
}

// optionalName returns the first argument or the default alarm name.
func optionalName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return ""
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&options.ServerAddress, "server", "s", "", "alarm server address, overrides configuration")
	flags.BoolVarP(&options.Debug, "debug", "d", false, "log RPC details")

	err := flags.MarkHidden("debug")
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		newCreateCommand(),
		newGetCommand(),
		newListCommand(),
		newClearCommand(),
		newClearAllCommand(),
		newWatchCommand(),
	)
}
