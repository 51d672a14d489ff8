package cmd

import (
	"github.com/spf13/cobra"

	client "github.com/oshokin/alarm-scheduler/internal/service/client"
)

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create or replace an alarm.",
		Long: `Schedules an alarm, replacing any alarm with the same name.

Exactly one of --when and --delay may be given. With --period alone the
first fire happens one period from now. Only flags that are given are sent,
so "--delay 0" fires as soon as possible.`,
		Example: `  alarmctl create tea --delay 3
  alarmctl create standup --when 2026-10-19T09:30:00+03:00 --period 1440
  alarmctl create --period 0.5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := client.InfoFromFlags(cmd.Flags())
			if err != nil {
				return err
			}

			return run(client.Create(optionalName(args), info, cmd.OutOrStdout()))
		},
	}

	client.RegisterInfoFlags(cmd.Flags())

	return cmd
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [name]",
		Short: "Show one alarm.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(client.Get(optionalName(args), cmd.OutOrStdout()))
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all alarms ordered by next fire time.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(client.List(cmd.OutOrStdout()))
		},
	}
}

func newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [name]",
		Short: "Cancel one alarm.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(client.Clear(optionalName(args), cmd.OutOrStdout()))
		},
	}
}

func newClearAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-all",
		Short: "Cancel every alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(client.ClearAll(cmd.OutOrStdout()))
		},
	}
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print alarms as they fire until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(client.Watch(cmd.OutOrStdout()))
		},
	}
}
