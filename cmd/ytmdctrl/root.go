package main

import (
	"github.com/spf13/cobra"

	"ytmdctrl/internal/command"
)

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:   "ytmdctrl",
		Short: "Control YouTube Music Desktop from the command line",
		Long: "ytmdctrl sends playback commands to the YouTube Music Desktop companion server.\n" +
			"The first command against a server requests authorization; confirm the code\n" +
			"shown in the desktop app. Without a subcommand, ytmdctrl toggles play/pause.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.execute(cmd, command.Command{Kind: command.PlayPause})
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&flags.configPath, "config", "", "Configuration file path")
	persistent.StringVarP(&flags.server, "server", "s", "", "Server host (default from config, localhost)")
	persistent.IntVar(&flags.port, "port", 0, "Server port (default from config, 9863)")
	persistent.StringVarP(&flags.delay, "delay", "p", "", "Wait before sending the command (seconds or Go duration)")
	persistent.BoolVarP(&flags.script, "script", "c", false, "Parser-friendly output (default when stdout is not a terminal)")
	persistent.StringVar(&flags.format, "format", formatJSON, "Script output format: json or yaml")
	persistent.BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug diagnostics to stderr")

	for _, cmd := range newControlCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newAuthCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
