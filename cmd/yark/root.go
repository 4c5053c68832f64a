package main

import (
	"os"

	"github.com/gotofritz/yark/cmd/yark/commands"
	"github.com/gotofritz/yark/cmd/yark/opts"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootOpts opts.RootOpts

// newRootCmd builds the yark command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "yark",
		Short:         "YouTube channel archiver",
		Long:          "Yark keeps a durable, append-only history of a channel's videos,\nlivestreams and shorts, and downloads their media resumably.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	addRootFlags(root)

	root.AddCommand(commands.NewNewCmd(&rootOpts))
	root.AddCommand(commands.NewRefreshCmd(&rootOpts))
	root.AddCommand(commands.NewDownloadCmd(&rootOpts))
	root.AddCommand(commands.NewSearchCmd(&rootOpts))

	return root
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&rootOpts.ConfigFile, "config", "c", ".yark.yaml", "config file path")
	cmd.PersistentFlags().BoolVarP(&rootOpts.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if rootOpts.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}
