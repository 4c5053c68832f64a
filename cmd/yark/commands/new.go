package commands

import (
	"github.com/gotofritz/yark/cmd/yark/opts"
	"github.com/gotofritz/yark/pkg/archive"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewNewCmd creates the new command
func NewNewCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "new [path] [url]",
		Short: "Create a new empty archive for a channel",
		Long: `New seeds an empty archive. Path and url fall back to the config
file's output and url when omitted.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := o.LoadConfig(ctx)
			if err != nil {
				return err
			}

			url := cfg.URL
			if len(args) > 1 {
				url = args[1]
			}
			if url == "" {
				return errors.New("no channel url given; pass one or set url in the config file")
			}

			if _, err := archive.New(ctx, archivePath(args, cfg), url); err != nil {
				return errors.Errorf("creating archive: %w", err)
			}
			return nil
		},
	}
}
