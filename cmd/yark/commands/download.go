package commands

import (
	"os"

	"github.com/gotofritz/yark/cmd/yark/opts"
	"github.com/gotofritz/yark/pkg/archive"
	"github.com/gotofritz/yark/pkg/download"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewDownloadCmd creates the download command
func NewDownloadCmd(o *opts.RootOpts) *cobra.Command {
	var flags downloadFlags

	cmd := &cobra.Command{
		Use:   "download [path]",
		Short: "Download missing media for already-archived items",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := o.LoadConfig(ctx)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			cfg.Submit(ctx)

			path := archivePath(args, cfg)
			a, err := archive.Load(ctx, path)
			if err != nil {
				if errors.Is(err, archive.ErrArchiveNotFound) {
					return errors.Errorf("no archive at %s; create one with 'yark new': %w", path, err)
				}
				return err
			}

			engine := newEngine(a.VideosDir(), cfg)
			if err := download.Download(ctx, a, engine, limitsFromConfig(cfg)); err != nil {
				return err
			}

			if err := a.Commit(ctx); err != nil {
				return err
			}

			a.Reporter.Print(os.Stdout)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
