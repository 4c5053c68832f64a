package commands

import (
	"os"

	"github.com/gotofritz/yark/cmd/yark/opts"
	"github.com/gotofritz/yark/pkg/archive"
	"github.com/gotofritz/yark/pkg/download"
	"github.com/gotofritz/yark/pkg/fetch"
	"github.com/gotofritz/yark/pkg/operation"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewRefreshCmd creates the refresh command
func NewRefreshCmd(o *opts.RootOpts) *cobra.Command {
	var (
		flags        downloadFlags
		metadataOnly bool
		skipMetadata bool
	)

	cmd := &cobra.Command{
		Use:   "refresh [path]",
		Short: "Refresh a channel's metadata and download new media",
		Long: `Refresh fetches the channel's current metadata, merges it into the
archive's history, sweeps for upstream deletions, downloads whatever
media is still missing and commits the result. Without a path argument
the config file's output directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := o.LoadConfig(ctx)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if metadataOnly {
				cfg.SkipDownload = true
			}
			if skipMetadata {
				cfg.SkipMetadata = true
			}
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

			if !cfg.SkipMetadata {
				var meta *fetch.Metadata
				err = operation.Run(ctx, "Downloading metadata..", func() error {
					m, err := engine.ChannelMetadata(ctx, a.URL)
					meta = m
					return err
				})
				if err != nil {
					return errors.Errorf("fetching channel metadata: %w", err)
				}

				err = operation.Run(ctx, "Parsing metadata..", func() error {
					return a.Refresh(ctx, meta)
				})
				if err != nil {
					return errors.Errorf("refreshing archive: %w", err)
				}
			}

			if !cfg.SkipDownload {
				if err := download.Download(ctx, a, engine, limitsFromConfig(cfg)); err != nil {
					return err
				}
			}

			if err := a.Commit(ctx); err != nil {
				return err
			}

			a.Reporter.Print(os.Stdout)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&metadataOnly, "metadata-only", false, "refresh metadata without downloading media")
	cmd.Flags().BoolVar(&skipMetadata, "skip-metadata", false, "skip the metadata refresh, only download")

	return cmd
}
