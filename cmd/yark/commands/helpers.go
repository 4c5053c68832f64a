package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gotofritz/yark/pkg/config"
	"github.com/gotofritz/yark/pkg/download"
	"github.com/gotofritz/yark/pkg/fetch"
	"github.com/spf13/cobra"
)

// downloadFlags are the knobs shared by the refresh and download commands.
type downloadFlags struct {
	maxVideos      int
	maxLivestreams int
	maxShorts      int
	skipDownload   bool
	format         string
	fragments      int
}

func (f *downloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxVideos, "max-videos", 0, "maximum number of videos to download")
	cmd.Flags().IntVar(&f.maxLivestreams, "max-livestreams", 0, "maximum number of livestreams to download")
	cmd.Flags().IntVar(&f.maxShorts, "max-shorts", 0, "maximum number of shorts to download")
	cmd.Flags().BoolVar(&f.skipDownload, "skip-download", false, "only refresh metadata, don't download media")
	cmd.Flags().StringVar(&f.format, "format", "", "media format to pass to the download engine")
	cmd.Flags().IntVar(&f.fragments, "concurrent-fragments", 0, "concurrent fragment downloads per item")
}

// apply folds explicitly set flags over the file config; flags win.
func (f *downloadFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	setMax := func(name string, value int, pick func(*config.Maximums) **int) {
		if !cmd.Flags().Changed(name) {
			return
		}
		if cfg.Maximums == nil {
			cfg.Maximums = &config.Maximums{}
		}
		v := value
		*pick(cfg.Maximums) = &v
	}
	setMax("max-videos", f.maxVideos, func(m *config.Maximums) **int { return &m.Videos })
	setMax("max-livestreams", f.maxLivestreams, func(m *config.Maximums) **int { return &m.Livestreams })
	setMax("max-shorts", f.maxShorts, func(m *config.Maximums) **int { return &m.Shorts })

	if f.skipDownload {
		cfg.SkipDownload = true
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = f.format
	}
	if cmd.Flags().Changed("concurrent-fragments") {
		cfg.ConcurrentFragments = f.fragments
	}
}

// archivePath resolves the archive root: an explicit argument wins, otherwise
// the configured output directory.
func archivePath(args []string, cfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Output
}

// limitsFromConfig converts the config maximums into curation limits.
func limitsFromConfig(cfg *config.Config) download.Limits {
	if cfg.Maximums == nil {
		return download.Limits{}
	}
	return download.Limits{
		Videos:      cfg.Maximums.Videos,
		Livestreams: cfg.Maximums.Livestreams,
		Shorts:      cfg.Maximums.Shorts,
	}
}

// newEngine builds the yt-dlp engine with a dim per-item progress line.
func newEngine(videosDir string, cfg *config.Config) *fetch.YtDlp {
	dim := color.New(color.Faint)
	options := []fetch.Option{
		fetch.WithProgress(func(ev fetch.ProgressEvent) {
			if ev.VideoID == "" {
				return
			}
			if ev.Finished {
				dim.Printf("  • Downloaded %s        \n", ev.VideoID)
				return
			}
			dim.Printf("  • Downloading %s, at %s..\r", ev.VideoID, fmt.Sprintf("%.1f%%", ev.Percent))
		}),
	}
	if cfg.Format != "" {
		options = append(options, fetch.WithFormat(cfg.Format))
	}
	if cfg.ConcurrentFragments > 0 {
		options = append(options, fetch.WithConcurrentFragments(cfg.ConcurrentFragments))
	}
	return fetch.NewYtDlp(videosDir, options...)
}
