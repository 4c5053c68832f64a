// Copyright 2025 gotofritz
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fetch

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// metadataAttempts bounds the in-call retry loop for channel metadata.
	metadataAttempts = 3

	// retryDelay is the fixed backoff between metadata attempts.
	retryDelay = 5 * time.Second

	// DefaultConcurrentFragments is passed to the engine for resilience on
	// flaky connections.
	DefaultConcurrentFragments = 8
)

// YtDlp drives the yt-dlp binary through go-ytdlp and adapts its output to
// the Engine contract.
type YtDlp struct {
	videosDir string
	format    string
	fragments int
	progress  func(ProgressEvent)
}

// Option configures a YtDlp engine.
type Option func(*YtDlp)

// WithFormat forces a yt-dlp format selector for media downloads.
func WithFormat(format string) Option {
	return func(y *YtDlp) { y.format = format }
}

// WithConcurrentFragments overrides the concurrent fragment count.
func WithConcurrentFragments(n int) Option {
	return func(y *YtDlp) {
		if n > 0 {
			y.fragments = n
		}
	}
}

// WithProgress registers a consumer for download progress events.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(y *YtDlp) { y.progress = fn }
}

// NewYtDlp creates an engine that writes media files into videosDir, named by
// item id.
func NewYtDlp(videosDir string, opts ...Option) *YtDlp {
	y := &YtDlp{
		videosDir: videosDir,
		fragments: DefaultConcurrentFragments,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// ChannelMetadata dumps the channel's metadata document as a single JSON
// object and decodes it. Transient faults are retried in place with a fixed
// delay before the error is surfaced.
func (y *YtDlp) ChannelMetadata(ctx context.Context, url string) (*Metadata, error) {
	logger := zerolog.Ctx(ctx)

	dl := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		// Pending livestreams have no formats yet; that must not abort the
		// whole extraction.
		IgnoreNoFormatsError().
		ConcurrentFragments(y.fragments)

	var lastErr error
	for attempt := 0; attempt < metadataAttempts; attempt++ {
		if attempt > 0 {
			logger.Info().Int("attempt", attempt+1).Msg("retrying metadata download")
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, errors.Errorf("waiting to retry metadata: %w", ctx.Err())
			}
		}

		res, err := dl.Run(ctx, url)
		if err != nil {
			lastErr = classifyRun(res, err)
			logger.Warn().Err(lastErr).Msg("metadata download failed")
			continue
		}

		var meta Metadata
		if err := json.Unmarshal([]byte(res.Stdout), &meta); err != nil {
			return nil, errors.Errorf("decoding channel metadata: %w", err)
		}
		return &meta, nil
	}
	return nil, errors.Errorf("downloading channel metadata: %w", lastErr)
}

// DownloadBatch fetches each url, writing files as <id>.<ext> inside the
// videos directory. Failures come back classified so the caller can recover
// per item.
func (y *YtDlp) DownloadBatch(ctx context.Context, urls []string) error {
	dl := ytdlp.New().
		Output(filepath.Join(y.videosDir, "%(id)s.%(ext)s")).
		ConcurrentFragments(y.fragments)
	if y.format != "" {
		dl = dl.Format(y.format)
	}
	if y.progress != nil {
		dl.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			ev := ProgressEvent{}
			if update.Info != nil {
				ev.VideoID = update.Info.ID
			}
			if update.TotalBytes > 0 {
				ev.Percent = float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
			}
			ev.Finished = ev.Percent >= 100
			y.progress(ev)
		})
	}

	res, err := dl.Run(ctx, urls...)
	if err != nil {
		return classifyRun(res, err)
	}
	return nil
}

// classifyRun folds the run result and error into one classified failure.
func classifyRun(res *ytdlp.Result, err error) error {
	raw := err.Error()
	if res != nil && res.Stderr != "" {
		raw = res.Stderr
	}
	return Classify(raw)
}
