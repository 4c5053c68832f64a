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

package download

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gotofritz/yark/pkg/archive"
	"github.com/gotofritz/yark/pkg/fetch"
	"github.com/gotofritz/yark/pkg/report"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// maxAttempts bounds the outer retry loop over the whole batch.
const maxAttempts = 5

// retryDelay is the fixed backoff between outer attempts.
var retryDelay = 5 * time.Second

// stalePatterns match artifacts of an interrupted prior run.
var stalePatterns = []string{"*.part", "*.ytdl"}

// Download fetches every curated undownloaded video through the engine. Each
// outer attempt re-curates, because items discovered deleted mid-run shrink
// the candidate set. Items that turn out to be private, removed or
// format-less are skipped inline without spending an attempt. There is no
// partial-success result: an interrupted batch resumes safely next run via
// the downloaded-file checks.
func Download(ctx context.Context, a *archive.Archive, engine fetch.Engine, limits Limits) error {
	logger := zerolog.Ctx(ctx)

	if err := cleanStaleParts(ctx, a.VideosDir()); err != nil {
		return errors.Errorf("cleaning stale artifacts: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			logger.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("retrying video downloads")
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return errors.Errorf("waiting to retry downloads: %w", ctx.Err())
			}
		}

		pending := Curate(a, limits)
		if len(pending) == 0 {
			return nil
		}
		if attempt == 0 {
			logger.Info().Int("count", len(pending)).Msg("downloading new videos")
		}

		if lastErr = runBatch(ctx, a, engine, pending); lastErr == nil {
			return nil
		}
	}
	return errors.Errorf("downloading videos after %d attempts: %w", maxAttempts, lastErr)
}

// runBatch drives the engine over the pending list, recovering inline from
// failures attached to single items. Anything unclassified bubbles up to the
// outer retry loop.
func runBatch(ctx context.Context, a *archive.Archive, engine fetch.Engine, pending []*archive.Video) error {
	logger := zerolog.Ctx(ctx)

	for len(pending) > 0 {
		urls := make([]string, len(pending))
		for i, v := range pending {
			urls[i] = v.URL()
		}

		err := engine.DownloadBatch(ctx, urls)
		if err == nil {
			return nil
		}

		var derr *fetch.DownloadError
		if !errors.As(err, &derr) || !derr.PerItem() {
			return err
		}

		// The engine works the list in order, so everything before the
		// failing item is already handled.
		rest, failed := skipVideo(a, pending, derr)
		if failed == nil {
			return err
		}
		pending = rest

		if derr.Kind == fetch.KindNoFormat {
			logger.Warn().Str("id", failed.ID).Msg("skipping video: no format found; please install ffmpeg")
			continue
		}

		logger.Info().Str("id", failed.ID).Stringer("reason", derr.Kind).Msg("skipping deleted video")
		if !failed.Deleted.Current() {
			failed.Deleted.Update(time.Now(), true)
			a.Reporter.AddDeleted(report.Record{ID: failed.ID, Title: failed.Title.Current(), Kind: categoryOf(a, failed)})
		}
	}
	return nil
}

// skipVideo drops the failing video and everything before it from pending.
// The failure names its video when the engine could attribute it; otherwise
// the first still-undownloaded entry must be the one that broke.
func skipVideo(a *archive.Archive, pending []*archive.Video, derr *fetch.DownloadError) ([]*archive.Video, *archive.Video) {
	dir := a.VideosDir()
	for i, v := range pending {
		if derr.VideoID != "" {
			if v.ID == derr.VideoID {
				return pending[i+1:], v
			}
			continue
		}
		if !v.Downloaded(dir) {
			return pending[i+1:], v
		}
	}
	return nil, nil
}

// cleanStaleParts removes leftover partial-download files so the engine
// starts from a clean slate.
func cleanStaleParts(ctx context.Context, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Errorf("scanning videos directory: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	for _, f := range files {
		for _, pattern := range stalePatterns {
			ok, err := doublestar.Match(pattern, f.Name())
			if err != nil {
				return errors.Errorf("matching stale pattern: %w", err)
			}
			if !ok {
				continue
			}
			if err := os.Remove(filepath.Join(dir, f.Name())); err != nil {
				return errors.Errorf("removing stale artifact: %w", err)
			}
			logger.Debug().Str("file", f.Name()).Msg("removed stale download artifact")
			break
		}
	}
	return nil
}

// categoryOf names the collection a video belongs to, for reporting.
func categoryOf(a *archive.Archive, target *archive.Video) string {
	for _, v := range a.Livestreams {
		if v == target {
			return "livestreams"
		}
	}
	for _, v := range a.Shorts {
		if v == target {
			return "shorts"
		}
	}
	return "videos"
}
