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

package archive

import (
	"context"
	"strings"
	"time"

	"github.com/gotofritz/yark/pkg/fetch"
	"github.com/gotofritz/yark/pkg/report"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// category names, also used as reporter record kinds.
const (
	categoryVideos      = "videos"
	categoryLivestreams = "livestreams"
	categoryShorts      = "shorts"
)

// Refresh merges a freshly fetched metadata document into the archive: new
// entries become videos, re-observed entries update their histories, and
// anything no longer observed is swept as deleted. Refresh mutates in-memory
// state only; persisting it is a separate Commit.
func (a *Archive) Refresh(ctx context.Context, doc *fetch.Metadata) error {
	logger := zerolog.Ctx(ctx)

	videos, livestreams, shorts, err := normalize(doc)
	if err != nil {
		return err
	}

	// Identifiers observed this pass, per collection. Kept as a transient
	// set rather than per-video state so an aborted refresh can't leave a
	// stale flag behind.
	seen := map[string]map[string]struct{}{
		categoryVideos:      {},
		categoryLivestreams: {},
		categoryShorts:      {},
	}

	if err := a.merge(ctx, &a.Videos, videos, categoryVideos, seen[categoryVideos]); err != nil {
		return err
	}
	if err := a.merge(ctx, &a.Livestreams, livestreams, categoryLivestreams, seen[categoryLivestreams]); err != nil {
		return err
	}
	if err := a.merge(ctx, &a.Shorts, shorts, categoryShorts, seen[categoryShorts]); err != nil {
		return err
	}

	a.sweepDeleted(a.Videos, categoryVideos, seen[categoryVideos])
	a.sweepDeleted(a.Livestreams, categoryLivestreams, seen[categoryLivestreams])
	a.sweepDeleted(a.Shorts, categoryShorts, seen[categoryShorts])

	logger.Info().
		Int("videos", len(a.Videos)).
		Int("livestreams", len(a.Livestreams)).
		Int("shorts", len(a.Shorts)).
		Int("added", len(a.Reporter.Added)).
		Int("deleted", len(a.Reporter.Deleted)).
		Msg("refreshed archive")
	return nil
}

// normalize splits the raw document into per-category entry lists. A flat
// list means a pure-video channel; otherwise each top-level group is labeled
// by the trailing token of its title. An unrecognized token means the
// upstream schema changed under us, which aborts the refresh rather than
// silently dropping entries.
func normalize(doc *fetch.Metadata) (videos, livestreams, shorts []fetch.Entry, err error) {
	if len(doc.Entries) == 0 {
		return nil, nil, nil, nil
	}
	if !grouped(doc.Entries) {
		return doc.Entries, nil, nil, nil
	}

	for _, group := range doc.Entries {
		parts := strings.Split(group.Title, " - ")
		switch strings.ToLower(parts[len(parts)-1]) {
		case "videos":
			videos = group.Entries
		case "live":
			livestreams = group.Entries
		case "shorts":
			shorts = group.Entries
		default:
			return nil, nil, nil, errors.Errorf("unknown video kind %q found in channel metadata", parts[len(parts)-1])
		}
	}
	return videos, livestreams, shorts, nil
}

// grouped reports whether the top-level entries are category groups rather
// than items. Group objects carry an entries key even when the category is
// empty, so the decoded slice is non-nil; items never have one. Checking the
// first entry alone would misread a document whose first category happens to
// be empty as a flat list.
func grouped(entries []fetch.Entry) bool {
	for _, e := range entries {
		if e.Entries != nil {
			return true
		}
	}
	return false
}

// merge folds one category's entries into its collection. Entries without any
// available format are upcoming content and are skipped entirely; they don't
// count as observed either.
func (a *Archive) merge(ctx context.Context, bucket *[]*Video, entries []fetch.Entry, kind string, seen map[string]struct{}) error {
	for _, entry := range entries {
		if len(entry.Formats) == 0 {
			continue
		}
		seen[entry.ID] = struct{}{}

		if existing := findVideo(*bucket, entry.ID); existing != nil {
			existing.Update(entry)
			continue
		}

		v, err := NewVideo(entry)
		if err != nil {
			return errors.Errorf("archiving new %s entry: %w", kind, err)
		}
		*bucket = append(*bucket, v)
		a.Reporter.AddAdded(report.Record{ID: v.ID, Title: v.Title.Current(), Kind: kind})
		zerolog.Ctx(ctx).Debug().Str("id", v.ID).Str("kind", kind).Msg("archived new video")
	}

	sortVideos(*bucket)
	return nil
}

// sweepDeleted marks every video that wasn't observed this pass and isn't
// already known to be deleted. This full sweep is the only removal detection
// there is; upstream never tells us directly.
func (a *Archive) sweepDeleted(bucket []*Video, kind string, seen map[string]struct{}) {
	for _, v := range bucket {
		if _, ok := seen[v.ID]; ok {
			continue
		}
		if v.Deleted.Current() {
			continue
		}
		v.Deleted.Update(time.Now(), true)
		a.Reporter.AddDeleted(report.Record{ID: v.ID, Title: v.Title.Current(), Kind: kind})
	}
}

func findVideo(bucket []*Video, id string) *Video {
	for _, v := range bucket {
		if v.ID == id {
			return v
		}
	}
	return nil
}
