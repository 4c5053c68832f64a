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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gotofritz/yark/pkg/report"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// documentName is the archive document inside the archive root.
	documentName = "yark.json"

	// backupName is the companion copy of the previous document.
	backupName = "yark.bak"
)

var (
	// ErrArchiveNotFound is returned when the archive root or its document
	// doesn't exist.
	ErrArchiveNotFound = errors.New("archive doesn't exist")

	// ErrVideoNotFound is returned by Search for an unknown id.
	ErrVideoNotFound = errors.New("video not found in archive")
)

// Archive is the root aggregate: one channel's full history plus the three
// live collections. All mutation happens on the single primary flow of
// control; the collections need no locking.
type Archive struct {
	Path        string
	Version     int
	URL         string
	Videos      []*Video
	Livestreams []*Video
	Shorts      []*Video

	Reporter *report.Reporter
}

// archiveDoc is the persisted JSON shape of an archive.
type archiveDoc struct {
	Version     int      `json:"version"`
	URL         string   `json:"url"`
	Videos      []*Video `json:"videos"`
	Livestreams []*Video `json:"livestreams"`
	Shorts      []*Video `json:"shorts"`
}

// New seeds an empty archive at path for the given channel url and commits it
// immediately.
func New(ctx context.Context, path, url string) (*Archive, error) {
	zerolog.Ctx(ctx).Info().Str("path", path).Str("url", url).Msg("creating new archive")

	a := &Archive{
		Path:     path,
		Version:  CurrentVersion,
		URL:      url,
		Reporter: report.New(),
	}
	if err := a.Commit(ctx); err != nil {
		return nil, errors.Errorf("committing new archive: %w", err)
	}
	return a, nil
}

// Load reads an archive from path. A stale schema version is backed up and
// migrated in place before decoding, so a successfully loaded archive always
// carries CurrentVersion.
func Load(ctx context.Context, path string) (*Archive, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("path", path).Msg("loading archive")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.WithMessage(ErrArchiveNotFound, path)
	}

	data, err := os.ReadFile(filepath.Join(path, documentName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithMessage(ErrArchiveNotFound, path)
		}
		return nil, errors.Errorf("reading archive document: %w", err)
	}

	var versionPeek struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &versionPeek); err != nil {
		return nil, errors.Errorf("decoding archive version: %w", err)
	}

	if versionPeek.Version != CurrentVersion {
		// Back up the untouched document before reshaping it, so a bad
		// migration can always be undone by hand.
		if err := writeBackup(path, data); err != nil {
			return nil, errors.Errorf("backing up archive before migration: %w", err)
		}
		if data, err = Migrate(ctx, data, versionPeek.Version, CurrentVersion); err != nil {
			return nil, errors.Errorf("migrating archive: %w", err)
		}
	}

	var doc archiveDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Errorf("decoding archive document: %w", err)
	}

	return &Archive{
		Path:        path,
		Version:     doc.Version,
		URL:         doc.URL,
		Videos:      doc.Videos,
		Livestreams: doc.Livestreams,
		Shorts:      doc.Shorts,
		Reporter:    report.New(),
	}, nil
}

// Commit persists the archive: the previous document is backed up first, then
// the new one replaces it atomically. Nothing autosaves; callers commit once
// their transaction is done.
func (a *Archive) Commit(ctx context.Context) error {
	zerolog.Ctx(ctx).Info().Str("path", a.Path).Msg("committing archive")

	if prev, err := os.ReadFile(filepath.Join(a.Path, documentName)); err == nil {
		if err := writeBackup(a.Path, prev); err != nil {
			return errors.Errorf("backing up archive: %w", err)
		}
	}

	for _, dir := range []string{a.Path, filepath.Join(a.Path, "thumbnails"), a.VideosDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Errorf("creating archive directory: %w", err)
		}
	}

	doc := archiveDoc{
		Version:     a.Version,
		URL:         a.URL,
		Videos:      emptyIfNil(a.Videos),
		Livestreams: emptyIfNil(a.Livestreams),
		Shorts:      emptyIfNil(a.Shorts),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Errorf("encoding archive document: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(a.Path, documentName), data); err != nil {
		return errors.Errorf("writing archive document: %w", err)
	}
	return nil
}

// Search finds a video by id across all three collections.
func (a *Archive) Search(id string) (*Video, error) {
	for _, bucket := range [][]*Video{a.Videos, a.Livestreams, a.Shorts} {
		for _, v := range bucket {
			if v.ID == id {
				return v, nil
			}
		}
	}
	return nil, errors.WithMessage(ErrVideoNotFound, id)
}

// VideosDir is where media files live, named by video id.
func (a *Archive) VideosDir() string {
	return filepath.Join(a.Path, "videos")
}

// writeBackup saves the previous document as yark.bak with a provenance
// comment. The backup is never restored automatically.
func writeBackup(path string, previous []byte) error {
	header := fmt.Sprintf(
		"// Backup of a Yark archive, dated %s\n// Remove these comments and rename to '%s' to restore\n",
		time.Now().UTC().Format(time.RFC3339), documentName,
	)
	if err := writeFileAtomic(filepath.Join(path, backupName), append([]byte(header), previous...)); err != nil {
		return errors.Errorf("writing backup: %w", err)
	}
	return nil
}

// writeFileAtomic writes via a temp file and rename so a crash can't leave a
// half-written document behind.
func writeFileAtomic(path string, content []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func emptyIfNil(videos []*Video) []*Video {
	if videos == nil {
		return []*Video{}
	}
	return videos
}
