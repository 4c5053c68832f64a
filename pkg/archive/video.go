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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gotofritz/yark/pkg/fetch"
	"gitlab.com/tozd/go/errors"
)

// uploadDateLayout is the date format used by the extraction engine.
const uploadDateLayout = "20060102"

// partSuffixes mark files the engine is still writing; such a file never
// counts as downloaded.
var partSuffixes = []string{".part", ".ytdl"}

// Video is one tracked item of a channel: its immutable identity plus one
// Element per mutable attribute. A video is never physically removed from an
// archive; upstream removal only flips the Deleted element, preserving the
// full history.
type Video struct {
	ID          string          `json:"id"`
	Uploaded    time.Time       `json:"uploaded"`
	Title       Element[string] `json:"title"`
	Description Element[string] `json:"description"`
	Views       Element[int]    `json:"views"`
	Likes       Element[int]    `json:"likes"`
	Thumbnail   Element[string] `json:"thumbnail"`
	Deleted     Element[bool]   `json:"deleted"`
}

// NewVideo creates a video from a freshly fetched metadata entry.
func NewVideo(entry fetch.Entry) (*Video, error) {
	uploaded, err := time.Parse(uploadDateLayout, entry.UploadDate)
	if err != nil {
		return nil, errors.Errorf("parsing upload date of %s: %w", entry.ID, err)
	}

	now := time.Now()
	return &Video{
		ID:          entry.ID,
		Uploaded:    uploaded,
		Title:       NewElement(now, entry.Title),
		Description: NewElement(now, entry.Description),
		Views:       NewElement(now, entry.Views),
		Likes:       NewElement(now, likeCount(entry)),
		Thumbnail:   NewElement(now, entry.Thumbnail),
		Deleted:     NewElement(now, false),
	}, nil
}

// Update merges a re-observed metadata entry into the video's histories. Each
// element appends only when its value changed.
func (v *Video) Update(entry fetch.Entry) {
	var now time.Time // zero = element call-time clock
	v.Title.Update(now, entry.Title)
	v.Description.Update(now, entry.Description)
	v.Views.Update(now, entry.Views)
	v.Likes.Update(now, likeCount(entry))
	v.Thumbnail.Update(now, entry.Thumbnail)
	v.Deleted.Update(now, false)
}

// URL derives the canonical content url from the id.
func (v *Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Downloaded reports whether a finished media file for this video exists in
// videosDir. Files still carrying a partial-download suffix don't count.
func (v *Video) Downloaded(videosDir string) bool {
	files, err := os.ReadDir(videosDir)
	if err != nil {
		return false
	}
	for _, f := range files {
		name := f.Name()
		ext := filepath.Ext(name)
		if isPartSuffix(ext) {
			continue
		}
		if strings.TrimSuffix(name, ext) == v.ID {
			return true
		}
	}
	return false
}

// likeCount tolerates the engine reporting no like count at all.
func likeCount(entry fetch.Entry) int {
	if entry.Likes == nil {
		return 0
	}
	return *entry.Likes
}

func isPartSuffix(ext string) bool {
	for _, s := range partSuffixes {
		if ext == s {
			return true
		}
	}
	return false
}

// sortVideos orders a collection newest upload first; ties keep their
// refresh-encounter order.
func sortVideos(videos []*Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].Uploaded.After(videos[j].Uploaded)
	})
}
