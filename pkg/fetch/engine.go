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
)

// Engine is the narrow contract the archiver has with the external
// extraction/download machinery. The archive core never talks to yt-dlp
// directly; it only consumes this interface.
type Engine interface {
	// ChannelMetadata extracts the full metadata document for a channel url
	// without downloading any media.
	ChannelMetadata(ctx context.Context, url string) (*Metadata, error)

	// DownloadBatch fetches each of the given content urls in order. It
	// returns a *DownloadError when a failure can be attributed to a single
	// item or classified, any other error otherwise.
	DownloadBatch(ctx context.Context, urls []string) error
}

// Metadata is the document returned by a channel metadata extraction. For a
// pure-video channel Entries holds the videos directly; for a channel with
// livestreams or shorts each top-level entry is a group whose trailing title
// token names the category and whose Entries holds the actual items.
type Metadata struct {
	Entries []Entry `json:"entries"`
}

// Entry is one metadata record: either a content item or a category group.
type Entry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Views       int      `json:"view_count"`
	Likes       *int     `json:"like_count"`
	Thumbnail   string   `json:"thumbnail"`
	UploadDate  string   `json:"upload_date"` // YYYYMMDD
	Formats     []Format `json:"formats"`
	Entries     []Entry  `json:"entries"`
}

// Format is one available media format of an entry. Entries without any
// format are upcoming or unreleased and are never archived.
type Format struct {
	ID   string `json:"format_id"`
	Ext  string `json:"ext"`
	Note string `json:"format_note"`
}

// ProgressEvent is a pure progress notification emitted while media is being
// fetched. Presentation is entirely up to the consumer; the core never blocks
// on or inspects display state.
type ProgressEvent struct {
	VideoID  string
	Percent  float64
	Finished bool
}
