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
	"fmt"
	"regexp"
	"strings"
)

// ErrorKind classifies a download failure. The archiver's recovery logic
// branches on kinds, never on message text; message matching is confined to
// Classify at this adapter boundary.
type ErrorKind int

const (
	// KindUnknown is any failure we can't attribute; callers treat it like a
	// transient fault and spend a retry on it.
	KindUnknown ErrorKind = iota

	// KindPrivate means the item was made private after it was archived.
	KindPrivate

	// KindRemoved means the item was removed by its uploader.
	KindRemoved

	// KindNoFormat means no compatible media format could be produced,
	// typically because ffmpeg is missing.
	KindNoFormat

	// KindTransient covers connectivity problems, server faults and timeouts.
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindPrivate:
		return "private"
	case KindRemoved:
		return "removed"
	case KindNoFormat:
		return "no format"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// DownloadError is a classified failure from the external engine, optionally
// attributed to a single video.
type DownloadError struct {
	Kind    ErrorKind
	VideoID string
	Message string
}

func (e *DownloadError) Error() string {
	if e.VideoID != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.VideoID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// PerItem reports whether the failure is permanently attached to one item and
// should be recovered inline rather than spending a retry.
func (e *DownloadError) PerItem() bool {
	return e.Kind == KindPrivate || e.Kind == KindRemoved || e.Kind == KindNoFormat
}

// videoIDPattern matches the extractor prefix yt-dlp puts in front of
// per-item errors, e.g. "ERROR: [youtube] dQw4w9WgXcQ: Private video".
var videoIDPattern = regexp.MustCompile(`\[[\w:]+\] ([0-9A-Za-z_-]{11})[:\s]`)

// transientMessages maps raw engine output fragments to friendlier
// diagnostics for faults worth retrying.
var transientMessages = []struct {
	fragment string
	message  string
}{
	{"nodename nor servname provided", "issue connecting with the source's servers"},
	{"500", "fault within the source's servers"},
	{"read operation timed out", "timed out trying to download media"},
	{"HTTP Error 404", "couldn't find the channel by its id"},
	{"urlopen error timed out", "timed out trying to reach the source"},
}

// Classify turns raw engine output into a structured DownloadError. This is
// the only place in the repository where human-readable engine messages are
// inspected.
func Classify(raw string) *DownloadError {
	derr := &DownloadError{Kind: KindUnknown, Message: strings.TrimSpace(raw)}
	if m := videoIDPattern.FindStringSubmatch(raw); m != nil {
		derr.VideoID = m[1]
	}

	switch {
	case strings.Contains(raw, "Private video"):
		derr.Kind = KindPrivate
	case strings.Contains(raw, "This video has been removed by the uploader"):
		derr.Kind = KindRemoved
	// yt-dlp doesn't expose its ContentTooShortError, so the missing-ffmpeg
	// case is only recognizable by this fragment.
	case strings.Contains(raw, " bytes, expected "):
		derr.Kind = KindNoFormat
	default:
		for _, t := range transientMessages {
			if strings.Contains(raw, t.fragment) {
				derr.Kind = KindTransient
				derr.Message = t.message
				break
			}
		}
	}
	return derr
}
