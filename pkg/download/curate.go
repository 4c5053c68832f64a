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
	"github.com/gotofritz/yark/pkg/archive"
)

// Limits caps how many items per category are considered for download. A nil
// maximum means the whole collection; zero skips the category entirely.
type Limits struct {
	Videos      *int
	Livestreams *int
	Shorts      *int
}

// Curate selects the undownloaded videos across all three collections, in
// fixed category order. Each category is first cut to the prefix of its
// current sort order allowed by its maximum, so repeated runs pick
// deterministically.
func Curate(a *archive.Archive, limits Limits) []*archive.Video {
	dir := a.VideosDir()

	var pending []*archive.Video
	pending = append(pending, curateBucket(a.Videos, limits.Videos, dir)...)
	pending = append(pending, curateBucket(a.Livestreams, limits.Livestreams, dir)...)
	pending = append(pending, curateBucket(a.Shorts, limits.Shorts, dir)...)
	return pending
}

func curateBucket(videos []*archive.Video, max *int, dir string) []*archive.Video {
	if max != nil {
		if *max <= 0 {
			return nil
		}
		if *max < len(videos) {
			videos = videos[:*max]
		}
	}

	var pending []*archive.Video
	for _, v := range videos {
		if !v.Downloaded(dir) {
			pending = append(pending, v)
		}
	}
	return pending
}
