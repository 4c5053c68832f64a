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
	"testing"

	"github.com/gotofritz/yark/pkg/fetch"
	"github.com/gotofritz/yark/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	return &Archive{
		Path:     t.TempDir(),
		Version:  CurrentVersion,
		URL:      "https://www.youtube.com/channel/UCtest",
		Reporter: report.New(),
	}
}

func flatDoc(entries ...fetch.Entry) *fetch.Metadata {
	return &fetch.Metadata{Entries: entries}
}

func TestRefreshFirstObservation(t *testing.T) {
	a := testArchive(t)

	err := a.Refresh(context.Background(), flatDoc(testEntry("aaaaaaaaaaa", "first video")))
	require.NoError(t, err, "refreshing empty archive")

	require.Len(t, a.Videos, 1, "one video should be archived")
	v := a.Videos[0]
	assert.Equal(t, "aaaaaaaaaaa", v.ID, "id should match the entry")
	assert.False(t, v.Downloaded(a.VideosDir()), "fresh video is not downloaded")
	require.Len(t, a.Reporter.Added, 1, "added bucket should have exactly one record")
	assert.Equal(t, v.ID, a.Reporter.Added[0].ID, "added record should name the video")
	assert.Empty(t, a.Reporter.Deleted, "nothing was deleted")
}

func TestRefreshIdempotent(t *testing.T) {
	a := testArchive(t)
	doc := flatDoc(testEntry("aaaaaaaaaaa", "one"), testEntry("bbbbbbbbbbb", "two"))

	require.NoError(t, a.Refresh(context.Background(), doc), "first refresh")
	a.Reporter.Reset()

	require.NoError(t, a.Refresh(context.Background(), doc), "second refresh with identical metadata")

	assert.Empty(t, a.Reporter.Added, "identical refresh adds nothing")
	assert.Empty(t, a.Reporter.Deleted, "identical refresh deletes nothing")
	for _, v := range a.Videos {
		assert.Equal(t, 1, v.Title.Len(), "title history should not grow")
		assert.Equal(t, 1, v.Views.Len(), "views history should not grow")
		assert.Equal(t, 1, v.Deleted.Len(), "deleted history should not grow")
	}
}

func TestRefreshDeletionSweep(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	both := flatDoc(testEntry("aaaaaaaaaaa", "keeps"), testEntry("bbbbbbbbbbb", "goes away"))
	require.NoError(t, a.Refresh(ctx, both), "refresh #1")
	a.Reporter.Reset()

	onlyOne := flatDoc(testEntry("aaaaaaaaaaa", "keeps"))
	require.NoError(t, a.Refresh(ctx, onlyOne), "refresh #2")

	gone, err := a.Search("bbbbbbbbbbb")
	require.NoError(t, err, "deleted videos stay in the archive")
	assert.True(t, gone.Deleted.Current(), "unobserved video should be marked deleted")
	require.Len(t, a.Reporter.Deleted, 1, "deleted bucket should have one record")
	assert.Equal(t, "bbbbbbbbbbb", a.Reporter.Deleted[0].ID, "deleted record should name the video")

	// A third refresh that still omits it must not report it again.
	require.NoError(t, a.Refresh(ctx, onlyOne), "refresh #3")
	assert.Len(t, a.Reporter.Deleted, 1, "a video appears in the deleted bucket at most once")
	assert.Equal(t, 2, gone.Deleted.Len(), "deleted history is false then true, nothing more")
}

func TestRefreshSkipsFormatlessEntries(t *testing.T) {
	a := testArchive(t)

	upcoming := testEntry("ccccccccccc", "premiere")
	upcoming.Formats = nil
	err := a.Refresh(context.Background(), flatDoc(testEntry("aaaaaaaaaaa", "released"), upcoming))
	require.NoError(t, err, "refresh with an upcoming entry")

	assert.Len(t, a.Videos, 1, "formatless entries never become videos")
	_, err = a.Search("ccccccccccc")
	assert.ErrorIs(t, err, ErrVideoNotFound, "upcoming entry should not be archived")
}

func TestRefreshGroupedCategories(t *testing.T) {
	a := testArchive(t)

	doc := &fetch.Metadata{Entries: []fetch.Entry{
		{Title: "Channel - Videos", Entries: []fetch.Entry{testEntry("aaaaaaaaaaa", "a video")}},
		{Title: "Channel - Live", Entries: []fetch.Entry{testEntry("bbbbbbbbbbb", "a stream")}},
		{Title: "Channel - Shorts", Entries: []fetch.Entry{testEntry("ccccccccccc", "a short")}},
	}}

	require.NoError(t, a.Refresh(context.Background(), doc), "refreshing grouped metadata")
	assert.Len(t, a.Videos, 1, "videos group should land in videos")
	assert.Len(t, a.Livestreams, 1, "live group should land in livestreams")
	assert.Len(t, a.Shorts, 1, "shorts group should land in shorts")
}

func TestRefreshGroupedEmptyFirstCategory(t *testing.T) {
	a := testArchive(t)

	// Decoded, an empty category is a present-but-empty entries list; it must
	// not make the document look flat and swallow the other categories.
	raw := `{"entries": [
		{"title": "Channel - Videos", "entries": []},
		{"title": "Channel - Shorts", "entries": [
			{"id": "ccccccccccc", "title": "a short", "upload_date": "20230601",
			 "formats": [{"format_id": "22", "ext": "mp4"}]}
		]}
	]}`
	var doc fetch.Metadata
	require.NoError(t, json.Unmarshal([]byte(raw), &doc), "decoding grouped metadata")

	require.NoError(t, a.Refresh(context.Background(), &doc), "refreshing")
	assert.Empty(t, a.Videos, "the empty videos group stays empty")
	require.Len(t, a.Shorts, 1, "the shorts group must not be dropped")
	assert.Equal(t, "ccccccccccc", a.Shorts[0].ID, "the short lands in its collection")
	assert.Empty(t, a.Reporter.Deleted, "nothing should be swept")
}

func TestRefreshUnknownCategoryFatal(t *testing.T) {
	a := testArchive(t)

	doc := &fetch.Metadata{Entries: []fetch.Entry{
		{Title: "Channel - Videos", Entries: []fetch.Entry{testEntry("aaaaaaaaaaa", "a video")}},
		{Title: "Channel - Podcasts", Entries: []fetch.Entry{testEntry("bbbbbbbbbbb", "a podcast")}},
	}}

	err := a.Refresh(context.Background(), doc)
	require.Error(t, err, "unknown category token must abort the refresh")
	assert.Contains(t, err.Error(), "Podcasts", "error should name the unknown kind")
	assert.Empty(t, a.Reporter.Added, "aborted refresh should not have merged the known group")
}

func TestRefreshSortsNewestFirst(t *testing.T) {
	a := testArchive(t)

	older := testEntry("aaaaaaaaaaa", "older")
	older.UploadDate = "20230101"
	newer := testEntry("bbbbbbbbbbb", "newer")
	newer.UploadDate = "20230601"

	require.NoError(t, a.Refresh(context.Background(), flatDoc(older, newer)), "refresh")
	require.Len(t, a.Videos, 2, "both videos archived")
	assert.Equal(t, "bbbbbbbbbbb", a.Videos[0].ID, "newest upload should sort first")
}
