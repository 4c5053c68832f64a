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
	"testing"
	"time"

	"github.com/gotofritz/yark/pkg/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine scripts one outcome per DownloadBatch call and records the urls
// it was handed.
type fakeEngine struct {
	calls  [][]string
	onCall func(call int, urls []string) error
}

func (f *fakeEngine) ChannelMetadata(ctx context.Context, url string) (*fetch.Metadata, error) {
	return &fetch.Metadata{}, nil
}

func (f *fakeEngine) DownloadBatch(ctx context.Context, urls []string) error {
	f.calls = append(f.calls, urls)
	return f.onCall(len(f.calls), urls)
}

func urlOf(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func init() {
	// Keep the outer retry loop fast under test.
	retryDelay = time.Millisecond
}

func TestDownloadMarksAllFetched(t *testing.T) {
	a := testArchive(t,
		testVideo("aaaaaaaaaaa", 2),
		testVideo("bbbbbbbbbbb", 1),
	)
	engine := &fakeEngine{onCall: func(call int, urls []string) error {
		for _, v := range a.Videos {
			markDownloaded(t, a, v.ID)
		}
		return nil
	}}

	require.NoError(t, Download(context.Background(), a, engine, Limits{}), "downloading")
	require.Len(t, engine.calls, 1, "one batch is enough when nothing fails")
	assert.Equal(t, []string{urlOf("aaaaaaaaaaa"), urlOf("bbbbbbbbbbb")}, engine.calls[0], "urls follow curation order")
}

func TestDownloadNothingPending(t *testing.T) {
	a := testArchive(t, testVideo("aaaaaaaaaaa", 1))
	markDownloaded(t, a, "aaaaaaaaaaa")

	engine := &fakeEngine{onCall: func(call int, urls []string) error {
		t.Fatal("engine should never be called with nothing to download")
		return nil
	}}
	require.NoError(t, Download(context.Background(), a, engine, Limits{}), "no-op download")
	assert.Empty(t, engine.calls, "no batch should run")
}

func TestDownloadRecoversFromRemovedVideo(t *testing.T) {
	a := testArchive(t,
		testVideo("aaaaaaaaaaa", 3),
		testVideo("bbbbbbbbbbb", 2),
		testVideo("ccccccccccc", 1),
	)

	engine := &fakeEngine{onCall: func(call int, urls []string) error {
		switch call {
		case 1:
			// Item #1 came down fine, then #2 turned out deleted.
			markDownloaded(t, a, "aaaaaaaaaaa")
			return &fetch.DownloadError{Kind: fetch.KindRemoved, VideoID: "bbbbbbbbbbb", Message: "This video has been removed by the uploader"}
		case 2:
			markDownloaded(t, a, "ccccccccccc")
			return nil
		default:
			t.Fatalf("unexpected call %d", call)
			return nil
		}
	}}

	require.NoError(t, Download(context.Background(), a, engine, Limits{}), "batch should complete despite the removed video")

	require.Len(t, engine.calls, 2, "recovery resumes inline without an outer retry")
	assert.Equal(t, []string{urlOf("aaaaaaaaaaa"), urlOf("bbbbbbbbbbb"), urlOf("ccccccccccc")}, engine.calls[0], "first call attempts everything")
	assert.Equal(t, []string{urlOf("ccccccccccc")}, engine.calls[1], "second call resumes after the removed video")

	removed := a.Videos[1]
	assert.True(t, removed.Deleted.Current(), "removed video gets its deletion flag")
	require.Len(t, a.Reporter.Deleted, 1, "removed video lands in the deleted bucket once")
	assert.Equal(t, "bbbbbbbbbbb", a.Reporter.Deleted[0].ID, "deleted record names the video")
}

func TestDownloadNoFormatSkipsWithoutDeleting(t *testing.T) {
	a := testArchive(t,
		testVideo("aaaaaaaaaaa", 2),
		testVideo("bbbbbbbbbbb", 1),
	)

	engine := &fakeEngine{onCall: func(call int, urls []string) error {
		switch call {
		case 1:
			return &fetch.DownloadError{Kind: fetch.KindNoFormat, Message: "Downloaded 10 bytes, expected 20 bytes"}
		default:
			markDownloaded(t, a, "bbbbbbbbbbb")
			return nil
		}
	}}

	require.NoError(t, Download(context.Background(), a, engine, Limits{}), "batch should survive a missing format")
	assert.False(t, a.Videos[0].Deleted.Current(), "a missing format is not a deletion")
	assert.Empty(t, a.Reporter.Deleted, "nothing goes in the deleted bucket")
	require.Len(t, engine.calls, 2, "the rest of the batch is still attempted")
	assert.Equal(t, []string{urlOf("bbbbbbbbbbb")}, engine.calls[1], "skip drops only the failing video")
}

func TestDownloadRetriesUnknownFailures(t *testing.T) {
	a := testArchive(t, testVideo("aaaaaaaaaaa", 1))

	engine := &fakeEngine{onCall: func(call int, urls []string) error {
		if call < 3 {
			return &fetch.DownloadError{Kind: fetch.KindTransient, Message: "timed out trying to reach the source"}
		}
		markDownloaded(t, a, "aaaaaaaaaaa")
		return nil
	}}

	require.NoError(t, Download(context.Background(), a, engine, Limits{}), "transient faults are retried")
	assert.Len(t, engine.calls, 3, "each transient fault consumes one outer attempt")
}

func TestDownloadExhaustsRetryBudget(t *testing.T) {
	a := testArchive(t, testVideo("aaaaaaaaaaa", 1))

	engine := &fakeEngine{onCall: func(call int, urls []string) error {
		return &fetch.DownloadError{Kind: fetch.KindTransient, Message: "fault within the source's servers"}
	}}

	err := Download(context.Background(), a, engine, Limits{})
	require.Error(t, err, "persistent faults are fatal after the budget")
	assert.Len(t, engine.calls, maxAttempts, "every attempt re-curates and retries")
	assert.Contains(t, err.Error(), "attempts", "error should mention the exhausted attempts")
}

func TestDownloadCleansStaleArtifacts(t *testing.T) {
	a := testArchive(t, testVideo("aaaaaaaaaaa", 1))
	stale := filepath.Join(a.VideosDir(), "aaaaaaaaaaa.mp4.part")
	ytdl := filepath.Join(a.VideosDir(), "aaaaaaaaaaa.ytdl")
	keep := filepath.Join(a.VideosDir(), "keepme.mp4")
	require.NoError(t, os.WriteFile(stale, nil, 0644))
	require.NoError(t, os.WriteFile(ytdl, nil, 0644))
	require.NoError(t, os.WriteFile(keep, nil, 0644))

	engine := &fakeEngine{onCall: func(call int, urls []string) error {
		markDownloaded(t, a, "aaaaaaaaaaa")
		return nil
	}}
	require.NoError(t, Download(context.Background(), a, engine, Limits{}), "downloading")

	assert.NoFileExists(t, stale, ".part artifacts are cleaned before starting")
	assert.NoFileExists(t, ytdl, ".ytdl artifacts are cleaned before starting")
	assert.FileExists(t, keep, "finished media files are left alone")
}
