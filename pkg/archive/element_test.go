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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementUpdate(t *testing.T) {
	tests := []struct {
		name        string
		values      []string
		wantLen     int
		wantCurrent string
	}{
		{
			name:        "duplicate_suppressed",
			values:      []string{"v1", "v1", "v3"},
			wantLen:     2,
			wantCurrent: "v3",
		},
		{
			name:        "all_identical",
			values:      []string{"same", "same", "same"},
			wantLen:     1,
			wantCurrent: "same",
		},
		{
			name:        "all_distinct",
			values:      []string{"a", "b", "c"},
			wantLen:     3,
			wantCurrent: "c",
		},
		{
			name:        "flip_back",
			values:      []string{"a", "b", "a"},
			wantLen:     3,
			wantCurrent: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewElement(time.Time{}, tt.values[0])
			for _, v := range tt.values[1:] {
				e.Update(time.Time{}, v)
			}
			assert.Equal(t, tt.wantLen, e.Len(), "snapshot count should match")
			assert.Equal(t, tt.wantCurrent, e.Current(), "current value should match")
		})
	}
}

func TestElementTimestampsNonDecreasing(t *testing.T) {
	base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	e := NewElement(base, 1)
	e.Update(base.Add(-time.Hour), 2)

	require.Equal(t, 2, e.Len(), "distinct value should append")
	assert.False(t, e.Snapshots[1].Taken.Before(e.Snapshots[0].Taken), "timestamps should never go backwards")
}

func TestElementSeededNeverEmpty(t *testing.T) {
	e := NewElement(time.Time{}, false)
	assert.Equal(t, 1, e.Len(), "a fresh element carries its seed snapshot")
	assert.False(t, e.Current(), "seed value should be readable")
}

func TestElementJSONRoundTrip(t *testing.T) {
	taken := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	e := NewElement(taken, "first")
	e.Update(taken.Add(time.Hour), "second")

	data, err := json.Marshal(e)
	require.NoError(t, err, "marshaling element")
	assert.JSONEq(t,
		`{"history":[[1685620800,"first"],[1685624400,"second"]]}`,
		string(data),
		"persisted shape should be timestamp/value pairs")

	var decoded Element[string]
	require.NoError(t, json.Unmarshal(data, &decoded), "unmarshaling element")
	assert.Equal(t, 2, decoded.Len(), "snapshot count should survive the round trip")
	assert.Equal(t, "second", decoded.Current(), "current value should survive the round trip")
	assert.True(t, decoded.Snapshots[0].Taken.Equal(taken), "timestamps should survive the round trip")
}

func TestElementJSONRejectsMalformedPair(t *testing.T) {
	var e Element[string]
	err := json.Unmarshal([]byte(`{"history":[[1685620800]]}`), &e)
	require.Error(t, err, "a pair with one element should be rejected")
	assert.Contains(t, err.Error(), "pair", "error should mention the pair shape")
}
