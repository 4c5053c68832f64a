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
	"time"

	"gitlab.com/tozd/go/errors"
)

// Snapshot is a single observation of an attribute at a point in time.
type Snapshot[T comparable] struct {
	Taken time.Time
	Value T
}

// Element is an append-only log of timestamped snapshots for one mutable
// attribute of a video. A snapshot is only recorded when the value actually
// changed, so repeat refreshes with identical metadata leave the log alone.
// An Element is never empty once created and is owned by exactly one video.
type Element[T comparable] struct {
	Snapshots []Snapshot[T]
}

// NewElement seeds the history with its first snapshot. A zero taken time
// means "now".
func NewElement[T comparable](taken time.Time, value T) Element[T] {
	if taken.IsZero() {
		taken = time.Now()
	}
	return Element[T]{Snapshots: []Snapshot[T]{{Taken: taken, Value: value}}}
}

// Update appends a snapshot if value differs from the latest one. A zero
// taken time means "now". Timestamps are kept non-decreasing: an earlier
// taken time is clamped to the latest snapshot's.
func (e *Element[T]) Update(taken time.Time, value T) {
	if taken.IsZero() {
		taken = time.Now()
	}
	if len(e.Snapshots) > 0 {
		last := e.Snapshots[len(e.Snapshots)-1]
		if last.Value == value {
			return
		}
		if taken.Before(last.Taken) {
			taken = last.Taken
		}
	}
	e.Snapshots = append(e.Snapshots, Snapshot[T]{Taken: taken, Value: value})
}

// Current returns the value of the latest snapshot.
func (e *Element[T]) Current() T {
	if len(e.Snapshots) == 0 {
		var zero T
		return zero
	}
	return e.Snapshots[len(e.Snapshots)-1].Value
}

// Len returns the number of recorded snapshots.
func (e *Element[T]) Len() int {
	return len(e.Snapshots)
}

// elementDoc is the persisted shape: {"history": [[unix_seconds, value], ...]}
type elementDoc[T comparable] struct {
	History []Snapshot[T] `json:"history"`
}

func (e Element[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(elementDoc[T]{History: e.Snapshots})
}

func (e *Element[T]) UnmarshalJSON(data []byte) error {
	var doc elementDoc[T]
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Errorf("decoding element history: %w", err)
	}
	e.Snapshots = doc.History
	return nil
}

func (s Snapshot[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{s.Taken.Unix(), s.Value})
}

func (s *Snapshot[T]) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return errors.Errorf("decoding snapshot pair: %w", err)
	}
	if len(pair) != 2 {
		return errors.Errorf("expected [timestamp, value] pair, got %d elements", len(pair))
	}
	var unix int64
	if err := json.Unmarshal(pair[0], &unix); err != nil {
		return errors.Errorf("decoding snapshot timestamp: %w", err)
	}
	if err := json.Unmarshal(pair[1], &s.Value); err != nil {
		return errors.Errorf("decoding snapshot value: %w", err)
	}
	s.Taken = time.Unix(unix, 0).UTC()
	return nil
}
