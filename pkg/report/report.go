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

package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Record identifies one video inside a report bucket. Buckets hold plain
// records rather than live archive state so that presentation can never
// mutate history.
type Record struct {
	ID    string
	Title string
	Kind  string // videos / livestreams / shorts
}

// Reporter collects what changed during one top-level operation: videos first
// seen this session and videos newly discovered to be deleted. The archive
// only ever appends; how the buckets are displayed is this package's problem.
type Reporter struct {
	Session uuid.UUID
	Added   []Record
	Deleted []Record
}

// New creates an empty reporter with a fresh session id.
func New() *Reporter {
	return &Reporter{Session: uuid.New()}
}

// Reset clears both buckets for the next top-level operation.
func (r *Reporter) Reset() {
	r.Session = uuid.New()
	r.Added = nil
	r.Deleted = nil
}

// AddAdded records a newly archived video.
func (r *Reporter) AddAdded(rec Record) {
	r.Added = append(r.Added, rec)
}

// AddDeleted records a video newly discovered to be removed upstream.
func (r *Reporter) AddDeleted(rec Record) {
	r.Deleted = append(r.Deleted, rec)
}

// Print writes a colored summary of the session to w.
func (r *Reporter) Print(w io.Writer) {
	if len(r.Added) == 0 && len(r.Deleted) == 0 {
		fmt.Fprintln(w, "No changes found")
		return
	}

	added := color.New(color.FgGreen)
	deleted := color.New(color.FgRed)

	for _, rec := range r.Added {
		added.Fprintf(w, "  + %s (%s)\n", rec.Title, rec.ID)
	}
	for _, rec := range r.Deleted {
		deleted.Fprintf(w, "  - %s (%s)\n", rec.Title, rec.ID)
	}
	fmt.Fprintf(w, "%d added, %d deleted (session %s)\n", len(r.Added), len(r.Deleted), r.Session)
}
