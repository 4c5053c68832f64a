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

// Package operation offloads long-running calls onto a single background
// worker while the primary flow polls for completion to drive a spinner. The
// two users of this (metadata fetch and merge computation) run one at a time
// and are never cancelled mid-flight.
package operation

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

const (
	// spinnerGrace keeps fast calls from flashing a spinner at all.
	spinnerGrace = 2 * time.Second

	// pollInterval is how often the primary flow checks on the worker.
	pollInterval = 75 * time.Millisecond
)

// Run executes fn on a background worker and blocks until it finishes,
// showing title with a spinner once the call has been running past the grace
// period. The worker cannot be interrupted; fn is responsible for honoring
// ctx itself.
func Run(ctx context.Context, title string, fn func() error) error {
	var g errgroup.Group
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return fn()
	})

	grace := time.NewTimer(spinnerGrace)
	defer grace.Stop()
	select {
	case <-done:
		return g.Wait()
	case <-grace.C:
	}

	spinner, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(title)
	if err != nil {
		spinner = nil
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			if spinner != nil {
				spinner.Stop()
			}
			return g.Wait()
		case <-ticker.C:
		}
	}
}
