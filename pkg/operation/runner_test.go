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

package operation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestRunReturnsResult(t *testing.T) {
	ran := false
	err := Run(context.Background(), "working..", func() error {
		ran = true
		return nil
	})
	require.NoError(t, err, "successful work should return nil")
	assert.True(t, ran, "the offloaded call should have run")
}

func TestRunPropagatesError(t *testing.T) {
	boom := errors.New("metadata fetch broke")
	err := Run(context.Background(), "working..", func() error { return boom })
	assert.ErrorIs(t, err, boom, "the worker's error should surface unwrapped")
}

func TestRunWaitsForCompletion(t *testing.T) {
	order := make(chan string, 2)
	err := Run(context.Background(), "working..", func() error {
		order <- "worker"
		return nil
	})
	require.NoError(t, err, "running")
	order <- "caller"
	assert.Equal(t, "worker", <-order, "Run only returns once the worker finished")
}
