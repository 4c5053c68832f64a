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
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// CurrentVersion is the archive document layout this code reads and writes.
//
// - Version 1 was the initial format.
// - Version 2 replaced the channel id with a plain url and introduced the
//   livestream and short collections.
// - Version 3 added the deleted element to every record.
//
// The format has no optional fields, so any new field is a breaking version
// bump with one more migration step below. That keeps the decoder trivial at
// the cost of a few lines per version.
const CurrentVersion = 3

// oldestVersion is the oldest document layout the chain can still bridge.
const oldestVersion = 1

// migrationStep reshapes a document from one version to the next. Steps only
// move fields around; they never interpret history.
type migrationStep func(doc map[string]any) error

// migrations is keyed by the version a step migrates FROM. Adding a future
// version is a pure data addition here.
var migrations = map[int]migrationStep{
	1: migrateV1toV2,
	2: migrateV2toV3,
}

// Migrate bridges a raw archive document from one schema version to another,
// one integer step at a time. Unknown versions are refused outright; guessing
// risks corrupting history.
func Migrate(ctx context.Context, data []byte, from, to int) ([]byte, error) {
	if from == to {
		return data, nil
	}
	if from < oldestVersion || from > to || to > CurrentVersion {
		return nil, errors.Errorf("unsupported archive version v%d (this build reads v%d)", from, CurrentVersion)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Errorf("decoding archive for migration: %w", err)
	}

	for v := from; v < to; v++ {
		step, ok := migrations[v]
		if !ok {
			return nil, errors.Errorf("no migration step from archive version v%d", v)
		}
		if err := step(doc); err != nil {
			return nil, errors.Errorf("migrating archive from v%d to v%d: %w", v, v+1, err)
		}
		doc["version"] = v + 1
	}

	zerolog.Ctx(ctx).Info().Int("from", from).Int("to", to).Msg("migrated archive")

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Errorf("encoding migrated archive: %w", err)
	}
	return out, nil
}

// migrateV1toV2 rewrites the stored channel id into its url and seeds the
// collections version 2 introduced.
func migrateV1toV2(doc map[string]any) error {
	id, ok := doc["id"].(string)
	if !ok {
		return errors.New("v1 archive has no channel id")
	}
	doc["url"] = "https://www.youtube.com/channel/" + id
	delete(doc, "id")
	doc["livestreams"] = []any{}
	doc["shorts"] = []any{}
	return nil
}

// migrateV2toV3 gives every record a deleted element seeded false.
func migrateV2toV3(doc map[string]any) error {
	now := time.Now().Unix()
	for _, bucket := range []string{"videos", "livestreams", "shorts"} {
		records, ok := doc[bucket].([]any)
		if !ok {
			return errors.Errorf("v2 archive has no %s collection", bucket)
		}
		for _, rec := range records {
			record, ok := rec.(map[string]any)
			if !ok {
				return errors.Errorf("malformed record in %s collection", bucket)
			}
			record["deleted"] = map[string]any{
				"history": []any{[]any{now, false}},
			}
		}
	}
	return nil
}
