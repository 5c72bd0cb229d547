// Copyright 2025 The NLP Odyssey Authors
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

package hotsearch

import (
	"context"
	"encoding/json"

	"github.com/nlpodyssey/omni-hotsearch/history"
)

// runRecorder mirrors a run into a history.Store.
// Every failure is logged and otherwise ignored: history never changes the
// outcome of a run. A zero runRecorder records nothing.
type runRecorder struct {
	store history.Store
	runID string
}

func startRunRecorder(ctx context.Context, store history.Store, cfg Config, backend string) runRecorder {
	if store == nil {
		return runRecorder{}
	}
	runID, err := store.StartRun(ctx, history.RunInfo{
		Backend:    backend,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL.ValueOrFallback(""),
		MaxTopics:  cfg.MaxTopics,
		OutputPath: cfg.OutputPath,
	})
	if err != nil {
		Logger().Error("Failed to record run start", "error", err)
		return runRecorder{}
	}
	Logger().Debug("Recording run history", "run_id", runID)
	return runRecorder{store: store, runID: runID}
}

func (r runRecorder) enabled() bool {
	return r.store != nil && r.runID != ""
}

func (r runRecorder) recordEvent(ctx context.Context, event Event) {
	if !r.enabled() {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		Logger().Error("Failed to encode event for history", "kind", event.Kind(), "error", err)
		return
	}
	if err = r.store.AppendEvent(ctx, r.runID, string(event.Kind()), payload); err != nil {
		Logger().Error("Failed to record event", "run_id", r.runID, "error", err)
	}
}

func (r runRecorder) finish(ctx context.Context, runErr error) {
	if !r.enabled() {
		return
	}
	status, detail := history.StatusSucceeded, ""
	if runErr != nil {
		status, detail = history.StatusFailed, runErr.Error()
	}
	if err := r.store.FinishRun(context.WithoutCancel(ctx), r.runID, status, detail); err != nil {
		Logger().Error("Failed to record run end", "run_id", r.runID, "error", err)
	}
}
