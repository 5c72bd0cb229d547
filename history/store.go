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

// Package history persists hotsearch runs and the progress events they
// produced, so that past runs can be inspected after the console output
// is gone.
package history

import (
	"context"
	"strings"
	"time"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// RunInfo is the metadata stored when a run starts.
// It never contains credentials.
type RunInfo struct {
	Backend    string
	Model      string
	BaseURL    string
	MaxTopics  string
	OutputPath string
}

// RunRecord is one stored run.
type RunRecord struct {
	ID string
	RunInfo
	Status    string
	Detail    string
	StartedAt time.Time
}

// EventRecord is one stored progress event.
type EventRecord struct {
	Seq       int64
	Kind      string
	Payload   []byte
	CreatedAt time.Time
}

// A Store records runs and their events.
type Store interface {
	// StartRun creates a new run in the running state and returns its ID.
	StartRun(ctx context.Context, info RunInfo) (string, error)

	// AppendEvent stores an event of the given run. Events are kept in
	// the order they are appended.
	AppendEvent(ctx context.Context, runID string, kind string, payload []byte) error

	// FinishRun sets the final status of a run, with an optional detail
	// message (e.g. the error that ended it).
	FinishRun(ctx context.Context, runID string, status string, detail string) error

	// Runs returns the most recent runs, newest first.
	// If limit <= 0, all runs are returned.
	Runs(ctx context.Context, limit int) ([]RunRecord, error)

	// Events returns all events of a run in chronological order.
	Events(ctx context.Context, runID string) ([]EventRecord, error)

	Close() error
}

// Open returns the Store matching dsn: PostgreSQL for postgres:// and
// postgresql:// URLs, SQLite otherwise (dsn is then a file path or a
// sqlite3 DSN).
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		s, err := NewPgStore(ctx, PgStoreParams{ConnectionString: dsn})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := NewSQLiteStore(ctx, SQLiteStoreParams{DBDataSourceName: dsn})
	if err != nil {
		return nil, err
	}
	return s, nil
}
