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

package history

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a SQLite-based implementation of Store.
//
// By default, uses an in-memory database that is lost when the process ends.
// For persistent storage, provide a file path.
type SQLiteStore struct {
	dbDSN       string
	runsTable   string
	eventsTable string
	db          *sql.DB
	mu          sync.Mutex
}

type SQLiteStoreParams struct {
	// Optional database data source name.
	// Defaults to "file::memory:?cache=shared".
	DBDataSourceName string

	// Optional name of the table to store run metadata.
	// Defaults to "hotsearch_runs".
	RunsTable string

	// Optional name of the table to store events.
	// Defaults to "hotsearch_events".
	EventsTable string
}

// NewSQLiteStore opens the database and initializes its schema.
func NewSQLiteStore(ctx context.Context, params SQLiteStoreParams) (_ *SQLiteStore, err error) {
	s := &SQLiteStore{
		dbDSN:       cmp.Or(params.DBDataSourceName, "file::memory:?cache=shared"),
		runsTable:   cmp.Or(params.RunsTable, "hotsearch_runs"),
		eventsTable: cmp.Or(params.EventsTable, "hotsearch_events"),
	}

	s.db, err = sql.Open("sqlite3", s.dbDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}

	defer func() {
		if err != nil {
			if e := s.Close(); e != nil {
				err = errors.Join(err, e)
			}
		}
	}()

	_, err = s.db.ExecContext(ctx, `PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	err = s.initDB(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) StartRun(ctx context.Context, info RunInfo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	_, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf(`
			INSERT INTO "%s" (run_id, backend, model, base_url, max_topics, output_path, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, s.runsTable),
		runID, info.Backend, info.Model, info.BaseURL, info.MaxTopics, info.OutputPath, StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("error inserting run: %w", err)
	}
	return runID, nil
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, runID string, kind string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO "%s" (run_id, kind, payload) VALUES (?, ?, ?)`, s.eventsTable),
		runID, kind, string(payload),
	)
	if err != nil {
		return fmt.Errorf("error inserting event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status string, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf(`
			UPDATE "%s"
			SET status = ?, detail = ?, finished_at = CURRENT_TIMESTAMP
			WHERE run_id = ?
		`, s.runsTable),
		status, detail, runID,
	)
	if err != nil {
		return fmt.Errorf("error updating run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %q not found", runID)
	}
	return nil
}

func (s *SQLiteStore) Events(ctx context.Context, runID string) (_ []EventRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(
		ctx,
		fmt.Sprintf(`
			SELECT id, kind, payload, created_at FROM "%s"
			WHERE run_id = ?
			ORDER BY id ASC
		`, s.eventsTable),
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying run events: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("error closing sql.Rows: %w", e))
		}
	}()

	var records []EventRecord
	for rows.Next() {
		var (
			r       EventRecord
			payload string
		)
		if err = rows.Scan(&r.Seq, &r.Kind, &payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sql rows scan error: %w", err)
		}
		r.Payload = []byte(payload)
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sql rows scan error: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Runs(ctx context.Context, limit int) (_ []RunRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`
		SELECT run_id, backend, model, base_url, max_topics, output_path, status, detail, started_at
		FROM "%s"
		ORDER BY started_at DESC, rowid DESC
	`, s.runsTable)
	var rows *sql.Rows
	if limit <= 0 {
		rows, err = s.db.QueryContext(ctx, query)
	} else {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("error closing sql.Rows: %w", e))
		}
	}()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		err = rows.Scan(&r.ID, &r.Backend, &r.Model, &r.BaseURL, &r.MaxTopics, &r.OutputPath,
			&r.Status, &r.Detail, &r.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("sql rows scan error: %w", err)
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sql rows scan error: %w", err)
	}
	return records, nil
}

// Initialize the database schema.
func (s *SQLiteStore) initDB(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			run_id TEXT PRIMARY KEY,
			backend TEXT NOT NULL,
			model TEXT NOT NULL,
			base_url TEXT NOT NULL,
			max_topics TEXT NOT NULL,
			output_path TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			finished_at TIMESTAMP
		)
	`, s.runsTable))
	if err != nil {
		return fmt.Errorf("error creating runs table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (run_id) REFERENCES "%s" (run_id) ON DELETE CASCADE
		)
	`, s.eventsTable, s.runsTable))
	if err != nil {
		return fmt.Errorf("error creating events table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS "idx_%s_run_id" ON "%s" (run_id, id)`,
		s.eventsTable, s.eventsTable))
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}

	return nil
}

// Close the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
