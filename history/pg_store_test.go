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
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPgConn is a mock implementation of PgConnInterface for testing
type MockPgConn struct {
	mock.Mock
}

func (m *MockPgConn) Query(ctx context.Context, sql string, args ...any) (PgRowsInterface, error) {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	return ret.Get(0).(PgRowsInterface), ret.Error(1)
}

func (m *MockPgConn) QueryRow(ctx context.Context, sql string, args ...any) PgRowInterface {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	return ret.Get(0).(PgRowInterface)
}

func (m *MockPgConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	return ret.Get(0).(pgconn.CommandTag), ret.Error(1)
}

func (m *MockPgConn) Close(ctx context.Context) error {
	ret := m.Called(ctx)
	return ret.Error(0)
}

// MockPgRows is a mock implementation of PgRowsInterface returning event rows.
type MockPgRows struct {
	data []EventRecord
	pos  int
}

func NewMockPgRows(data []EventRecord) *MockPgRows {
	return &MockPgRows{data: data, pos: -1}
}

func (m *MockPgRows) Next() bool {
	m.pos++
	return m.pos < len(m.data)
}

func (m *MockPgRows) Scan(dest ...any) error {
	if m.pos >= len(m.data) {
		return fmt.Errorf("no more rows")
	}
	if len(dest) != 4 {
		return fmt.Errorf("expected 4 destinations, got %d", len(dest))
	}
	r := m.data[m.pos]
	*dest[0].(*int64) = r.Seq
	*dest[1].(*string) = r.Kind
	*dest[2].(*string) = string(r.Payload)
	*dest[3].(*time.Time) = r.CreatedAt
	return nil
}

func (m *MockPgRows) Err() error {
	return nil
}

func (m *MockPgRows) Close() {}

func isSQL(fragment string) any {
	return mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, fragment)
	})
}

func createMockPgStore(t *testing.T, mockConn *MockPgConn) *PgStore {
	mockConn.On("Exec", mock.Anything, mock.AnythingOfType("string")).
		Return(pgconn.CommandTag{}, nil).Times(3)

	store, err := NewPgStore(t.Context(), PgStoreParams{
		RunsTable:   "test_runs",
		EventsTable: "test_events",
		Conn:        mockConn,
	})
	require.NoError(t, err)
	return store
}

func TestPgStore_NewPgStore(t *testing.T) {
	ctx := t.Context()

	t.Run("missing connection string and no conn provided", func(t *testing.T) {
		_, err := NewPgStore(ctx, PgStoreParams{})
		assert.ErrorContains(t, err, "connection string is required")
	})

	t.Run("successful creation with mock connection", func(t *testing.T) {
		mockConn := &MockPgConn{}
		mockConn.On("Exec", mock.Anything, isSQL("CREATE TABLE IF NOT EXISTS test_runs")).
			Return(pgconn.CommandTag{}, nil).Once()
		mockConn.On("Exec", mock.Anything, isSQL("CREATE TABLE IF NOT EXISTS test_events")).
			Return(pgconn.CommandTag{}, nil).Once()
		mockConn.On("Exec", mock.Anything, isSQL("CREATE INDEX IF NOT EXISTS idx_test_events_run_id")).
			Return(pgconn.CommandTag{}, nil).Once()

		store, err := NewPgStore(ctx, PgStoreParams{
			RunsTable:   "test_runs",
			EventsTable: "test_events",
			Conn:        mockConn,
		})
		require.NoError(t, err)
		assert.Equal(t, "test_runs", store.runsTable)
		assert.Equal(t, "test_events", store.eventsTable)

		mockConn.AssertExpectations(t)
	})

	t.Run("schema error closes the connection", func(t *testing.T) {
		mockConn := &MockPgConn{}
		mockConn.On("Exec", mock.Anything, mock.AnythingOfType("string")).
			Return(pgconn.CommandTag{}, errors.New("permission denied")).Once()
		mockConn.On("Close", mock.Anything).Return(nil).Once()

		_, err := NewPgStore(ctx, PgStoreParams{Conn: mockConn})
		assert.ErrorContains(t, err, "error creating runs table: permission denied")

		mockConn.AssertExpectations(t)
	})
}

func TestPgStore_StartRun(t *testing.T) {
	mockConn := &MockPgConn{}
	store := createMockPgStore(t, mockConn)

	mockConn.On("Exec", mock.Anything, isSQL("INSERT INTO test_runs"),
		mock.AnythingOfType("string"), "local", "claude-opus-4-5-20251101", "", "15",
		"omni-hotsearch-report.html", StatusRunning,
	).Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Once()

	runID, err := store.StartRun(t.Context(), RunInfo{
		Backend:    "local",
		Model:      "claude-opus-4-5-20251101",
		MaxTopics:  "15",
		OutputPath: "omni-hotsearch-report.html",
	})
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	mockConn.AssertExpectations(t)
}

func TestPgStore_AppendEvent(t *testing.T) {
	mockConn := &MockPgConn{}
	store := createMockPgStore(t, mockConn)

	mockConn.On("Exec", mock.Anything, isSQL("INSERT INTO test_events"),
		"run-1", "tool_result", `{"tool_name":"Write"}`,
	).Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Once()

	err := store.AppendEvent(t.Context(), "run-1", "tool_result", []byte(`{"tool_name":"Write"}`))
	require.NoError(t, err)

	mockConn.AssertExpectations(t)
}

func TestPgStore_FinishRun(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		mockConn := &MockPgConn{}
		store := createMockPgStore(t, mockConn)

		mockConn.On("Exec", mock.Anything, isSQL("UPDATE test_runs"), StatusSucceeded, "", "run-1").
			Return(pgconn.NewCommandTag("UPDATE 1"), nil).Once()

		require.NoError(t, store.FinishRun(t.Context(), "run-1", StatusSucceeded, ""))
		mockConn.AssertExpectations(t)
	})

	t.Run("unknown run", func(t *testing.T) {
		mockConn := &MockPgConn{}
		store := createMockPgStore(t, mockConn)

		mockConn.On("Exec", mock.Anything, isSQL("UPDATE test_runs"), StatusFailed, "boom", "missing").
			Return(pgconn.NewCommandTag("UPDATE 0"), nil).Once()

		err := store.FinishRun(t.Context(), "missing", StatusFailed, "boom")
		assert.ErrorContains(t, err, `run "missing" not found`)
		mockConn.AssertExpectations(t)
	})
}

func TestPgStore_Events(t *testing.T) {
	mockConn := &MockPgConn{}
	store := createMockPgStore(t, mockConn)

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	rows := []EventRecord{
		{Seq: 1, Kind: "assistant_text", Payload: []byte(`{"text":"hi"}`), CreatedAt: now},
		{Seq: 2, Kind: "result", Payload: []byte(`{"subtype":"success"}`), CreatedAt: now},
	}
	mockConn.On("Query", mock.Anything, isSQL("FROM test_events"), "run-1").
		Return(NewMockPgRows(rows), nil).Once()

	got, err := store.Events(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	mockConn.AssertExpectations(t)
}

func TestPgStore_Close(t *testing.T) {
	mockConn := &MockPgConn{}
	store := createMockPgStore(t, mockConn)

	mockConn.On("Close", mock.Anything).Return(nil).Once()
	require.NoError(t, store.Close())

	mockConn.AssertExpectations(t)
}

// MockPgRunRows is a mock implementation of PgRowsInterface returning run rows.
type MockPgRunRows struct {
	data []RunRecord
	pos  int
}

func (m *MockPgRunRows) Next() bool {
	m.pos++
	return m.pos < len(m.data)
}

func (m *MockPgRunRows) Scan(dest ...any) error {
	if len(dest) != 9 {
		return fmt.Errorf("expected 9 destinations, got %d", len(dest))
	}
	r := m.data[m.pos]
	values := []string{r.ID, r.Backend, r.Model, r.BaseURL, r.MaxTopics, r.OutputPath, r.Status, r.Detail}
	for i, v := range values {
		*dest[i].(*string) = v
	}
	*dest[8].(*time.Time) = r.StartedAt
	return nil
}

func (m *MockPgRunRows) Err() error { return nil }
func (m *MockPgRunRows) Close()     {}

func TestPgStore_Runs(t *testing.T) {
	mockConn := &MockPgConn{}
	store := createMockPgStore(t, mockConn)

	runs := []RunRecord{{
		ID:        "run-2",
		RunInfo:   RunInfo{Backend: "local", Model: "m", MaxTopics: "15", OutputPath: "r.html"},
		Status:    StatusSucceeded,
		StartedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}}
	mockConn.On("Query", mock.Anything, isSQL("LIMIT $1"), 1).
		Return(&MockPgRunRows{data: runs, pos: -1}, nil).Once()

	got, err := store.Runs(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, runs, got)

	mockConn.AssertExpectations(t)
}
