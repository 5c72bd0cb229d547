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

package hotsearch_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nlpodyssey/omni-hotsearch/agentstesting"
	"github.com/nlpodyssey/omni-hotsearch/history"
	"github.com/nlpodyssey/omni-hotsearch/hotsearch"
	"github.com/nlpodyssey/omni-hotsearch/types/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOutputOnQuery(size int) func(context.Context, string, hotsearch.QueryOptions) error {
	return func(context.Context, string, hotsearch.QueryOptions) error {
		return os.WriteFile(hotsearch.DefaultOutputPath, make([]byte, size), 0o644)
	}
}

func TestRun_ExampleScenario(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := hotsearch.LoadConfig(envMap(map[string]string{
		"TIANAPI_KEY":       "abc123",
		"ANTHROPIC_API_KEY": "sk-test",
	}))
	require.NoError(t, err)

	svc := agentstesting.NewFakeService()
	svc.OnQuery = writeOutputOnQuery(2048)

	var stdout, stderr strings.Builder
	err = hotsearch.Run(t.Context(), cfg, svc, hotsearch.RunParams{Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)
	assert.Equal(t, 0, hotsearch.ExitCode(err))

	assert.Equal(t, "API Configuration:\n"+
		"  Base URL: (default)\n"+
		"  Model: claude-opus-4-5-20251101\n"+
		"\n"+
		"Starting Hotsearch Analysis Agent...\n"+
		"Max Topics: 15\n"+
		"Output Path: omni-hotsearch-report.html\n"+
		"\n"+
		"\n"+
		"Success! Report generated: omni-hotsearch-report.html (2 KB)\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRun_PassesConfigurationToService(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := hotsearch.LoadConfig(envMap(map[string]string{
		"TIANAPI_KEY":        "feed-key-0001",
		"ANTHROPIC_API_KEY":  "sk-test",
		"ANTHROPIC_BASE_URL": "https://proxy.example.com",
		"ANTHROPIC_MODEL":    "claude-sonnet-4-5",
		"MAX_TOPICS":         "5",
	}))
	require.NoError(t, err)

	svc := agentstesting.NewFakeService()
	svc.OnQuery = writeOutputOnQuery(10)

	var stdout strings.Builder
	require.NoError(t, hotsearch.Run(t.Context(), cfg, svc, hotsearch.RunParams{Stdout: &stdout, Stderr: &stdout}))

	require.Equal(t, 1, svc.Calls)
	opts := svc.LastQuery.Options
	assert.Equal(t, "claude-sonnet-4-5", opts.Model)
	assert.Equal(t, optional.Value("https://proxy.example.com"), opts.BaseURL)

	prompt := svc.LastQuery.Prompt
	assert.Contains(t, prompt, "omni-hotsearch-report.html")
	assert.Contains(t, prompt, "maxTopics: 5")
	assert.Contains(t, prompt, "https://apis.tianapi.com/networkhot/index?key=feed-key-0001")

	assert.Contains(t, stdout.String(), "  Base URL: https://proxy.example.com\n")
	assert.Contains(t, stdout.String(), "(0 KB)")
}

func TestRun_AgentFailureSkipsVerification(t *testing.T) {
	t.Chdir(t.TempDir())

	// A report left over from a previous run must not turn the failure into
	// a success.
	require.NoError(t, os.WriteFile(hotsearch.DefaultOutputPath, []byte("old"), 0o644))

	streamErr := errors.New("stream closed unexpectedly")
	svc := agentstesting.NewFakeService(
		hotsearch.AssistantTextEvent{Text: "working"},
	).WithError(streamErr)

	cfg := testConfig()
	var stdout, stderr strings.Builder
	err := hotsearch.Run(t.Context(), cfg, svc, hotsearch.RunParams{Stdout: &stdout, Stderr: &stderr})

	assert.ErrorAs(t, err, &hotsearch.AgentExecutionError{})
	assert.ErrorIs(t, err, streamErr)
	assert.Equal(t, 1, hotsearch.ExitCode(err))
	assert.Equal(t, "Agent execution failed: stream closed unexpectedly\n", stderr.String())
	assert.Contains(t, stdout.String(), "working\n")
	assert.NotContains(t, stdout.String(), "Success!")
}

func TestRun_MissingArtifact(t *testing.T) {
	t.Chdir(t.TempDir())

	svc := agentstesting.NewFakeService(
		hotsearch.AssistantTextEvent{Text: "All done!"},
		hotsearch.ResultEvent{Subtype: hotsearch.ResultSubtypeSuccess, NumTurns: optional.Value(3)},
	)

	var stdout, stderr strings.Builder
	err := hotsearch.Run(t.Context(), testConfig(), svc, hotsearch.RunParams{Stdout: &stdout, Stderr: &stderr})

	assert.ErrorAs(t, err, &hotsearch.ArtifactMissingError{})
	assert.Equal(t, 1, hotsearch.ExitCode(err))
	assert.Equal(t, "\nWarning: HTML report was not generated\n", stderr.String())
	assert.Contains(t, stdout.String(), "Total Turns: 3\n")
}

func TestRun_RecordsHistory(t *testing.T) {
	ctx := t.Context()
	t.Chdir(t.TempDir())

	store, err := history.NewSQLiteStore(ctx, history.SQLiteStoreParams{
		DBDataSourceName: filepath.Join(t.TempDir(), "history.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	svc := agentstesting.NewFakeService(
		hotsearch.AssistantTextEvent{Text: "hello"},
		hotsearch.ToolResultEvent{ToolName: "Write"},
		hotsearch.ResultEvent{Subtype: hotsearch.ResultSubtypeSuccess, TotalCostUSD: optional.Value(0.5)},
	)
	svc.OnQuery = writeOutputOnQuery(100)

	var stdout strings.Builder
	err = hotsearch.Run(ctx, testConfig(), svc, hotsearch.RunParams{
		Stdout:  &stdout,
		Stderr:  &stdout,
		History: store,
		Backend: "fake",
	})
	require.NoError(t, err)

	run := singleRun(t, store)
	assert.Equal(t, history.StatusSucceeded, run.Status)
	assert.Empty(t, run.Detail)
	assert.Equal(t, "fake", run.Backend)
	assert.Equal(t, hotsearch.DefaultModel, run.Model)

	events, err := store.Events(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "assistant_text", events[0].Kind)
	assert.JSONEq(t, `{"text":"hello"}`, string(events[0].Payload))
	assert.Equal(t, "tool_result", events[1].Kind)
	assert.Equal(t, "result", events[2].Kind)

	var result hotsearch.ResultEvent
	require.NoError(t, json.Unmarshal(events[2].Payload, &result))
	assert.Equal(t, optional.Value(0.5), result.TotalCostUSD)
	assert.False(t, result.NumTurns.Present)
}

func TestRun_RecordsFailure(t *testing.T) {
	ctx := t.Context()
	t.Chdir(t.TempDir())

	store, err := history.NewSQLiteStore(ctx, history.SQLiteStoreParams{
		DBDataSourceName: filepath.Join(t.TempDir(), "history.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	svc := agentstesting.NewFakeService()

	var out strings.Builder
	err = hotsearch.Run(ctx, testConfig(), svc, hotsearch.RunParams{Stdout: &out, Stderr: &out, History: store})
	require.Error(t, err)

	run := singleRun(t, store)
	assert.Equal(t, history.StatusFailed, run.Status)
	assert.Contains(t, run.Detail, "HTML report was not generated")
}

func singleRun(t *testing.T, store history.Store) history.RunRecord {
	t.Helper()
	runs, err := store.Runs(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	return runs[0]
}

func testConfig() hotsearch.Config {
	return hotsearch.Config{
		AnthropicAPIKey: "sk-test",
		Model:           hotsearch.DefaultModel,
		TianAPIKey:      "abc123",
		MaxTopics:       hotsearch.DefaultMaxTopics,
		OutputPath:      hotsearch.DefaultOutputPath,
	}
}
