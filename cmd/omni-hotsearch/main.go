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

// omni-hotsearch collects trending topics, has an agent research and score
// each of them, and writes a self-contained HTML report to
// omni-hotsearch-report.html in the current directory.
//
// Configuration comes from the environment (ANTHROPIC_API_KEY, TIANAPI_KEY,
// ANTHROPIC_BASE_URL, ANTHROPIC_MODEL, MAX_TOPICS, HOTSEARCH_BACKEND,
// HOTSEARCH_HISTORY_DSN); flags override the last two.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nlpodyssey/omni-hotsearch/claudecode"
	"github.com/nlpodyssey/omni-hotsearch/history"
	"github.com/nlpodyssey/omni-hotsearch/hotsearch"
	"github.com/nlpodyssey/omni-hotsearch/localagent"
	"github.com/spf13/pflag"
)

const (
	BackendClaudeCode = "claude-code"
	BackendLocal      = "local"
)

type options struct {
	Backend    string
	ClaudePath string
	HistoryDSN string
	Verbose    bool
	ListRuns   int
}

// environment holds the process dependencies of run.
type environment struct {
	Getenv     func(string) string
	Stdout     io.Writer
	Stderr     io.Writer
	NewService func(options) (hotsearch.Service, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], environment{
		Getenv:     os.Getenv,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		NewService: newService,
	})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, env environment) int {
	opts, err := parseFlags(args, env)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.Verbose {
		hotsearch.EnableVerboseStderrLogging()
	}

	if opts.ListRuns > 0 {
		if err = listRuns(ctx, opts, env.Stdout); err != nil {
			_, _ = fmt.Fprintf(env.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	cfg, err := hotsearch.LoadConfig(env.Getenv)
	if err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return 1
	}

	svc, err := env.NewService(opts)
	if err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return 1
	}

	var store history.Store
	if opts.HistoryDSN != "" {
		store, err = history.Open(ctx, opts.HistoryDSN)
		if err != nil {
			hotsearch.Logger().Warn("Run history disabled", "error", err)
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					hotsearch.Logger().Warn("Failed to close run history", "error", err)
				}
			}()
		}
	}

	err = hotsearch.Run(ctx, cfg, svc, hotsearch.RunParams{
		Stdout:  env.Stdout,
		Stderr:  env.Stderr,
		History: store,
		Backend: opts.Backend,
	})
	return hotsearch.ExitCode(err)
}

func parseFlags(args []string, env environment) (options, error) {
	opts := options{
		Backend:    cmp.Or(env.Getenv("HOTSEARCH_BACKEND"), BackendClaudeCode),
		ClaudePath: claudecode.DefaultPath,
		HistoryDSN: env.Getenv("HOTSEARCH_HISTORY_DSN"),
	}

	flagSet := pflag.NewFlagSet("omni-hotsearch", pflag.ContinueOnError)
	flagSet.SetOutput(env.Stderr)
	flagSet.StringVar(&opts.Backend, "backend", opts.Backend, `agent backend: "claude-code" or "local" (env HOTSEARCH_BACKEND)`)
	flagSet.StringVar(&opts.ClaudePath, "claude-path", opts.ClaudePath, "path of the Claude Code CLI executable")
	flagSet.StringVar(&opts.HistoryDSN, "history-dsn", opts.HistoryDSN, "record runs in a SQLite file or postgres:// database (env HOTSEARCH_HISTORY_DSN)")
	flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging to stderr")
	flagSet.IntVar(&opts.ListRuns, "list-runs", 0, "print the N most recent recorded runs and exit")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	switch opts.Backend {
	case BackendClaudeCode, BackendLocal:
	default:
		return options{}, fmt.Errorf("unknown backend %q", opts.Backend)
	}
	if opts.ListRuns > 0 && opts.HistoryDSN == "" {
		return options{}, errors.New("--list-runs requires --history-dsn or HOTSEARCH_HISTORY_DSN")
	}
	return opts, nil
}

func newService(opts options) (hotsearch.Service, error) {
	switch opts.Backend {
	case BackendClaudeCode:
		return claudecode.New(opts.ClaudePath), nil
	case BackendLocal:
		return localagent.New(localagent.ServiceParams{}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

func listRuns(ctx context.Context, opts options, w io.Writer) (err error) {
	store, err := history.Open(ctx, opts.HistoryDSN)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, store.Close()) }()

	runs, err := store.Runs(ctx, opts.ListRuns)
	if err != nil {
		return err
	}
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s  %s  %-9s  %-11s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.ID, r.Status, r.Backend, r.Model)
	}
	return nil
}
