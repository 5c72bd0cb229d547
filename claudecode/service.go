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

// Package claudecode runs hotsearch tasks with the Claude Code CLI in
// non-interactive mode, decoding its stream-json output into events.
package claudecode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/nlpodyssey/omni-hotsearch/hotsearch"
	"github.com/nlpodyssey/omni-hotsearch/util"
)

const (
	DefaultPath = "claude"

	maxLineSize   = 16 * 1024 * 1024
	stderrTailLen = 4096
)

// ProcessError is returned when the CLI exits with a non-zero status.
type ProcessError struct {
	ExitCode int

	// Last bytes written by the process to stderr.
	Stderr string
}

func (err ProcessError) Error() string {
	msg := fmt.Sprintf("claude process exited with code %d", err.ExitCode)
	if s := strings.TrimSpace(err.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Service implements hotsearch.Service on top of the Claude Code CLI.
type Service struct {
	// Path of the CLI executable. Defaults to DefaultPath, resolved in PATH.
	Path string

	// Arguments placed before the generated ones.
	PrefixArgs []string

	// Working directory of the process. Defaults to the current one.
	Dir string

	// Additional environment entries, applied over the current environment.
	Env []string
}

func New(path string) *Service {
	return &Service{Path: path}
}

// Query starts the CLI when the returned sequence is first ranged over.
// The prompt is written to the process's stdin.
//
// Events decoded before a failure are yielded before the error is
// reported. Breaking out of the loop kills the process.
func (s *Service) Query(ctx context.Context, prompt string, opts hotsearch.QueryOptions) util.SeqErr[hotsearch.Event] {
	return util.SeqErrFunc(func(yield func(hotsearch.Event) bool) error {
		return s.run(ctx, prompt, opts, yield)
	})
}

func (s *Service) run(ctx context.Context, prompt string, opts hotsearch.QueryOptions, yield func(hotsearch.Event) bool) error {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	args := append(append([]string(nil), s.PrefixArgs...), Args(opts)...)

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = s.Dir
	cmd.Env = append(append(os.Environ(), s.Env...), Environ(opts)...)
	cmd.Stdin = strings.NewReader(prompt)

	stderr := &tailBuffer{max: stderrTailLen}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err = cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", path, err)
	}
	hotsearch.Logger().Debug("Started agent process", "path", path, "pid", cmd.Process.Pid)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	dec := newDecoder()
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		for _, event := range dec.decode(line) {
			if !yield(event) {
				_ = cmd.Process.Kill()
				_ = cmd.Wait()
				return nil
			}
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// Unblock the process if it is still writing.
		_ = cmd.Process.Kill()
	}

	waitErr := cmd.Wait()
	hotsearch.Logger().Debug("Agent process exited", "pid", cmd.Process.Pid, "error", waitErr)

	if err = ctx.Err(); err != nil {
		return err
	}
	if scanErr != nil {
		return fmt.Errorf("error reading agent output: %w", scanErr)
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return ProcessError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	return waitErr
}

// Args returns the CLI arguments matching opts.
func Args(opts hotsearch.QueryOptions) []string {
	args := []string{"--print", "--output-format", "stream-json", "--verbose"}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(opts.AllowedTools, ","))
	}
	if opts.PermissionMode != "" {
		args = append(args, "--permission-mode", opts.PermissionMode)
	}
	if opts.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(opts.MaxTurns))
	}
	if opts.MaxBudgetUSD > 0 {
		args = append(args, "--max-budget-usd", strconv.FormatFloat(opts.MaxBudgetUSD, 'f', 2, 64))
	}
	return args
}

// Environ returns the environment entries carrying the credential and
// endpoint of opts.
func Environ(opts hotsearch.QueryOptions) []string {
	var env []string
	if opts.APIKey != "" {
		env = append(env, "ANTHROPIC_API_KEY="+opts.APIKey)
	}
	if v, ok := opts.BaseURL.Get(); ok {
		env = append(env, "ANTHROPIC_BASE_URL="+v)
	}
	return env
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

var _ hotsearch.Service = (*Service)(nil)
