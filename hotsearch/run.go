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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nlpodyssey/omni-hotsearch/history"
)

type RunParams struct {
	// Defaults to os.Stdout.
	Stdout io.Writer

	// Defaults to os.Stderr.
	Stderr io.Writer

	// Optional store where the run and its events are recorded.
	History history.Store

	// Name of the agent service backend, only used for history.
	Backend string
}

// Run executes the whole workflow: configuration echo, prompt building,
// agent execution and output verification.
//
// The returned error is one of AgentExecutionError or ArtifactMissingError
// (or a wrapped I/O error from the verification step). The verifier is
// not called when the agent execution fails.
func Run(ctx context.Context, cfg Config, svc Service, params RunParams) (err error) {
	stdout, stderr := params.Stdout, params.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	if err = cfg.WriteSummary(stdout); err != nil {
		return err
	}

	prompt := BuildPrompt(cfg)

	_, _ = fmt.Fprintf(stdout, "Starting Hotsearch Analysis Agent...\nMax Topics: %s\nOutput Path: %s\n\n",
		cfg.MaxTopics, cfg.OutputPath)

	recorder := startRunRecorder(ctx, params.History, cfg, params.Backend)
	defer func() { recorder.finish(ctx, err) }()

	_, err = Drive(ctx, svc, DriveParams{
		Prompt:  prompt,
		Options: NewQueryOptions(cfg),
		Output:  stdout,
		OnEvent: recorder.recordEvent,
	})
	if err != nil {
		cause := err
		var execErr AgentExecutionError
		if errors.As(err, &execErr) {
			cause = execErr.Err
		}
		_, _ = fmt.Fprintf(stderr, "Agent execution failed: %v\n", cause)
		return err
	}

	artifact, err := VerifyOutput(cfg.OutputPath)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "\nWarning: HTML report was not generated")
		return err
	}

	_, _ = fmt.Fprintf(stdout, "\nSuccess! Report generated: %s (%d KB)\n", artifact.Path, artifact.SizeKB())
	return nil
}
