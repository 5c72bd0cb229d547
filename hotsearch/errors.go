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
	"fmt"
)

// MissingEnvError is returned when a required environment variable is unset
// or empty.
type MissingEnvError struct {
	Name string
}

func (err MissingEnvError) Error() string {
	return fmt.Sprintf("%s environment variable is required", err.Name)
}

// AgentExecutionError wraps any error raised while invoking the agent
// execution service or consuming its event stream.
type AgentExecutionError struct {
	Err error
}

func (err AgentExecutionError) Error() string {
	return fmt.Sprintf("agent execution failed: %v", err.Err)
}

func (err AgentExecutionError) Unwrap() error { return err.Err }

// ArtifactMissingError is returned when the agent stream completed cleanly
// but the expected output file does not exist.
type ArtifactMissingError struct {
	Path string
}

func (err ArtifactMissingError) Error() string {
	return fmt.Sprintf("HTML report was not generated: %s not found", err.Path)
}

// MaxTurnsExceededError is returned by a Service when the agent hits the
// turn ceiling before completing.
type MaxTurnsExceededError struct {
	MaxTurns int
}

func (err MaxTurnsExceededError) Error() string {
	return fmt.Sprintf("max turns (%d) exceeded", err.MaxTurns)
}

// BudgetExceededError is returned by a Service when the accumulated cost
// of a run reaches the spend ceiling.
type BudgetExceededError struct {
	BudgetUSD float64
	SpentUSD  float64
}

func (err BudgetExceededError) Error() string {
	return fmt.Sprintf("max budget ($%.2f) exceeded: spent $%.4f", err.BudgetUSD, err.SpentUSD)
}

// ExitCode maps the outcome of a run to a process exit status.
// Every failure kind is terminal and maps to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
