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

	"github.com/nlpodyssey/omni-hotsearch/types/optional"
	"github.com/nlpodyssey/omni-hotsearch/util"
)

// Capability names the agent may invoke.
const (
	ToolWebFetch  = "WebFetch"
	ToolWebSearch = "WebSearch"
	ToolWrite     = "Write"
	ToolRead      = "Read"
)

// PermissionModeBypass lets the agent act without interactive confirmation.
const PermissionModeBypass = "bypassPermissions"

const (
	DefaultMaxTurns     = 50
	DefaultMaxBudgetUSD = 5.00
)

// QueryOptions is the capability and configuration bundle passed to the
// agent execution service along with the prompt.
type QueryOptions struct {
	Model        string
	BaseURL      optional.Optional[string]
	APIKey       string
	AllowedTools []string

	// Execution mode; PermissionModeBypass disables confirmation prompts.
	PermissionMode string

	MaxTurns     int
	MaxBudgetUSD float64
}

// NewQueryOptions returns the fixed options of a hotsearch run.
func NewQueryOptions(cfg Config) QueryOptions {
	return QueryOptions{
		Model:          cfg.Model,
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.AnthropicAPIKey,
		AllowedTools:   []string{ToolWebFetch, ToolWebSearch, ToolWrite, ToolRead},
		PermissionMode: PermissionModeBypass,
		MaxTurns:       DefaultMaxTurns,
		MaxBudgetUSD:   DefaultMaxBudgetUSD,
	}
}

// Service is an agent execution service: it accepts a natural-language
// task plus options and produces a stream of progress events.
//
// The returned sequence is lazy, finite and single-use. Events must be
// delivered in the order the service produced them. A failure to start
// the run is reported through the sequence's Error, like any other
// failure.
type Service interface {
	Query(ctx context.Context, prompt string, opts QueryOptions) util.SeqErr[Event]
}
