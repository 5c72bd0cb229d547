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
	"encoding/json"

	"github.com/nlpodyssey/omni-hotsearch/types/optional"
)

// Event is a progress event received from the agent execution service.
//
// The set of implementations is closed: AssistantTextEvent,
// ToolResultEvent, ResultEvent and UnknownEvent.
type Event interface {
	// Kind is a short stable name of the event variant.
	Kind() EventKind
	isEvent()
}

// EventKind identifies an Event variant.
type EventKind string

const (
	EventKindAssistantText EventKind = "assistant_text"
	EventKindToolResult    EventKind = "tool_result"
	EventKindResult        EventKind = "result"
	EventKindUnknown       EventKind = "unknown"
)

// AssistantTextEvent carries a block of text authored by the agent.
type AssistantTextEvent struct {
	Text string `json:"text"`
}

func (AssistantTextEvent) Kind() EventKind { return EventKindAssistantText }
func (AssistantTextEvent) isEvent()        {}

// ToolStatusCompleted is the status displayed when a tool result does not
// carry one.
const ToolStatusCompleted = "completed"

// ToolStatusError is the status of a failed tool invocation.
const ToolStatusError = "error"

// ToolResultEvent reports the outcome of one capability invocation.
type ToolResultEvent struct {
	ToolName  string `json:"tool_name"`
	ToolUseID string `json:"tool_use_id,omitempty"`

	// Empty means completed.
	Status string `json:"status,omitempty"`
}

func (ToolResultEvent) Kind() EventKind { return EventKindToolResult }
func (ToolResultEvent) isEvent()        {}

// Result subtypes reported by the agent service.
const (
	ResultSubtypeSuccess        = "success"
	ResultSubtypeMaxTurns       = "error_max_turns"
	ResultSubtypeMaxBudget      = "error_max_budget_usd"
	ResultSubtypeExecutionError = "error_during_execution"
)

// ResultEvent is the final summary of a run.
type ResultEvent struct {
	Subtype      string                     `json:"subtype"`
	IsError      bool                       `json:"is_error"`
	TotalCostUSD optional.Optional[float64] `json:"total_cost_usd"`
	NumTurns     optional.Optional[int]     `json:"num_turns"`

	// Final text reported along with the result, if any.
	Text string `json:"result,omitempty"`
}

func (ResultEvent) Kind() EventKind { return EventKindResult }
func (ResultEvent) isEvent()        {}

// UnknownEvent is any message the service emitted that does not map to one
// of the other variants. It is never displayed.
type UnknownEvent struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"raw,omitempty"`
}

func (UnknownEvent) Kind() EventKind { return EventKindUnknown }
func (UnknownEvent) isEvent()        {}
