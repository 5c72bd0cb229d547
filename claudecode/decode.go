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

package claudecode

import (
	"encoding/json"

	"github.com/nlpodyssey/omni-hotsearch/hotsearch"
	"github.com/nlpodyssey/omni-hotsearch/types/optional"
)

// streamMessage is one line of the CLI's stream-json output.
// Only the fields needed to build hotsearch events are decoded.
type streamMessage struct {
	Type    string      `json:"type"`
	Subtype string      `json:"subtype"`
	Message *apiMessage `json:"message"`

	// Fields of "result" messages.
	IsError      bool                       `json:"is_error"`
	TotalCostUSD optional.Optional[float64] `json:"total_cost_usd"`
	NumTurns     optional.Optional[int]     `json:"num_turns"`
	Result       string                     `json:"result"`

	// Fields of standalone "tool_result" messages.
	ToolName string `json:"tool_name"`
	Status   string `json:"status"`
}

type apiMessage struct {
	Content contentBlocks `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text"`

	// tool_use
	ID   string `json:"id"`
	Name string `json:"name"`

	// tool_result
	ToolUseID string `json:"tool_use_id"`
	IsError   bool   `json:"is_error"`
}

// contentBlocks accepts both the array form of message content and the
// plain string shorthand.
type contentBlocks []contentBlock

func (c *contentBlocks) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = contentBlocks{{Type: "text", Text: text}}
		return nil
	}
	var blocks []contentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return err
	}
	*c = blocks
	return nil
}

// decoder turns stream-json lines into events. It remembers the name of
// every tool_use block, so that the matching tool_result can be reported
// by tool name.
type decoder struct {
	toolNames map[string]string
}

func newDecoder() *decoder {
	return &decoder{toolNames: make(map[string]string)}
}

// decode returns the events carried by one line, in order.
// A line which cannot be decoded yields a single UnknownEvent.
func (d *decoder) decode(line []byte) []hotsearch.Event {
	var msg streamMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		hotsearch.Logger().Warn("Undecodable line from agent process", "error", err)
		return []hotsearch.Event{hotsearch.UnknownEvent{Type: "invalid"}}
	}

	switch msg.Type {
	case "assistant":
		return d.assistantEvents(msg, line)
	case "user":
		return d.userEvents(msg, line)
	case "tool_result":
		return []hotsearch.Event{hotsearch.ToolResultEvent{ToolName: msg.ToolName, Status: msg.Status}}
	case "result":
		return []hotsearch.Event{hotsearch.ResultEvent{
			Subtype:      msg.Subtype,
			IsError:      msg.IsError,
			TotalCostUSD: msg.TotalCostUSD,
			NumTurns:     msg.NumTurns,
			Text:         msg.Result,
		}}
	default:
		return []hotsearch.Event{unknown(msg, line)}
	}
}

func (d *decoder) assistantEvents(msg streamMessage, line []byte) []hotsearch.Event {
	if msg.Message == nil {
		return []hotsearch.Event{unknown(msg, line)}
	}
	var events []hotsearch.Event
	for _, block := range msg.Message.Content {
		switch block.Type {
		case "text":
			events = append(events, hotsearch.AssistantTextEvent{Text: block.Text})
		case "tool_use":
			d.toolNames[block.ID] = block.Name
		}
	}
	return events
}

func (d *decoder) userEvents(msg streamMessage, line []byte) []hotsearch.Event {
	if msg.Message == nil {
		return []hotsearch.Event{unknown(msg, line)}
	}
	var events []hotsearch.Event
	for _, block := range msg.Message.Content {
		if block.Type != "tool_result" {
			continue
		}
		name, ok := d.toolNames[block.ToolUseID]
		if !ok {
			name = "unknown"
		}
		delete(d.toolNames, block.ToolUseID)

		status := hotsearch.ToolStatusCompleted
		if block.IsError {
			status = hotsearch.ToolStatusError
		}
		events = append(events, hotsearch.ToolResultEvent{
			ToolName:  name,
			ToolUseID: block.ToolUseID,
			Status:    status,
		})
	}
	return events
}

func unknown(msg streamMessage, line []byte) hotsearch.UnknownEvent {
	typ := msg.Type
	if msg.Subtype != "" {
		typ += "/" + msg.Subtype
	}
	return hotsearch.UnknownEvent{Type: typ, Raw: rawCopy(line)}
}

// rawCopy detaches line from the scanner's buffer.
func rawCopy(line []byte) json.RawMessage {
	return append(json.RawMessage(nil), line...)
}
