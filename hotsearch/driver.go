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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nlpodyssey/omni-hotsearch/types/optional"
)

type DriveParams struct {
	Prompt  string
	Options QueryOptions

	// Where progress lines are printed.
	Output io.Writer

	// Optional hook, called for each event after it has been displayed.
	OnEvent func(context.Context, Event)
}

type DriveResult struct {
	// Concatenation of all assistant text blocks, each newline-terminated.
	Text string

	// The final summary, if the service sent one.
	Result optional.Optional[ResultEvent]

	// Number of events received, of any kind.
	Events int
}

// Drive invokes the agent execution service and consumes its event stream
// to completion, printing progress in arrival order.
//
// Any error raised by the service is returned as AgentExecutionError. There
// is no retry and no salvage of partial results.
func Drive(ctx context.Context, svc Service, params DriveParams) (DriveResult, error) {
	var (
		result DriveResult
		text   strings.Builder
	)

	events := svc.Query(ctx, params.Prompt, params.Options)
	for event := range events.Seq() {
		result.Events++
		switch e := event.(type) {
		case AssistantTextEvent:
			_, _ = fmt.Fprintln(params.Output, e.Text)
			text.WriteString(e.Text)
			text.WriteByte('\n')
		case ToolResultEvent:
			status := e.Status
			if status == "" {
				status = ToolStatusCompleted
			}
			_, _ = fmt.Fprintf(params.Output, "[Tool] %s: %s\n", e.ToolName, status)
		case ResultEvent:
			result.Result = optional.Value(e)
			_, _ = fmt.Fprintf(params.Output, "\n---\nTotal Cost: $%s\nTotal Turns: %s\n",
				e.TotalCostUSD.Format(formatCost, "N/A"),
				e.NumTurns.Format(strconv.Itoa, "N/A"),
			)
		case UnknownEvent:
			Logger().Debug("Ignoring agent event", "type", e.Type)
		default:
			Logger().Warn("Unexpected event variant", "event", fmt.Sprintf("%T", e))
		}

		if params.OnEvent != nil {
			params.OnEvent(ctx, event)
		}
	}

	result.Text = text.String()
	if err := events.Error(); err != nil {
		return result, AgentExecutionError{Err: err}
	}
	return result, nil
}

func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
