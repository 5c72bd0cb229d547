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

// Package localagent runs hotsearch tasks in process: a tool-calling loop
// over an OpenAI-compatible chat completions endpoint, with web and file
// tools implemented locally.
package localagent

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nlpodyssey/omni-hotsearch/hotsearch"
	"github.com/nlpodyssey/omni-hotsearch/types/optional"
	"github.com/nlpodyssey/omni-hotsearch/usage"
	"github.com/nlpodyssey/omni-hotsearch/util"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultBaseURL is the Anthropic API root. The OpenAI-compatible
// endpoint lives under its /v1/ path.
const DefaultBaseURL = "https://api.anthropic.com"

type ServiceParams struct {
	// HTTP client used for model calls and web tools.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Directory confining the file tools. Defaults to the current one.
	Dir string

	// Search endpoint of the WebSearch tool. Defaults to DefaultSearchURL.
	SearchURL string

	// Additional options for the OpenAI client, applied last.
	ClientOptions []option.RequestOption
}

// Service implements hotsearch.Service with a local agent loop.
type Service struct {
	params ServiceParams
}

func New(params ServiceParams) *Service {
	return &Service{params: params}
}

// Query runs the agent loop when the returned sequence is first ranged
// over. Each model call is one turn.
func (s *Service) Query(ctx context.Context, prompt string, opts hotsearch.QueryOptions) util.SeqErr[hotsearch.Event] {
	return util.SeqErrFunc(func(yield func(hotsearch.Event) bool) error {
		return s.run(ctx, prompt, opts, yield)
	})
}

// EndpointURL returns the chat completions base URL for the given API root.
func EndpointURL(baseURL optional.Optional[string]) string {
	base := strings.TrimRight(baseURL.ValueOrFallback(DefaultBaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/v1/"
}

func (s *Service) newClient(opts hotsearch.QueryOptions) openai.Client {
	reqOpts := []option.RequestOption{
		option.WithBaseURL(EndpointURL(opts.BaseURL)),
		option.WithAPIKey(opts.APIKey),
	}
	if s.params.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(s.params.HTTPClient))
	}
	reqOpts = append(reqOpts, s.params.ClientOptions...)
	return openai.NewClient(reqOpts...)
}

func (s *Service) run(ctx context.Context, prompt string, opts hotsearch.QueryOptions, yield func(hotsearch.Event) bool) error {
	dir, err := filepath.Abs(cmp.Or(s.params.Dir, "."))
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("failed to open working directory: %w", err)
	}
	defer func() { _ = root.Close() }()

	tools, err := s.tools(root, opts.AllowedTools)
	if err != nil {
		return err
	}
	var toolParams []openai.ChatCompletionToolUnionParam
	for _, t := range tools {
		toolParams = append(toolParams, t.ConvertToChatCompletions())
	}

	client := s.newClient(opts)
	pricing := usage.PriceFor(opts.Model)
	total := usage.NewUsage()

	messages := []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)}

	for turn := 1; ; turn++ {
		if opts.MaxTurns > 0 && turn > opts.MaxTurns {
			yield(hotsearch.ResultEvent{
				Subtype:      hotsearch.ResultSubtypeMaxTurns,
				IsError:      true,
				TotalCostUSD: optional.Value(pricing.Cost(*total)),
				NumTurns:     optional.Value(opts.MaxTurns),
			})
			return hotsearch.MaxTurnsExceededError{MaxTurns: opts.MaxTurns}
		}

		hotsearch.Logger().Debug("Calling model", "model", opts.Model, "turn", turn)
		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(opts.Model),
			Messages: messages,
			Tools:    toolParams,
		})
		if err != nil {
			return fmt.Errorf("chat completion request failed: %w", err)
		}
		total.Add(usage.FromCompletionUsage(resp.Usage))
		cost := pricing.Cost(*total)

		if len(resp.Choices) == 0 {
			return errors.New("chat completion response has no choices")
		}
		message := resp.Choices[0].Message

		if text := strings.TrimSpace(message.Content); text != "" {
			if !yield(hotsearch.AssistantTextEvent{Text: text}) {
				return nil
			}
		}

		if opts.MaxBudgetUSD > 0 && cost > opts.MaxBudgetUSD {
			yield(hotsearch.ResultEvent{
				Subtype:      hotsearch.ResultSubtypeMaxBudget,
				IsError:      true,
				TotalCostUSD: optional.Value(cost),
				NumTurns:     optional.Value(turn),
			})
			return hotsearch.BudgetExceededError{BudgetUSD: opts.MaxBudgetUSD, SpentUSD: cost}
		}

		if len(message.ToolCalls) == 0 {
			yield(hotsearch.ResultEvent{
				Subtype:      hotsearch.ResultSubtypeSuccess,
				TotalCostUSD: optional.Value(cost),
				NumTurns:     optional.Value(turn),
				Text:         message.Content,
			})
			return nil
		}

		messages = append(messages, message.ToParam())
		for _, call := range message.ToolCalls {
			output, err := invokeTool(ctx, tools, call.Function.Name, call.Function.Arguments)
			status := hotsearch.ToolStatusCompleted
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				hotsearch.Logger().Debug("Tool failed", "tool", call.Function.Name, "error", err)
				status = hotsearch.ToolStatusError
				output = "Error: " + err.Error()
			}
			messages = append(messages, openai.ToolMessage(output, call.ID))

			if !yield(hotsearch.ToolResultEvent{ToolName: call.Function.Name, ToolUseID: call.ID, Status: status}) {
				return nil
			}
		}
	}
}

func invokeTool(ctx context.Context, tools []FunctionTool, name, arguments string) (string, error) {
	i := slices.IndexFunc(tools, func(t FunctionTool) bool { return t.Name == name })
	if i < 0 {
		return "", fmt.Errorf("tool %q is not available", name)
	}
	return tools[i].OnInvokeTool(ctx, arguments)
}

// tools returns the tools named in allowed, in the order given.
// Unknown names are skipped.
func (s *Service) tools(root *os.Root, allowed []string) ([]FunctionTool, error) {
	web := &Web{Client: s.params.HTTPClient, SearchURL: s.params.SearchURL}
	files := &Files{Root: root}

	all := make(map[string]FunctionTool, 4)
	for _, build := range []func() (FunctionTool, error){
		func() (FunctionTool, error) {
			return NewFunctionTool(hotsearch.ToolWebFetch, "Fetch a URL and return its content. HTML pages are reduced to their text.", web.Fetch)
		},
		func() (FunctionTool, error) {
			return NewFunctionTool(hotsearch.ToolWebSearch, "Search the web and return the top results with title, URL and snippet.", web.Search)
		},
		func() (FunctionTool, error) {
			return NewFunctionTool(hotsearch.ToolWrite, "Write a file in the working directory, replacing any existing content.", files.Write)
		},
		func() (FunctionTool, error) {
			return NewFunctionTool(hotsearch.ToolRead, "Read a file from the working directory.", files.Read)
		},
	} {
		t, err := build()
		if err != nil {
			return nil, err
		}
		all[t.Name] = t
	}

	var tools []FunctionTool
	for _, name := range allowed {
		t, ok := all[name]
		if !ok {
			hotsearch.Logger().Warn("Ignoring unknown tool", "tool", name)
			continue
		}
		tools = append(tools, t)
	}
	return tools, nil
}

var _ hotsearch.Service = (*Service)(nil)
