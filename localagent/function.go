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

package localagent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/xeipuuv/gojsonschema"
)

// FunctionTool is a tool offered to the model as a chat-completions function.
type FunctionTool struct {
	// The name of the tool, as shown to the LLM.
	Name string

	// A description of the tool, as shown to the LLM.
	Description string

	// The JSON schema for the tool's parameters.
	ParamsJSONSchema map[string]any

	// Invokes the tool with the raw JSON arguments sent by the model.
	// The returned string is sent back to the model as the tool output.
	OnInvokeTool func(ctx context.Context, arguments string) (string, error)
}

// ConvertToChatCompletions returns the tool definition sent along with
// each chat completion request.
func (f FunctionTool) ConvertToChatCompletions() openai.ChatCompletionToolUnionParam {
	def := openai.FunctionDefinitionParam{
		Name:       f.Name,
		Parameters: f.ParamsJSONSchema,
	}
	if f.Description != "" {
		def.Description = openai.String(f.Description)
	}
	return openai.ChatCompletionFunctionTool(def)
}

// NewFunctionTool creates a FunctionTool whose parameter schema is reflected
// from T. Arguments are validated against the schema before being decoded
// into T and passed to handler.
//
//	type FetchArgs struct {
//	    URL string `json:"url" jsonschema_description:"Absolute URL"`
//	}
//
//	tool, err := NewFunctionTool("fetch", "Fetch a page", fetch)
func NewFunctionTool[T any](name, description string, handler func(ctx context.Context, args T) (string, error)) (FunctionTool, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: false,
		AllowAdditionalProperties:  false,
	}

	var zero T
	schema := reflector.Reflect(&zero)

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return FunctionTool{}, fmt.Errorf("failed to JSON-marshal JSON schema: %w", err)
	}
	var schemaMap map[string]any
	if err = json.Unmarshal(schemaBytes, &schemaMap); err != nil {
		return FunctionTool{}, fmt.Errorf("failed to JSON-unmarshal JSON schema: %w", err)
	}
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return FunctionTool{}, fmt.Errorf("failed to compile JSON schema of tool %s: %w", name, err)
	}

	return FunctionTool{
		Name:             name,
		Description:      description,
		ParamsJSONSchema: schemaMap,
		OnInvokeTool: func(ctx context.Context, arguments string) (string, error) {
			if strings.TrimSpace(arguments) == "" {
				arguments = "{}"
			}
			if err := ValidateJSON(compiled, arguments); err != nil {
				return "", err
			}
			var args T
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("failed to parse arguments: %w", err)
			}
			return handler(ctx, args)
		},
	}, nil
}

// ValidateJSON checks jsonValue against schema, collecting every violation
// in the returned error.
func ValidateJSON(schema *gojsonschema.Schema, jsonValue string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonValue))
	if err != nil {
		return fmt.Errorf("failed to load and validate JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("JSON validation failed with the following errors:\n")
	for _, e := range result.Errors() {
		_, _ = fmt.Fprintf(&sb, "- %s\n", e)
	}
	return InvalidArgumentsError{Details: sb.String()}
}

// InvalidArgumentsError is returned when the model calls a tool with
// arguments not matching its schema.
type InvalidArgumentsError struct {
	Details string
}

func (err InvalidArgumentsError) Error() string {
	return strings.TrimSpace(err.Details)
}
