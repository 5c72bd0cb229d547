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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetArgs struct {
	Name  string `json:"name" jsonschema:"minLength=1"`
	Times int    `json:"times,omitempty"`
}

func greet(_ context.Context, args greetArgs) (string, error) {
	out := ""
	for range max(args.Times, 1) {
		out += "hello " + args.Name + "\n"
	}
	return out, nil
}

func TestNewFunctionTool(t *testing.T) {
	tool, err := NewFunctionTool("greet", "Greets someone", greet)
	require.NoError(t, err)

	assert.Equal(t, "greet", tool.Name)
	assert.Equal(t, "Greets someone", tool.Description)

	schema := tool.ParamsJSONSchema
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []any{"name"}, schema["required"])
	assert.NotContains(t, schema, "$schema")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "times")
}

func TestFunctionTool_Invoke(t *testing.T) {
	tool, err := NewFunctionTool("greet", "", greet)
	require.NoError(t, err)

	t.Run("valid arguments", func(t *testing.T) {
		out, err := tool.OnInvokeTool(t.Context(), `{"name":"Ada","times":2}`)
		require.NoError(t, err)
		assert.Equal(t, "hello Ada\nhello Ada\n", out)
	})

	t.Run("missing required property", func(t *testing.T) {
		_, err := tool.OnInvokeTool(t.Context(), `{"times":2}`)
		var invalid InvalidArgumentsError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Details, "name")
	})

	t.Run("empty arguments", func(t *testing.T) {
		_, err := tool.OnInvokeTool(t.Context(), "")
		assert.ErrorAs(t, err, new(InvalidArgumentsError))
	})

	t.Run("additional property", func(t *testing.T) {
		_, err := tool.OnInvokeTool(t.Context(), `{"name":"Ada","shout":true}`)
		assert.ErrorAs(t, err, new(InvalidArgumentsError))
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := tool.OnInvokeTool(t.Context(), `name=Ada`)
		assert.Error(t, err)
	})
}

func TestFunctionTool_ConvertToChatCompletions(t *testing.T) {
	tool, err := NewFunctionTool("greet", "Greets someone", greet)
	require.NoError(t, err)

	param := tool.ConvertToChatCompletions()
	require.NotNil(t, param.OfFunction)
	fn := param.OfFunction.Function
	assert.Equal(t, "greet", fn.Name)
	assert.Equal(t, "Greets someone", fn.Description.Value)
	assert.Equal(t, "object", fn.Parameters["type"])
}
