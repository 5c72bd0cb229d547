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
	"cmp"
	"fmt"
	"io"

	"github.com/nlpodyssey/omni-hotsearch/types/optional"
)

const (
	DefaultModel      = "claude-opus-4-5-20251101"
	DefaultMaxTopics  = "15"
	DefaultOutputPath = "omni-hotsearch-report.html"

	// IdeasPerTopic is the number of product ideas requested for each topic.
	IdeasPerTopic = 2

	feedEndpoint = "https://apis.tianapi.com/networkhot/index"
)

// Config is the run configuration. It is built once by LoadConfig and
// passed by value to every step; nothing reads the environment afterwards.
type Config struct {
	// Credential for the agent execution service.
	AnthropicAPIKey string

	// Alternate agent service endpoint. Absent means the service default.
	BaseURL optional.Optional[string]

	// Model identifier passed through to the agent service.
	Model string

	// Credential for the trending-topics feed.
	TianAPIKey string

	// Upper bound on the topics the agent should analyze.
	// Kept as text: it is only interpolated into the prompt.
	MaxTopics string

	// Path of the HTML report the agent is asked to write.
	OutputPath string
}

// LoadConfig reads the run configuration through getenv.
// An empty variable counts as unset. TIANAPI_KEY and ANTHROPIC_API_KEY
// are required; the first one missing is reported as MissingEnvError.
func LoadConfig(getenv func(string) string) (Config, error) {
	cfg := Config{
		AnthropicAPIKey: getenv("ANTHROPIC_API_KEY"),
		BaseURL:         optional.NonZero(getenv("ANTHROPIC_BASE_URL")),
		Model:           cmp.Or(getenv("ANTHROPIC_MODEL"), DefaultModel),
		TianAPIKey:      getenv("TIANAPI_KEY"),
		MaxTopics:       cmp.Or(getenv("MAX_TOPICS"), DefaultMaxTopics),
		OutputPath:      DefaultOutputPath,
	}

	if cfg.TianAPIKey == "" {
		return Config{}, MissingEnvError{Name: "TIANAPI_KEY"}
	}
	if cfg.AnthropicAPIKey == "" {
		return Config{}, MissingEnvError{Name: "ANTHROPIC_API_KEY"}
	}
	return cfg, nil
}

// FeedURL is the trending-topics feed URL with the real key embedded
// verbatim.
func (c Config) FeedURL() string {
	return feedEndpoint + "?key=" + c.TianAPIKey
}

// WriteSummary writes the human-readable configuration echo.
// Secrets are not part of it.
func (c Config) WriteSummary(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"API Configuration:\n  Base URL: %s\n  Model: %s\n\n",
		c.BaseURL.ValueOrFallback("(default)"),
		c.Model,
	)
	return err
}
