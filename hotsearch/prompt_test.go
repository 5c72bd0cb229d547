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

package hotsearch_test

import (
	"testing"

	"github.com/nlpodyssey/omni-hotsearch/hotsearch"
	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	cfg := hotsearch.Config{
		AnthropicAPIKey: "sk-test",
		Model:           hotsearch.DefaultModel,
		TianAPIKey:      "abc123",
		MaxTopics:       "9",
		OutputPath:      "out/report.html",
	}
	prompt := hotsearch.BuildPrompt(cfg)

	t.Run("interpolated values", func(t *testing.T) {
		assert.Contains(t, prompt, "- hotSearchApiUrl: https://apis.tianapi.com/networkhot/index?key=abc123\n")
		assert.Contains(t, prompt, "- maxTopics: 9\n")
		assert.Contains(t, prompt, "- outputHtmlPath: out/report.html\n")
		assert.Contains(t, prompt, "- ideasPerTopic: 2\n")
		assert.Contains(t, prompt, "使用 Write 工具将 HTML 写入 out/report.html")
	})

	t.Run("fallback chain and field mapping", func(t *testing.T) {
		assert.Contains(t, prompt, "- result.list → result.newslist → newslist → data.list → data → 根节点数组\n")
		assert.Contains(t, prompt, "字段映射：\n- title: title / word / keyword / name\n")
		assert.Contains(t, prompt, "- hotValue: hotValue / hot / hotindex / hotnum / index / heat / score\n")
		assert.Contains(t, prompt, "- topicUrl: url / link / topicUrl\n")
		assert.Contains(t, prompt, "- rank: rank / index / order\n")
	})

	t.Run("search queries and rubric", func(t *testing.T) {
		assert.Contains(t, prompt, `- "{title} 发生了什么"`)
		assert.Contains(t, prompt, `- "{title} 数据 影响"`)
		assert.Contains(t, prompt, "总分 100 = 有趣度 80 + 有用度 20")
		assert.Contains(t, prompt, "- 新奇性/意外性（0-20）")
		assert.Contains(t, prompt, "- 真实价值（0-10）")
		assert.Contains(t, prompt, "优秀（≥80）、良好（60-79）、一般（<60）")
	})

	t.Run("report requirements", func(t *testing.T) {
		assert.Contains(t, prompt, "glassmorphism")
		assert.Contains(t, prompt, "只显示前 4 位和后 4 位")
	})

	t.Run("the credential of the agent service is not included", func(t *testing.T) {
		assert.NotContains(t, prompt, "sk-test")
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, prompt, hotsearch.BuildPrompt(cfg))
	})
}

func TestBuildPrompt_KeyIsNotEscaped(t *testing.T) {
	prompt := hotsearch.BuildPrompt(hotsearch.Config{
		TianAPIKey: "ab+c/d=",
		MaxTopics:  hotsearch.DefaultMaxTopics,
		OutputPath: hotsearch.DefaultOutputPath,
	})
	assert.Contains(t, prompt, "- hotSearchApiUrl: https://apis.tianapi.com/networkhot/index?key=ab+c/d=\n")
	assert.NotContains(t, prompt, "%2B")
}
