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
	_ "embed"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var promptTemplateText string

var promptTemplate = template.Must(
	template.New("prompt").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(promptTemplateText),
)

type fieldMapping struct {
	Field   string
	Sources []string
}

// promptData is everything the prompt template interpolates.
type promptData struct {
	FeedURL          string
	MaxTopics        string
	OutputPath       string
	IdeasPerTopic    int
	ListPaths        []string
	FieldMappings    []fieldMapping
	SearchQueries    []string
	TopicFields      []string
	InterestCriteria []string
	UtilityCriteria  []string
}

// Where the topic list may live in the feed response, tried in order.
var feedListPaths = []string{
	"result.list", "result.newslist", "newslist", "data.list", "data", "根节点数组",
}

var feedFieldMappings = []fieldMapping{
	{Field: "title", Sources: []string{"title", "word", "keyword", "name"}},
	{Field: "hotValue", Sources: []string{"hotValue", "hot", "hotindex", "hotnum", "index", "heat", "score"}},
	{Field: "topicUrl", Sources: []string{"url", "link", "topicUrl"}},
	{Field: "rank", Sources: []string{"rank", "index", "order"}},
}

var topicSearchQueries = []string{
	"{title} 发生了什么",
	"{title} 时间线 最新进展",
	"{title} 背景 相关方",
	"{title} 数据 影响",
}

var topicSummaryFields = []string{
	"oneLineSummary：一句话解释",
	"whatHappened：事件概述",
	"timeline[]：3-6 条关键节点",
	"stakeholders：主要相关方",
	"whyTrending：上热搜原因",
	"currentStatus：当前进展",
	"sources[]：来源链接",
}

var (
	interestCriteria = []string{"新奇性/意外性", "情绪与传播性", "讨论密度", "叙事完整度"}
	utilityCriteria  = []string{"可行动性", "真实价值"}
)

// BuildPrompt renders the task description handed to the agent.
//
// The result is a pure function of cfg. It embeds the feed URL with the
// real key: only the generated report is asked to redact secrets.
func BuildPrompt(cfg Config) string {
	data := promptData{
		FeedURL:          cfg.FeedURL(),
		MaxTopics:        cfg.MaxTopics,
		OutputPath:       cfg.OutputPath,
		IdeasPerTopic:    IdeasPerTopic,
		ListPaths:        feedListPaths,
		FieldMappings:    feedFieldMappings,
		SearchQueries:    topicSearchQueries,
		TopicFields:      topicSummaryFields,
		InterestCriteria: interestCriteria,
		UtilityCriteria:  utilityCriteria,
	}

	var sb strings.Builder
	if err := promptTemplate.Execute(&sb, data); err != nil {
		// The template is embedded and the data shape is fixed.
		panic(err)
	}
	return sb.String()
}
