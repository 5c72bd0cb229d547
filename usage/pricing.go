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

package usage

import "strings"

// Pricing is expressed in US dollars per million tokens.
type Pricing struct {
	InputPerMTok       float64
	CachedInputPerMTok float64
	OutputPerMTok      float64
}

// Cost returns the US dollar cost of u.
// Cached input tokens are billed at the cached rate instead of the input rate.
func (p Pricing) Cost(u Usage) float64 {
	cached := min(u.CachedInputTokens, u.InputTokens)
	uncached := u.InputTokens - cached
	return (float64(uncached)*p.InputPerMTok +
		float64(cached)*p.CachedInputPerMTok +
		float64(u.OutputTokens)*p.OutputPerMTok) / 1e6
}

// Model families are matched by prefix; the first match wins.
var knownPricing = []struct {
	prefix  string
	pricing Pricing
}{
	{"claude-opus-4-1", Pricing{InputPerMTok: 15, CachedInputPerMTok: 1.5, OutputPerMTok: 75}},
	{"claude-opus-4-0", Pricing{InputPerMTok: 15, CachedInputPerMTok: 1.5, OutputPerMTok: 75}},
	{"claude-opus-4-20250514", Pricing{InputPerMTok: 15, CachedInputPerMTok: 1.5, OutputPerMTok: 75}},
	{"claude-opus-4", Pricing{InputPerMTok: 5, CachedInputPerMTok: 0.5, OutputPerMTok: 25}},
	{"claude-sonnet-4", Pricing{InputPerMTok: 3, CachedInputPerMTok: 0.3, OutputPerMTok: 15}},
	{"claude-3-7-sonnet", Pricing{InputPerMTok: 3, CachedInputPerMTok: 0.3, OutputPerMTok: 15}},
	{"claude-haiku-4", Pricing{InputPerMTok: 1, CachedInputPerMTok: 0.1, OutputPerMTok: 5}},
	{"claude-3-5-haiku", Pricing{InputPerMTok: 0.8, CachedInputPerMTok: 0.08, OutputPerMTok: 4}},
}

// DefaultPricing is used for models not in the table, priced like the most
// expensive family above.
var DefaultPricing = Pricing{InputPerMTok: 15, CachedInputPerMTok: 1.5, OutputPerMTok: 75}

// PriceFor returns the pricing of the given model identifier.
func PriceFor(model string) Pricing {
	model = strings.ToLower(strings.TrimSpace(model))
	for _, p := range knownPricing {
		if strings.HasPrefix(model, p.prefix) {
			return p.pricing
		}
	}
	return DefaultPricing
}
