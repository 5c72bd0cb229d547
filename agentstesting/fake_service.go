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

package agentstesting

import (
	"context"

	"github.com/nlpodyssey/omni-hotsearch/hotsearch"
	"github.com/nlpodyssey/omni-hotsearch/util"
)

// FakeService is a scripted hotsearch.Service.
//
// Each Query runs OnQuery (if set), then yields Events in order, then ends
// with Error (nil for a clean completion).
type FakeService struct {
	Events []hotsearch.Event
	Error  error

	// Optional side effect run when the stream is first consumed, e.g.
	// writing the output file. A non-nil error aborts the stream with it.
	OnQuery func(ctx context.Context, prompt string, opts hotsearch.QueryOptions) error

	Calls     int
	LastQuery FakeServiceLastQuery
}

type FakeServiceLastQuery struct {
	Prompt  string
	Options hotsearch.QueryOptions
}

func NewFakeService(events ...hotsearch.Event) *FakeService {
	return &FakeService{Events: events}
}

// WithError sets the error ending the stream.
func (s *FakeService) WithError(err error) *FakeService {
	s.Error = err
	return s
}

func (s *FakeService) Query(ctx context.Context, prompt string, opts hotsearch.QueryOptions) util.SeqErr[hotsearch.Event] {
	s.Calls++
	s.LastQuery = FakeServiceLastQuery{Prompt: prompt, Options: opts}

	return util.SeqErrFunc(func(yield func(hotsearch.Event) bool) error {
		if s.OnQuery != nil {
			if err := s.OnQuery(ctx, prompt, opts); err != nil {
				return err
			}
		}
		for _, e := range s.Events {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !yield(e) {
				return nil
			}
		}
		return s.Error
	})
}

var _ hotsearch.Service = (*FakeService)(nil)
