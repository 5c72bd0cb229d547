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

package util

import (
	"errors"
	"iter"
	"sync/atomic"
)

// ErrSeqConsumed is reported by Error when a single-use sequence is ranged
// over more than once.
var ErrSeqConsumed = errors.New("sequence already consumed")

// SeqErr is a lazy sequence of values followed by a terminal error.
//
// Error must be called only after the sequence returned by Seq has been
// fully ranged over (or the loop has been broken).
type SeqErr[T any] interface {
	Seq() iter.Seq[T]
	Error() error
}

// SeqErrFunc wraps fn as a single-use SeqErr. The first iteration runs fn;
// any further iteration yields nothing and sets the error to ErrSeqConsumed.
func SeqErrFunc[T any](fn func(yield func(T) bool) error) SeqErr[T] {
	return &seqErrFunc[T]{fn: fn}
}

// SeqErrOf returns a SeqErr yielding no values and failing with err.
func SeqErrOf[T any](err error) SeqErr[T] {
	return SeqErrFunc(func(func(T) bool) error { return err })
}

type seqErrFunc[T any] struct {
	fn   func(yield func(T) bool) error
	used atomic.Bool
	err  error
}

func (s *seqErrFunc[T]) seq(yield func(T) bool) {
	if s.used.Swap(true) {
		s.err = ErrSeqConsumed
		return
	}

	stopped := false
	s.err = s.fn(func(v T) bool {
		if stopped {
			return false
		}
		if !yield(v) {
			stopped = true
		}
		return !stopped
	})
}

func (s *seqErrFunc[T]) Seq() iter.Seq[T] { return s.seq }
func (s *seqErrFunc[T]) Error() error     { return s.err }
