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
	"log/slog"
	"os"
	"sync/atomic"
)

var hotsearchLogger atomic.Pointer[slog.Logger]

func init() {
	ResetLogger()
}

// Logger is the global logger used for diagnostics.
// By default, it is a logger with a text handler which writes to stderr,
// with minimum level "info". You can change it with SetLogger.
//
// Progress lines meant for the user are not logged: they are written
// as plain text to the run's standard output.
func Logger() *slog.Logger {
	return hotsearchLogger.Load()
}

// SetLogger sets the global logger.
// A nil value is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		hotsearchLogger.Store(l)
	}
}

func ResetLogger() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	SetLogger(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

// EnableVerboseStderrLogging enables debug logging to stderr.
// Decoded events which are not displayed (e.g. system notifications from
// the agent service) become visible at this level.
func EnableVerboseStderrLogging() {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	SetLogger(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}
