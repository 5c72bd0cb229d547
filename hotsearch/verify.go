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
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
)

// Artifact describes the output file left behind by the agent.
type Artifact struct {
	Path string
	Size int64
}

// SizeKB is the file size in kilobytes, rounded to the nearest integer.
func (a Artifact) SizeKB() int64 {
	return int64(math.Round(float64(a.Size) / 1024))
}

// VerifyOutput checks that the expected output file exists.
// Only existence is checked: the content is never inspected.
func VerifyOutput(path string) (Artifact, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Artifact{}, ArtifactMissingError{Path: path}
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("error checking output file: %w", err)
	}
	if info.IsDir() {
		return Artifact{}, ArtifactMissingError{Path: path}
	}
	return Artifact{Path: path, Size: info.Size()}, nil
}
