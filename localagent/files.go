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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const DefaultMaxReadBytes = 1024 * 1024

type WriteArgs struct {
	FilePath string `json:"file_path" jsonschema:"minLength=1" jsonschema_description:"Path of the file to write, relative to the working directory"`
	Content  string `json:"content" jsonschema_description:"Full content of the file"`
}

type ReadArgs struct {
	FilePath string `json:"file_path" jsonschema:"minLength=1" jsonschema_description:"Path of the file to read, relative to the working directory"`
}

// Files implements the Write and Read tools. Every path is resolved inside
// Root; paths escaping it are rejected.
type Files struct {
	Root *os.Root

	MaxReadBytes int64
}

func (f *Files) Write(_ context.Context, args WriteArgs) (string, error) {
	name, err := f.relPath(args.FilePath)
	if err != nil {
		return "", err
	}
	if err = f.mkdirAll(filepath.Dir(name)); err != nil {
		return "", err
	}

	file, err := f.Root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", args.FilePath, err)
	}
	n, err := io.WriteString(file, args.Content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", args.FilePath, err)
	}
	return fmt.Sprintf("Wrote %d bytes to %s", n, args.FilePath), nil
}

func (f *Files) Read(_ context.Context, args ReadArgs) (string, error) {
	name, err := f.relPath(args.FilePath)
	if err != nil {
		return "", err
	}
	file, err := f.Root.Open(name)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", args.FilePath, err)
	}
	defer func() { _ = file.Close() }()

	maxBytes := f.MaxReadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxReadBytes
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args.FilePath, err)
	}
	if int64(len(data)) > maxBytes {
		return string(data[:maxBytes]) + "\n[truncated]", nil
	}
	return string(data), nil
}

// relPath turns absolute paths under the root directory into relative ones.
func (f *Files) relPath(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	rel, err := filepath.Rel(f.Root.Name(), p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the working directory", p)
	}
	return rel, nil
}

func (f *Files) mkdirAll(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if err := f.mkdirAll(filepath.Dir(dir)); err != nil {
		return err
	}
	err := f.Root.Mkdir(dir, 0o755)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
