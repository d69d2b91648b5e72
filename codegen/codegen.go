// Package codegen synthesizes the Go implementation of compiled query
// declarations and writes it next to the declaring file.
package codegen

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSuffix is appended to the declaration file's base name to name the
// generated file.
const DefaultSuffix = "_gen.go"

// OutputPath returns where the code generated from source is written:
// "db/queries.go" -> "db/queries_gen.go", "db/reports.yaml" ->
// "db/reports_gen.go".
func OutputPath(source, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	base := strings.TrimSuffix(source, filepath.Ext(source))
	return base + suffix
}

// EnsureDir creates a directory and all parent directories if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// WriteFileIfChanged writes content to a file only if it differs from existing content.
// Returns true if the file was written, false if unchanged.
func WriteFileIfChanged(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return false, err
	}
	return true, nil
}

// IsGenerated reports whether the file at path starts with the generated
// code header. Generating over a hand-written file is refused.
func IsGenerated(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return bytes.HasPrefix(data, []byte(Header)), nil
}
