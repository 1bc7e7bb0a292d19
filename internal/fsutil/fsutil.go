// SPDX-License-Identifier: MPL-2.0

// Package fsutil provides the small file primitives behind the stats
// pipeline: gzip compression, symlink-aware stat, and existence checks.
package fsutil

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
)

// GzipContents reads the file at path fully and returns its gzip-compressed
// bytes.
func GzipContents(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// GzipSize returns the gzip-compressed byte length of the file at path.
// Failure is an explicit error; callers that want a soft-failure channel
// (the stats pipeline) convert it at their layer.
func GzipSize(path string) (int64, error) {
	compressed, err := GzipContents(path)
	if err != nil {
		return 0, err
	}
	return int64(len(compressed)), nil
}

// Lstat stats the file at path without following symlinks, so links are
// reported as themselves. Errors are prefixed "lstat failed:".
func Lstat(path string) (os.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("lstat failed: %w", err)
	}
	return info, nil
}

// Exists reports whether path exists, without following symlinks. All
// errors collapse to "does not exist".
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// ReadFileString reads the whole file at path as a string.
func ReadFileString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
