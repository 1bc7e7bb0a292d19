// SPDX-License-Identifier: MPL-2.0

// Package fspath lifts the path/filepath functions taskpipe needs onto
// types.FilesystemPath, so validated paths stay typed through joins and
// cleanups instead of round-tripping through string at every call site.
package fspath

import (
	"fmt"
	"path/filepath"

	"taskpipe/pkg/types"
)

// Join is filepath.Join over typed paths. Validity carries over from the
// typed inputs.
func Join(elem ...types.FilesystemPath) types.FilesystemPath {
	strs := make([]string, len(elem))
	for i, e := range elem {
		strs[i] = string(e)
	}
	return types.FilesystemPath(filepath.Join(strs...))
}

// JoinStr joins a typed base path with raw string segments. Meant for
// literal file names ("pipefile.cue") and entries coming from os.ReadDir.
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	parts = append(parts, elem...)
	return types.FilesystemPath(filepath.Join(parts...))
}

// Dir is filepath.Dir over a typed path.
func Dir(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Dir(string(p)))
}

// Abs resolves p to an absolute typed path.
func Abs(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return types.FilesystemPath(abs), nil
}

// Clean is filepath.Clean over a typed path.
func Clean(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Clean(string(p)))
}

// IsAbs reports whether p is absolute.
func IsAbs(p types.FilesystemPath) bool {
	return filepath.IsAbs(string(p))
}
