// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestExpandGlobArgs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"a.js", "b.js", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("expands matching patterns", func(t *testing.T) {
		t.Parallel()

		got, err := expandGlobArgs([]string{filepath.Join(dir, "*.js")})
		if err != nil {
			t.Fatalf("expandGlobArgs() error: %v", err)
		}
		want := []string{filepath.Join(dir, "a.js"), filepath.Join(dir, "b.js")}
		if !slices.Equal(got, want) {
			t.Errorf("expandGlobArgs() = %v, want %v", got, want)
		}
	})

	t.Run("keeps non-matching argument literally", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(dir, "missing.css")
		got, err := expandGlobArgs([]string{missing})
		if err != nil {
			t.Fatalf("expandGlobArgs() error: %v", err)
		}
		if !slices.Equal(got, []string{missing}) {
			t.Errorf("expandGlobArgs() = %v, want [%s]", got, missing)
		}
	})

	t.Run("preserves argument order across patterns", func(t *testing.T) {
		t.Parallel()

		got, err := expandGlobArgs([]string{
			filepath.Join(dir, "notes.txt"),
			filepath.Join(dir, "a.js"),
		})
		if err != nil {
			t.Fatalf("expandGlobArgs() error: %v", err)
		}
		want := []string{filepath.Join(dir, "notes.txt"), filepath.Join(dir, "a.js")}
		if !slices.Equal(got, want) {
			t.Errorf("expandGlobArgs() = %v, want %v", got, want)
		}
	})

	t.Run("rejects malformed pattern", func(t *testing.T) {
		t.Parallel()

		if _, err := expandGlobArgs([]string{"dist/["}); err == nil {
			t.Fatal("expandGlobArgs() expected error for malformed pattern")
		}
	})
}
