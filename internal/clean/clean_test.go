// SPDX-License-Identifier: MPL-2.0

package clean

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

// writeTree creates the given files under root, making parent directories as
// needed. Paths use forward slashes.
func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", p, err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

func exists(t *testing.T, root, rel string) bool {
	t.Helper()
	_, err := os.Lstat(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("lstat %s: %v", rel, err)
	}
	return err == nil
}

func TestRun_DeletesMatchingFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "temp/a.tmp", "temp/b.tmp", "src/keep.js")

	removed, err := Run(root, []string{"temp/*.tmp"}, Options{Logger: log.New(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(removed) != 2 {
		t.Fatalf("expected 2 removed paths, got %d: %v", len(removed), removed)
	}
	if exists(t, root, "temp/a.tmp") || exists(t, root, "temp/b.tmp") {
		t.Error("matched files should be deleted")
	}
	if !exists(t, root, "src/keep.js") {
		t.Error("non-matching file was deleted")
	}
}

func TestRun_RemovesDirectoriesRecursively(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "build/app.js", "build/sub/lib.js", "README.md")

	removed, err := Run(root, []string{"build"}, Options{Logger: log.New(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if !slices.Equal(removed, []string{"build"}) {
		t.Errorf("removed = %v, want [build]", removed)
	}
	if exists(t, root, "build") {
		t.Error("directory should be removed recursively")
	}
	if !exists(t, root, "README.md") {
		t.Error("unrelated file was deleted")
	}
}

func TestRun_DryRunLeavesFilesInPlace(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "temp/a.tmp", "temp/b.tmp")

	logBuf := &bytes.Buffer{}
	removed, err := Run(root, []string{"temp/*.tmp"}, Options{DryRun: true, Logger: log.New(logBuf)})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(removed) != 2 {
		t.Errorf("expected 2 matched paths, got %d: %v", len(removed), removed)
	}
	if !exists(t, root, "temp/a.tmp") || !exists(t, root, "temp/b.tmp") {
		t.Error("dry run must not delete files")
	}
	if !strings.Contains(logBuf.String(), "would remove") {
		t.Errorf("expected dry-run log lines, got: %s", logBuf.String())
	}
}

func TestRun_PatternOrderPreserved(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "b.tmp", "a.tmp")

	removed, err := Run(root, []string{"b.tmp", "a.tmp"}, Options{Logger: log.New(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !slices.Equal(removed, []string{"b.tmp", "a.tmp"}) {
		t.Errorf("removed = %v, want pattern order [b.tmp a.tmp]", removed)
	}
}

func TestRun_DuplicateMatchesNotRepeated(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "temp/a.tmp")

	// Dry run keeps the file on disk so both patterns match it; the result
	// must still list it once.
	removed, err := Run(root, []string{"temp/*.tmp", "temp/a.tmp"}, Options{DryRun: true, Logger: log.New(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	count := 0
	for _, r := range removed {
		if r == filepath.FromSlash("temp/a.tmp") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("temp/a.tmp removed %d times, want exactly once (got %v)", count, removed)
	}
}

// TestRun_NestedMatchesHandledOnce exercises globs that match both a
// directory and its contents: removing the directory takes its children with
// it, and the children must not be reported again. No removed entry may be a
// descendant of another.
func TestRun_NestedMatchesHandledOnce(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "junk/sub/file.txt", "keep.txt")

	removed, err := Run(root, []string{"junk/**"}, Options{Logger: log.New(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(removed) == 0 {
		t.Fatal("expected at least one removed path")
	}
	if exists(t, root, "junk/sub/file.txt") {
		t.Error("nested file should be gone")
	}
	if !exists(t, root, "keep.txt") {
		t.Error("unrelated file was deleted")
	}
	sep := string(filepath.Separator)
	for _, a := range removed {
		for _, b := range removed {
			if a != b && strings.HasPrefix(b, a+sep) {
				t.Errorf("removed contains both %q and its descendant %q", a, b)
			}
		}
	}
}

func TestRun_NoMatchesIsNoop(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "src/app.js")

	removed, err := Run(root, []string{"ghost/**"}, Options{Logger: log.New(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("expected no removed paths, got %v", removed)
	}
	if !exists(t, root, "src/app.js") {
		t.Error("file was deleted by a non-matching pattern")
	}
}

func TestRun_EmptyPatternListIsNoop(t *testing.T) {
	t.Parallel()

	removed, err := Run(t.TempDir(), nil, Options{Logger: log.New(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if removed != nil {
		t.Errorf("expected nil removed slice, got %v", removed)
	}
}

func TestRun_RefusesUnsafePatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
	}{
		{"parent escape", "../outside/*"},
		{"nested parent escape", "temp/../../etc/*"},
		{"empty", ""},
		{"whitespace only", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeTree(t, root, "temp/a.tmp")

			removed, err := Run(root, []string{tt.pattern}, Options{Logger: log.New(&bytes.Buffer{})})
			if !errors.Is(err, ErrUnsafePattern) {
				t.Fatalf("expected ErrUnsafePattern, got: %v", err)
			}
			if len(removed) != 0 {
				t.Errorf("nothing should be removed, got %v", removed)
			}
			if !exists(t, root, "temp/a.tmp") {
				t.Error("file was deleted despite unsafe pattern")
			}
		})
	}
}

func TestRun_RefusesAbsolutePattern(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	abs := filepath.Join(t.TempDir(), "*")

	_, err := Run(root, []string{abs}, Options{Logger: log.New(&bytes.Buffer{})})
	if !errors.Is(err, ErrUnsafePattern) {
		t.Fatalf("expected ErrUnsafePattern for absolute pattern, got: %v", err)
	}
}

func TestRun_RefusesBaseDirectoryItself(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "temp/a.tmp")

	_, err := Run(root, []string{"."}, Options{Logger: log.New(&bytes.Buffer{})})
	if !errors.Is(err, ErrUnsafePattern) {
		t.Fatalf("expected ErrUnsafePattern for '.', got: %v", err)
	}
	if !exists(t, root, "temp/a.tmp") {
		t.Error("base directory contents were deleted")
	}
}

func TestRun_InvalidPatternSyntax(t *testing.T) {
	t.Parallel()

	_, err := Run(t.TempDir(), []string{"[bad"}, Options{Logger: log.New(&bytes.Buffer{})})
	if err == nil {
		t.Fatal("expected error for invalid glob syntax")
	}
	if !strings.Contains(err.Error(), "invalid pattern") {
		t.Errorf("error should mention invalid pattern, got: %v", err)
	}
	if errors.Is(err, ErrUnsafePattern) {
		t.Error("syntax errors should not be classified as unsafe patterns")
	}
}
