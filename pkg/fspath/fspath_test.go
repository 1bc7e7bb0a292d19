// SPDX-License-Identifier: MPL-2.0

package fspath_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"taskpipe/pkg/fspath"
	"taskpipe/pkg/platform"
	"taskpipe/pkg/types"
)

// slash builds the OS form of a forward-slash path literal.
func slash(p string) types.FilesystemPath {
	return types.FilesystemPath(filepath.FromSlash(p))
}

func TestTypedWrappers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  types.FilesystemPath
		want types.FilesystemPath
	}{
		{
			name: "Join typed segments",
			got:  fspath.Join(slash("proj"), slash("dist"), slash("app.js")),
			want: slash("proj/dist/app.js"),
		},
		{
			name: "Join collapses empty segments",
			got:  fspath.Join(slash("proj"), "", slash("dist")),
			want: slash("proj/dist"),
		},
		{
			name: "JoinStr typed base with literal",
			got:  fspath.JoinStr(slash("proj"), "pipefile.cue"),
			want: slash("proj/pipefile.cue"),
		},
		{
			name: "JoinStr several string segments",
			got:  fspath.JoinStr(slash("cache"), "artifacts", "bundle.js"),
			want: slash("cache/artifacts/bundle.js"),
		},
		{
			name: "Dir strips the last element",
			got:  fspath.Dir(slash("home/dev/pipefile.toml")),
			want: slash("home/dev"),
		},
		{
			name: "Clean resolves dot segments",
			got:  fspath.Clean(slash("dist/../dist/./app.js")),
			want: slash("dist/app.js"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestAbs(t *testing.T) {
	t.Parallel()

	got, err := fspath.Abs(types.FilesystemPath("."))
	if err != nil {
		t.Fatalf("Abs(.) error = %v", err)
	}
	if !fspath.IsAbs(got) {
		t.Errorf("Abs(.) = %q, not absolute", got)
	}
	if got != fspath.Clean(got) {
		t.Errorf("Abs(.) = %q, not clean", got)
	}
}

func TestIsAbs(t *testing.T) {
	t.Parallel()

	// On Windows an absolute path needs a drive letter; POSIX-style
	// /path does not qualify there.
	absPath := types.FilesystemPath("/absolute/path")
	if runtime.GOOS == platform.Windows {
		absPath = types.FilesystemPath(`C:\absolute\path`)
	}

	if !fspath.IsAbs(absPath) {
		t.Errorf("IsAbs(%q) = false, want true", absPath)
	}
	if fspath.IsAbs(types.FilesystemPath("dist/app.js")) {
		t.Error("IsAbs(dist/app.js) = true, want false")
	}
}
