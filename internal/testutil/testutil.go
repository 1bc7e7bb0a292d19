// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// MustChdir enters dir and returns a func that restores the previous
// working directory. Restore failures are reported through t.Errorf so a
// broken cleanup surfaces without masking the test's own failure.
func MustChdir(t testing.TB, dir string) func() {
	t.Helper()

	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	return func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restore wd %s: %v", prev, err)
		}
	}
}

// restoreEnv returns a func that puts key back to its pre-test state.
func restoreEnv(t testing.TB, key string) func() {
	prev, existed := os.LookupEnv(key)
	return func() {
		var err error
		if existed {
			err = os.Setenv(key, prev)
		} else {
			err = os.Unsetenv(key)
		}
		if err != nil {
			t.Errorf("restore env %s: %v", key, err)
		}
	}
}

// MustSetenv sets key=value and returns a func restoring the prior state.
func MustSetenv(t testing.TB, key, value string) func() {
	t.Helper()

	restore := restoreEnv(t, key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s: %v", key, err)
	}
	return restore
}

// MustUnsetenv clears key and returns a func restoring the prior state.
func MustUnsetenv(t testing.TB, key string) func() {
	t.Helper()

	restore := restoreEnv(t, key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unsetenv %s: %v", key, err)
	}
	return restore
}

// MustMkdirAll creates path and any missing parents.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()

	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

// MustWriteFile writes data to path, creating the file if needed.
func MustWriteFile(t testing.TB, path string, data []byte, perm os.FileMode) {
	t.Helper()

	if err := os.WriteFile(path, data, perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// MustWritePipefile writes content as dir/pipefile.cue and returns the
// written path. The file name matches what discovery looks for first.
func MustWritePipefile(t testing.TB, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "pipefile.cue")
	MustWriteFile(t, path, []byte(content), 0o644)
	return path
}
