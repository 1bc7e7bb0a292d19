// SPDX-License-Identifier: MPL-2.0

// Package clean deletes build leftovers matching glob patterns.
//
// Deletion is confined to a base directory: patterns are matched against an
// os.DirFS rooted there, so absolute patterns, parent-escaping patterns, and
// patterns that would select the base directory itself are all refused
// before anything is removed.
package clean

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// ErrUnsafePattern reports a clean pattern that could reach outside the base
// directory, or the base directory itself.
var ErrUnsafePattern = errors.New("unsafe clean pattern")

// Options control a clean run.
type Options struct {
	// DryRun reports what would be removed without touching the filesystem.
	DryRun bool

	// Logger receives one line per removed path. nil uses the default
	// logger.
	Logger *log.Logger
}

// Run removes every file and directory under baseDir matching the given
// doublestar patterns. Directories are removed recursively. It returns the
// removed paths relative to baseDir, in pattern order, and stops at the
// first deletion failure. With Options.DryRun the matched paths are returned
// and logged but nothing is deleted.
func Run(baseDir string, patterns []string, opts Options) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	if len(patterns) == 0 {
		return nil, nil
	}
	for _, pat := range patterns {
		if err := checkPattern(pat); err != nil {
			return nil, err
		}
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("clean: resolve base directory: %w", err)
	}

	fsys := os.DirFS(absBase)
	seen := make(map[string]struct{})
	var removed []string

	for _, pat := range patterns {
		matches, globErr := doublestar.Glob(fsys, filepath.ToSlash(pat))
		if globErr != nil {
			return removed, fmt.Errorf("clean: glob %q: %w", pat, globErr)
		}
		for _, match := range matches {
			if match == "." {
				return removed, fmt.Errorf("clean: pattern %q matches the base directory itself: %w", pat, ErrUnsafePattern)
			}
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}

			rel := filepath.FromSlash(match)
			target := filepath.Join(absBase, rel)

			// A parent directory matched earlier may have taken this entry
			// with it.
			if _, statErr := os.Lstat(target); statErr != nil {
				if os.IsNotExist(statErr) {
					continue
				}
				return removed, fmt.Errorf("clean: stat %s: %w", rel, statErr)
			}

			if opts.DryRun {
				logger.Info("would remove", "path", rel)
				removed = append(removed, rel)
				continue
			}

			if rmErr := os.RemoveAll(target); rmErr != nil {
				return removed, fmt.Errorf("clean: remove %s: %w", rel, rmErr)
			}
			logger.Info("removed", "path", rel)
			removed = append(removed, rel)
		}
	}

	if opts.DryRun {
		logger.Info("dry run complete", "matched", len(removed))
	} else {
		logger.Info("clean complete", "removed", len(removed))
	}
	return removed, nil
}

// checkPattern rejects patterns that are empty, absolute, drive-qualified,
// contain parent-directory segments, or fail doublestar syntax validation.
func checkPattern(pat string) error {
	if strings.TrimSpace(pat) == "" {
		return fmt.Errorf("clean: empty pattern: %w", ErrUnsafePattern)
	}
	if filepath.IsAbs(pat) || filepath.VolumeName(pat) != "" {
		return fmt.Errorf("clean: absolute pattern %q: %w", pat, ErrUnsafePattern)
	}
	for _, seg := range strings.Split(filepath.ToSlash(pat), "/") {
		if seg == ".." {
			return fmt.Errorf("clean: pattern %q escapes the base directory: %w", pat, ErrUnsafePattern)
		}
	}
	if !doublestar.ValidatePattern(filepath.ToSlash(pat)) {
		return fmt.Errorf("clean: invalid pattern %q", pat)
	}
	return nil
}
