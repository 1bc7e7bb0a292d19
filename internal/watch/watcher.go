// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs work when files under a directory change.
//
// A Watcher monitors a directory tree recursively and invokes a callback
// after a quiet period, so that bursts of filesystem events (an editor
// writing a temp file and renaming it, a formatter touching many files)
// collapse into a single re-run carrying the full set of changed paths.
package watch

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"taskpipe/internal/logging"
)

// defaultDebounce is the quiet period after the last filesystem event before
// the callback fires. Matches the watch.debounce_ms config default.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores are always excluded from watching, on top of any
// caller-supplied ignore globs. They cover VCS metadata, dependency caches,
// editor swap files, and OS metadata — paths that generate high-frequency
// noise no pipeline wants to re-run on.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir is the directory watched recursively. All patterns are
		// resolved relative to it. Empty means the current working directory.
		BaseDir string

		// Patterns select which changed files trigger the callback, as
		// doublestar globs relative to BaseDir (e.g. "src/**/*.js"). An
		// empty slice means every non-ignored file triggers.
		Patterns []string

		// Ignore adds globs that never trigger the callback, merged with the
		// built-in defaults. Callers should add the pipeline's declared
		// artifacts here so a run does not re-trigger itself.
		Ignore []string

		// Debounce is the quiet period after the last event before OnChange
		// fires. Zero or negative falls back to defaultDebounce.
		Debounce time.Duration

		// ClearScreen clears the terminal before each callback by writing
		// ANSI escape sequences to Stdout. No terminal detection is done;
		// enable it only when Stdout is a real terminal.
		ClearScreen bool

		// OnChange receives the deduplicated, sorted list of changed paths
		// (relative to BaseDir) once the debounce window closes. A nil
		// callback is a no-op. Errors are logged and watching continues, so
		// a failing pipeline does not end the watch session.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives watcher diagnostics. nil defaults to a stderr
		// logger with the "watch" prefix.
		Logger *log.Logger

		// Stdout is where the clear-screen sequence is written. nil defaults
		// to os.Stdout.
		Stdout io.Writer
	}

	// Watcher monitors a directory tree and fires a debounced callback when
	// matching files change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		logger   *log.Logger
		stdout   io.Writer
		debounce time.Duration
		baseDir  string
		started  atomic.Bool
	}
)

// New creates a Watcher from cfg. It validates all glob patterns eagerly,
// resolves BaseDir to an absolute path, and registers every non-ignored
// directory under it with the underlying fsnotify watcher.
func New(cfg Config) (*Watcher, error) {
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: resolve working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New(logging.Options{Prefix: "watch"})
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  ignores,
		logger:   logger,
		stdout:   stdout,
		debounce: debounce,
		baseDir:  absBase,
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close after init failure", "error", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is cancelled, coalescing filesystem events and
// dispatching debounced callbacks. It returns nil on clean cancellation and
// an error only when the watcher itself is broken (fatal fsnotify errors,
// closed channels). Run must be called exactly once; a second call returns
// an error immediately.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire drains the pending set and invokes OnChange. It runs on the
	// timer's goroutine, possibly after ctx is cancelled, so it checks
	// ctx.Err() as a best-effort guard; the callback receives ctx and must
	// check it for cancellation-sensitive work. The atomic running guard
	// skips fires while a previous callback is still in flight — a pipeline
	// can easily outlast the debounce window — and reschedules the timer so
	// the accumulated pending set is not silently discarded.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Warn("previous run still in progress, deferring")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.ClearScreen {
			// ANSI: clear screen, cursor to top-left.
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}

		w.logger.Info("change detected", "files", len(changed))
		w.logger.Debug("changed paths", "paths", strings.Join(changed, ", "))

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("re-run failed", "error", err)
			}
		}
	}

	// Drain the timer and close the fsnotify watcher on exit. The timer is
	// written by the event loop under mu.
	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil && !localTimer.Stop() {
			select {
			case <-localTimer.C:
			default:
			}
		}
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("close fsnotify watcher", "error", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}

			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}

			if w.isIgnored(rel) || !w.matchesPatterns(rel) {
				continue
			}

			// Extend the recursive watch to directories created after
			// startup.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			// Resource exhaustion means the watcher cannot recover; anything
			// else is logged and watching continues. Classification is
			// platform-specific (see watcher_fatal_*.go).
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// addDirectories walks the base directory and registers every non-ignored
// directory with fsnotify. Directories are registered regardless of watch
// patterns; pattern filtering happens per event so files created later in
// any directory still match.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Permission errors on individual directories are common and
			// should not abort the walk. Surface which paths are skipped.
			w.logger.Warn("skipping inaccessible path", "path", path, "error", walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}

		// Skip ignored directories entirely rather than descending.
		if w.isIgnored(rel) || w.isIgnored(rel+"/") {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir registers path with fsnotify if it is a non-ignored directory.
// Called for Create events so directories made after the initial walk are
// watched too.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return
	}

	if w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}

	if addErr := w.fsw.Add(path); addErr != nil {
		w.logger.Warn("add new directory", "path", path, "error", addErr)
	}
}

// isIgnored reports whether rel (relative to BaseDir) matches any ignore
// pattern. Paths are normalised to forward slashes before matching.
func (w *Watcher) isIgnored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// matchesPatterns reports whether rel matches at least one configured watch
// pattern. No patterns means everything matches.
func (w *Watcher) matchesPatterns(rel string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.cfg.Patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// validatePatterns checks every pattern against the doublestar syntax so
// invalid globs fail at construction time instead of silently never
// matching. The label names the offending option in error messages.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
