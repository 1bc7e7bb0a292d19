// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"taskpipe/internal/config"
	"taskpipe/pkg/fspath"
	"taskpipe/pkg/pipefile"
	"taskpipe/pkg/types"
)

const (
	// SourceCurrentDir indicates the file was found in the working directory.
	SourceCurrentDir Source = iota
	// SourceSearchPath indicates the file was found in a configured search path.
	SourceSearchPath
	// SourceUserDir indicates the file was found in the user pipelines directory.
	SourceUserDir
)

var (
	// ErrNoPipefile is returned when no pipefile exists in any searched location.
	ErrNoPipefile = errors.New("no pipefile found")
	// ErrInvalidSource is the sentinel error wrapped by InvalidSourceError.
	ErrInvalidSource = errors.New("invalid source")
)

type (
	// Source represents where a pipefile was found.
	Source int

	// InvalidSourceError is returned when a Source value is not one of the
	// defined locations.
	InvalidSourceError struct {
		Value Source
	}

	// DiscoveredFile represents a found pipefile with its source.
	DiscoveredFile struct {
		// Path is the absolute path to the pipefile
		Path string
		// Source indicates where the file was found
		Source Source
		// Pipefile is the parsed content (may be nil if not yet parsed)
		Pipefile *pipefile.Pipefile
		// Error contains any error that occurred during parsing
		Error error
	}

	// Discovery handles finding pipefiles.
	Discovery struct {
		cfg          *config.Config
		baseDir      types.FilesystemPath
		pipelinesDir types.FilesystemPath

		// initDiagnostics records construction-time resolution failures
		// (working directory, pipelines directory) for later surfacing.
		initDiagnostics []Diagnostic
	}

	// Option customizes a Discovery instance at construction time.
	Option func(*Discovery)
)

// String returns a human-readable source name.
func (s Source) String() string {
	switch s {
	case SourceCurrentDir:
		return "current directory"
	case SourceSearchPath:
		return "configured search path"
	case SourceUserDir:
		return "user pipelines directory"
	default:
		return "unknown"
	}
}

// IsValid returns whether the Source is one of the defined locations.
func (s Source) IsValid() (bool, []error) {
	switch s {
	case SourceCurrentDir, SourceSearchPath, SourceUserDir:
		return true, nil
	default:
		return false, []error{&InvalidSourceError{Value: s}}
	}
}

// Error implements the error interface for InvalidSourceError.
func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("invalid source %d", e.Value)
}

// Unwrap returns ErrInvalidSource for errors.Is() compatibility.
func (e *InvalidSourceError) Unwrap() error { return ErrInvalidSource }

// WithBaseDir overrides the working directory used for local discovery.
func WithBaseDir(dir types.FilesystemPath) Option {
	return func(d *Discovery) { d.baseDir = dir }
}

// WithPipelinesDir overrides the user pipelines directory.
func WithPipelinesDir(dir types.FilesystemPath) Option {
	return func(d *Discovery) { d.pipelinesDir = dir }
}

// New creates a Discovery instance. Without options the base directory is the
// process working directory and the pipelines directory comes from config.
// Resolution failures are recorded as init diagnostics instead of errors so
// discovery can still search the remaining locations.
func New(cfg *config.Config, opts ...Option) *Discovery {
	d := &Discovery{cfg: cfg}
	for _, opt := range opts {
		opt(d)
	}

	if d.baseDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			d.initDiagnostics = append(d.initDiagnostics, NewDiagnosticWithCause(
				SeverityWarning, CodeWorkingDirUnavailable,
				fmt.Sprintf("failed to resolve working directory: %v", err), "", err))
		} else {
			d.baseDir = types.FilesystemPath(cwd)
		}
	}

	if d.pipelinesDir == "" {
		dir, err := config.PipelinesDir()
		if err != nil {
			d.initDiagnostics = append(d.initDiagnostics, NewDiagnosticWithCause(
				SeverityWarning, CodePipelinesDirUnavailable,
				fmt.Sprintf("failed to resolve user pipelines directory: %v", err), "", err))
		} else {
			d.pipelinesDir = types.FilesystemPath(dir)
		}
	}

	return d
}

// DiscoverAll finds all pipefiles from all sources in 3-level precedence order:
//  1. Working directory (highest precedence; pipefile.cue preferred over pipefile.toml)
//  2. Configured search paths, in config order
//  3. User pipelines directory (<ConfigDir>/pipelines/*.cue, non-recursive)
//
// Earlier sources take precedence when the same target name appears in
// multiple files.
func (d *Discovery) DiscoverAll() ([]*DiscoveredFile, error) {
	files, _, err := d.discoverAllWithDiagnostics()
	return files, err
}

// discoverAllWithDiagnostics discovers files plus non-fatal warnings about
// skipped locations so callers can surface observability without failing.
func (d *Discovery) discoverAllWithDiagnostics() ([]*DiscoveredFile, []Diagnostic, error) {
	var files []*DiscoveredFile
	// Seed with any init-time diagnostics (e.g., os.Getwd failures) so they
	// surface through the standard diagnostic rendering pipeline.
	diagnostics := make([]Diagnostic, 0, len(d.initDiagnostics))
	diagnostics = append(diagnostics, d.initDiagnostics...)

	// 1. Working directory (highest precedence)
	// Skip local discovery when baseDir is empty (e.g., os.Getwd() failed
	// because the working directory was deleted). This prevents
	// fspath.Abs("") from silently resolving to the process working
	// directory, which may not exist.
	if d.baseDir != "" {
		if cwdFile := d.discoverInDir(d.baseDir, SourceCurrentDir); cwdFile != nil {
			files = append(files, cwdFile)
		}
	}

	// 2. Configured search paths
	if d.cfg != nil {
		for _, searchPath := range d.cfg.SearchPaths {
			file, searchDiags := d.discoverInSearchPath(types.FilesystemPath(searchPath))
			diagnostics = append(diagnostics, searchDiags...)
			if file != nil {
				files = append(files, file)
			}
		}
	}

	// 3. User pipelines directory (*.cue scan, non-recursive)
	if d.pipelinesDir != "" {
		userFiles, userDiags := d.scanPipelinesDir(d.pipelinesDir)
		files = append(files, userFiles...)
		diagnostics = append(diagnostics, userDiags...)
	}

	return files, diagnostics, nil
}

// discoverInDir looks for a pipefile in a specific directory.
func (d *Discovery) discoverInDir(dir types.FilesystemPath, source Source) *DiscoveredFile {
	absDir, err := fspath.Abs(dir)
	if err != nil {
		return nil
	}

	// Check for pipefile.cue first (preferred)
	path := fspath.JoinStr(absDir, pipefile.PipefileName+".cue")
	if _, err := os.Stat(path.String()); err == nil {
		return &DiscoveredFile{Path: path.String(), Source: source}
	}

	// Fall back to pipefile.toml
	path = fspath.JoinStr(absDir, pipefile.PipefileName+".toml")
	if _, err := os.Stat(path.String()); err == nil {
		return &DiscoveredFile{Path: path.String(), Source: source}
	}

	return nil
}

// discoverInSearchPath applies the per-directory pipefile lookup to a
// configured search path. Unlike the working directory, a configured path
// that cannot be used is explicit user intent gone wrong, so problems are
// reported as diagnostics rather than silently skipped.
func (d *Discovery) discoverInSearchPath(dir types.FilesystemPath) (*DiscoveredFile, []Diagnostic) {
	var diagnostics []Diagnostic

	absDir, err := fspath.Abs(dir)
	if err != nil {
		diagnostics = append(diagnostics, NewDiagnosticWithCause(
			SeverityWarning, CodeSearchPathInvalid,
			fmt.Sprintf("failed to resolve search path %q: %v", dir, err), dir.String(), err))
		return nil, diagnostics
	}

	if _, statErr := os.Stat(absDir.String()); os.IsNotExist(statErr) {
		diagnostics = append(diagnostics, NewDiagnosticWithPath(
			SeverityWarning, CodeSearchPathMissing,
			fmt.Sprintf("configured search path does not exist: %s", absDir), absDir.String()))
		return nil, diagnostics
	}

	return d.discoverInDir(absDir, SourceSearchPath), diagnostics
}

// scanPipelinesDir lists *.cue files in the user pipelines directory. The
// scan is flat: subdirectories are not recursed into. Entries come back in
// lexical order, so discovery output is deterministic.
func (d *Discovery) scanPipelinesDir(dir types.FilesystemPath) ([]*DiscoveredFile, []Diagnostic) {
	var files []*DiscoveredFile
	diagnostics := make([]Diagnostic, 0)

	absDir, err := fspath.Abs(dir)
	if err != nil {
		diagnostics = append(diagnostics, NewDiagnosticWithCause(
			SeverityWarning, CodePipelinesScanFailed,
			fmt.Sprintf("failed to resolve pipelines directory %q: %v", dir, err), dir.String(), err))
		return files, diagnostics
	}

	// A missing pipelines directory is common and not a warning.
	if _, statErr := os.Stat(absDir.String()); os.IsNotExist(statErr) {
		return files, diagnostics
	}

	entries, err := os.ReadDir(absDir.String())
	if err != nil {
		diagnostics = append(diagnostics, NewDiagnosticWithCause(
			SeverityWarning, CodePipelinesScanFailed,
			fmt.Sprintf("failed to list pipelines directory %s: %v", absDir, err), absDir.String(), err))
		return files, diagnostics
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".cue") {
			continue
		}
		files = append(files, &DiscoveredFile{
			Path:   fspath.JoinStr(absDir, entry.Name()).String(),
			Source: SourceUserDir,
		})
	}

	return files, diagnostics
}

// LoadAll parses all discovered files. Parse failures are recorded on the
// DiscoveredFile rather than aborting, so one broken pipefile does not hide
// the rest.
func (d *Discovery) LoadAll() ([]*DiscoveredFile, error) {
	files, _, err := d.loadAllWithDiagnostics()
	return files, err
}

// loadAllWithDiagnostics parses all discovered files, carrying discovery
// diagnostics through for callers that render them.
func (d *Discovery) loadAllWithDiagnostics() ([]*DiscoveredFile, []Diagnostic, error) {
	files, diagnostics, err := d.discoverAllWithDiagnostics()
	if err != nil {
		return nil, nil, err
	}

	for _, file := range files {
		pf, parseErr := pipefile.Parse(file.Path)
		if parseErr != nil {
			file.Error = parseErr
		} else {
			file.Pipefile = pf
		}
	}

	return files, diagnostics, nil
}

// LoadFirst loads the highest-precedence pipefile. A parse failure in that
// file is returned as an error (with the file for context) instead of falling
// through to lower-precedence sources: a broken local pipefile should be
// fixed, not silently shadowed.
func (d *Discovery) LoadFirst() (*DiscoveredFile, error) {
	files, err := d.DiscoverAll()
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, ErrNoPipefile
	}

	file := files[0]
	pf, parseErr := pipefile.Parse(file.Path)
	if parseErr != nil {
		file.Error = parseErr
		return file, parseErr
	}

	file.Pipefile = pf
	return file, nil
}
