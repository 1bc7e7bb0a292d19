// SPDX-License-Identifier: MPL-2.0

// Package pipefile defines the schema and parsing for pipefile documents.
//
// A pipefile declares named pipelines (ordered shell-command steps), named
// groups of pipelines, cleanup glob patterns, and stats defaults. Documents
// are written in CUE (validated against the embedded schema) or TOML.
package pipefile

import (
	"fmt"
	"path/filepath"
)

// RunnerMode selects how a pipeline's steps are executed.
type RunnerMode string

const (
	// RunnerNative executes steps with the system shell.
	RunnerNative RunnerMode = "native"
	// RunnerVirtual executes steps with the embedded POSIX interpreter.
	RunnerVirtual RunnerMode = "virtual"
)

// DefaultGroupName is the group run when no target argument is given.
const DefaultGroupName = "default"

// PipefileName is the base filename (without extension) searched for during
// discovery: pipefile.cue first, then pipefile.toml.
const PipefileName = "pipefile"

// IsValid reports whether the runner mode is one of the defined modes.
// The empty string is valid and means "inherit the default".
func (m RunnerMode) IsValid() bool {
	switch m {
	case "", RunnerNative, RunnerVirtual:
		return true
	default:
		return false
	}
}

type (
	// Step is one shell command in a pipeline. Steps run strictly in
	// declaration order and the first failure stops the pipeline.
	Step struct {
		// Run is the shell command to execute (required).
		Run string `json:"run" toml:"run"`
		// Dest is a human-readable destination label used only for logging
		// and failure attribution. May be empty.
		Dest string `json:"dest,omitempty" toml:"dest,omitempty"`
		// Artifact is the output file this step produces, measured by the
		// stats pipeline after a successful run. May be empty for steps
		// that produce nothing measurable.
		Artifact string `json:"artifact,omitempty" toml:"artifact,omitempty"`
	}

	// Pipeline is a named, ordered sequence of steps.
	Pipeline struct {
		// Name is the pipeline identifier used as the CLI target.
		Name string `json:"name" toml:"name"`
		// Description provides help text for the pipeline.
		Description string `json:"description,omitempty" toml:"description,omitempty"`
		// Steps are executed front to back; a failure stops the run.
		Steps []Step `json:"steps" toml:"steps"`
		// Env contains environment variables set for every step.
		Env map[string]string `json:"env,omitempty" toml:"env,omitempty"`
		// EnvFile is a dotenv file loaded before Env, resolved relative to
		// the pipefile directory. A trailing '?' marks it optional.
		EnvFile string `json:"env_file,omitempty" toml:"env_file,omitempty"`
		// WorkDir is the working directory for all steps, resolved relative
		// to the pipefile directory when not absolute.
		WorkDir string `json:"workdir,omitempty" toml:"workdir,omitempty"`
		// Runner overrides the pipefile-level default runner.
		Runner RunnerMode `json:"runner,omitempty" toml:"runner,omitempty"`
		// Watch lists glob patterns that trigger re-runs in watch mode.
		Watch []string `json:"watch,omitempty" toml:"watch,omitempty"`
		// Silent suppresses per-step progress logging.
		Silent bool `json:"silent,omitempty" toml:"silent,omitempty"`
	}

	// Group is a named ordered list of pipelines run back to back. The
	// group named "default" runs when the CLI is invoked without a target.
	Group struct {
		// Name is the group identifier used as the CLI target.
		Name string `json:"name" toml:"name"`
		// Pipelines are the member pipeline names, run in order.
		Pipelines []string `json:"pipelines" toml:"pipelines"`
		// Clean deletes the pipefile's clean patterns before the group runs.
		Clean bool `json:"clean,omitempty" toml:"clean,omitempty"`
	}

	// StatsDefaults gates the artifact statistics pass.
	StatsDefaults struct {
		// Enabled turns on size statistics after successful runs.
		Enabled bool `json:"enabled,omitempty" toml:"enabled,omitempty"`
	}

	// Pipefile is a parsed pipeline definition document.
	Pipefile struct {
		// Version is an optional document version marker.
		Version string `json:"version,omitempty" toml:"version,omitempty"`
		// Description provides help text for the whole file.
		Description string `json:"description,omitempty" toml:"description,omitempty"`
		// DefaultRunner applies to pipelines without their own runner.
		DefaultRunner RunnerMode `json:"default_runner,omitempty" toml:"default_runner,omitempty"`
		// Env contains environment variables shared by every pipeline.
		Env map[string]string `json:"env,omitempty" toml:"env,omitempty"`
		// EnvFile is a dotenv file loaded for every pipeline.
		EnvFile string `json:"env_file,omitempty" toml:"env_file,omitempty"`
		// Pipelines are the runnable units (required, at least one).
		Pipelines []Pipeline `json:"pipelines" toml:"pipelines"`
		// Groups are named pipeline lists.
		Groups []Group `json:"groups,omitempty" toml:"groups,omitempty"`
		// Clean lists glob patterns deleted by the clean command and by
		// groups with Clean set.
		Clean []string `json:"clean,omitempty" toml:"clean,omitempty"`
		// Stats holds the stats defaults for this file.
		Stats StatsDefaults `json:"stats,omitempty" toml:"stats,omitempty"`

		// FilePath is where this pipefile was loaded from. Set by Parse,
		// never part of the document itself.
		FilePath string `json:"-" toml:"-"`
	}
)

// Dir returns the directory containing the pipefile. Relative paths inside
// the document (workdir, env_file, artifacts) resolve against it.
func (pf *Pipefile) Dir() string {
	if pf.FilePath == "" {
		return "."
	}
	return filepath.Dir(pf.FilePath)
}

// GetPipeline returns the named pipeline, or false when absent.
func (pf *Pipefile) GetPipeline(name string) (*Pipeline, bool) {
	for i := range pf.Pipelines {
		if pf.Pipelines[i].Name == name {
			return &pf.Pipelines[i], true
		}
	}
	return nil, false
}

// GetGroup returns the named group, or false when absent.
func (pf *Pipefile) GetGroup(name string) (*Group, bool) {
	for i := range pf.Groups {
		if pf.Groups[i].Name == name {
			return &pf.Groups[i], true
		}
	}
	return nil, false
}

// ResolveGroup returns the group's member pipelines in declaration order.
func (pf *Pipefile) ResolveGroup(name string) ([]*Pipeline, error) {
	g, ok := pf.GetGroup(name)
	if !ok {
		return nil, fmt.Errorf("group %q not defined", name)
	}
	members := make([]*Pipeline, 0, len(g.Pipelines))
	for _, pname := range g.Pipelines {
		p, ok := pf.GetPipeline(pname)
		if !ok {
			return nil, fmt.Errorf("group %q references unknown pipeline %q", name, pname)
		}
		members = append(members, p)
	}
	return members, nil
}

// DefaultTargets returns the targets run when none are named: the "default"
// group's members when the group exists, otherwise every pipeline in
// declaration order.
func (pf *Pipefile) DefaultTargets() []string {
	if g, ok := pf.GetGroup(DefaultGroupName); ok {
		return append([]string(nil), g.Pipelines...)
	}
	names := make([]string, len(pf.Pipelines))
	for i := range pf.Pipelines {
		names[i] = pf.Pipelines[i].Name
	}
	return names
}

// EffectiveRunner resolves the runner for a pipeline: the pipeline's own
// runner, then the pipefile default, then native.
func (pf *Pipefile) EffectiveRunner(p *Pipeline) RunnerMode {
	if p != nil && p.Runner != "" {
		return p.Runner
	}
	if pf.DefaultRunner != "" {
		return pf.DefaultRunner
	}
	return RunnerNative
}
