// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"sort"
	"strings"

	"taskpipe/pkg/pipefile"
)

const (
	// TargetPipeline is a single named pipeline.
	TargetPipeline TargetKind = iota
	// TargetGroup is a named ordered list of pipelines.
	TargetGroup
)

type (
	// TargetKind distinguishes pipelines from groups.
	TargetKind int

	// Target is a runnable unit discovered from a pipefile: a pipeline or a
	// group. Targets are what the CLI registers as dynamic subcommands.
	Target struct {
		// Name is the target identifier used as the CLI argument.
		Name string
		// Kind reports whether the target is a pipeline or a group.
		Kind TargetKind
		// Description provides help text. For groups it is synthesized from
		// the member list, since groups carry no description of their own.
		Description string
		// Source indicates where the defining pipefile was found.
		Source Source
		// FilePath is the path to the pipefile defining this target.
		FilePath string
		// Pipefile is the parsed defining document.
		Pipefile *pipefile.Pipefile
	}
)

// String returns a human-readable kind name.
func (k TargetKind) String() string {
	switch k {
	case TargetPipeline:
		return "pipeline"
	case TargetGroup:
		return "group"
	default:
		return "unknown"
	}
}

// DiscoverTargets finds all available targets from all pipefiles, sorted by
// name. Files that fail to parse are skipped; use DiscoverTargetSet to also
// get the diagnostics explaining what was skipped.
func (d *Discovery) DiscoverTargets() ([]*Target, error) {
	result, err := d.DiscoverTargetSet()
	if err != nil {
		return nil, err
	}
	return result.Targets, nil
}

// DiscoverTargetSet finds all available targets plus the diagnostics produced
// along the way. Name collisions across files resolve by precedence: the
// working directory shadows search paths, which shadow the user pipelines
// directory. Shadowing is intentional and produces no diagnostic.
func (d *Discovery) DiscoverTargetSet() (*TargetSetResult, error) {
	files, diagnostics, err := d.loadAllWithDiagnostics()
	if err != nil {
		return nil, err
	}

	var targets []*Target
	seen := make(map[string]bool)

	for _, file := range files {
		if file.Error != nil {
			diagnostics = append(diagnostics, NewDiagnosticWithCause(
				SeverityWarning, CodePipefileParseSkipped,
				fmt.Sprintf("skipping pipefile at %s: %v", file.Path, file.Error),
				file.Path, file.Error))
			continue
		}
		if file.Pipefile == nil {
			continue
		}

		for i := range file.Pipefile.Pipelines {
			p := &file.Pipefile.Pipelines[i]
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			targets = append(targets, &Target{
				Name:        p.Name,
				Kind:        TargetPipeline,
				Description: p.Description,
				Source:      file.Source,
				FilePath:    file.Path,
				Pipefile:    file.Pipefile,
			})
		}

		for i := range file.Pipefile.Groups {
			g := &file.Pipefile.Groups[i]
			if seen[g.Name] {
				continue
			}
			seen[g.Name] = true
			targets = append(targets, &Target{
				Name:        g.Name,
				Kind:        TargetGroup,
				Description: groupDescription(g),
				Source:      file.Source,
				FilePath:    file.Path,
				Pipefile:    file.Pipefile,
			})
		}
	}

	// Sort targets by name for consistent ordering
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].Name < targets[j].Name
	})

	return &TargetSetResult{Targets: targets, Diagnostics: diagnostics}, nil
}

// GetTarget finds a specific target by name. The returned LookupResult always
// carries the discovery diagnostics; Target is nil (with a target_not_found
// diagnostic appended) when no pipeline or group has the requested name.
func (d *Discovery) GetTarget(name string) (*LookupResult, error) {
	result, err := d.DiscoverTargetSet()
	if err != nil {
		return nil, err
	}

	for _, target := range result.Targets {
		if target.Name == name {
			return &LookupResult{Target: target, Diagnostics: result.Diagnostics}, nil
		}
	}

	diagnostics := append(result.Diagnostics, NewDiagnostic(
		SeverityError, CodeTargetNotFound,
		fmt.Sprintf("target %q not found", name)))
	return &LookupResult{Diagnostics: diagnostics}, nil
}

// GetTargetsWithPrefix returns targets whose name starts with the given
// prefix, for shell completion.
func (d *Discovery) GetTargetsWithPrefix(prefix string) ([]*Target, error) {
	targets, err := d.DiscoverTargets()
	if err != nil {
		return nil, err
	}

	var matching []*Target
	for _, target := range targets {
		if prefix == "" || strings.HasPrefix(target.Name, prefix) {
			matching = append(matching, target)
		}
	}

	return matching, nil
}

func groupDescription(g *pipefile.Group) string {
	return "runs " + strings.Join(g.Pipelines, ", ")
}
