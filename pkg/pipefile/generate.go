// SPDX-License-Identifier: MPL-2.0

package pipefile

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultPipefile returns the starter definition written by `taskpipe init`:
// a build pipeline with a measurable artifact, a test pipeline, a default
// group, and temp cleanup.
func DefaultPipefile() *Pipefile {
	return &Pipefile{
		Version:     "1",
		Description: "Project build pipelines",
		Pipelines: []Pipeline{
			{
				Name:        "build",
				Description: "Compile the project",
				Steps: []Step{
					{Run: "go build -o bin/app ./...", Dest: "bin/app", Artifact: "bin/app"},
				},
			},
			{
				Name:        "test",
				Description: "Run the test suite",
				Steps: []Step{
					{Run: "go test ./...", Dest: "tests"},
				},
			},
		},
		Groups: []Group{
			{Name: DefaultGroupName, Pipelines: []string{"build", "test"}, Clean: true},
		},
		Clean: []string{"temp/**"},
		Stats: StatsDefaults{Enabled: true},
	}
}

// GenerateCUE renders a pipefile as CUE source, suitable for writing a
// starter file. The output parses back through ParseBytes unchanged.
func GenerateCUE(pf *Pipefile) string {
	var sb strings.Builder

	sb.WriteString("// taskpipe pipeline definitions.\n")
	sb.WriteString("// Run `taskpipe list` to see the targets defined here.\n\n")

	if pf.Version != "" {
		fmt.Fprintf(&sb, "version: %q\n", pf.Version)
	}
	if pf.Description != "" {
		fmt.Fprintf(&sb, "description: %q\n", pf.Description)
	}
	if pf.DefaultRunner != "" {
		fmt.Fprintf(&sb, "default_runner: %q\n", pf.DefaultRunner)
	}
	writeEnv(&sb, "env", pf.Env, "")
	if pf.EnvFile != "" {
		fmt.Fprintf(&sb, "env_file: %q\n", pf.EnvFile)
	}

	sb.WriteString("\npipelines: [\n")
	for i := range pf.Pipelines {
		writePipeline(&sb, &pf.Pipelines[i])
	}
	sb.WriteString("]\n")

	if len(pf.Groups) > 0 {
		sb.WriteString("\ngroups: [\n")
		for _, g := range pf.Groups {
			fmt.Fprintf(&sb, "\t{name: %q, pipelines: [%s]", g.Name, quoteList(g.Pipelines))
			if g.Clean {
				sb.WriteString(", clean: true")
			}
			sb.WriteString("},\n")
		}
		sb.WriteString("]\n")
	}

	if len(pf.Clean) > 0 {
		fmt.Fprintf(&sb, "\nclean: [%s]\n", quoteList(pf.Clean))
	}

	if pf.Stats.Enabled {
		sb.WriteString("\nstats: enabled: true\n")
	}

	return sb.String()
}

func writePipeline(sb *strings.Builder, p *Pipeline) {
	sb.WriteString("\t{\n")
	fmt.Fprintf(sb, "\t\tname: %q\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(sb, "\t\tdescription: %q\n", p.Description)
	}
	if p.Runner != "" {
		fmt.Fprintf(sb, "\t\trunner: %q\n", p.Runner)
	}
	if p.WorkDir != "" {
		fmt.Fprintf(sb, "\t\tworkdir: %q\n", p.WorkDir)
	}
	writeEnv(sb, "env", p.Env, "\t\t")
	if p.EnvFile != "" {
		fmt.Fprintf(sb, "\t\tenv_file: %q\n", p.EnvFile)
	}
	sb.WriteString("\t\tsteps: [\n")
	for _, s := range p.Steps {
		fmt.Fprintf(sb, "\t\t\t{run: %q", s.Run)
		if s.Dest != "" {
			fmt.Fprintf(sb, ", dest: %q", s.Dest)
		}
		if s.Artifact != "" {
			fmt.Fprintf(sb, ", artifact: %q", s.Artifact)
		}
		sb.WriteString("},\n")
	}
	sb.WriteString("\t\t]\n")
	if len(p.Watch) > 0 {
		fmt.Fprintf(sb, "\t\twatch: [%s]\n", quoteList(p.Watch))
	}
	if p.Silent {
		sb.WriteString("\t\tsilent: true\n")
	}
	sb.WriteString("\t},\n")
}

// writeEnv renders an env map with sorted keys so output is deterministic.
func writeEnv(sb *strings.Builder, field string, env map[string]string, indent string) {
	if len(env) == 0 {
		return
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(sb, "%s%s: {\n", indent, field)
	for _, k := range keys {
		fmt.Fprintf(sb, "%s\t%q: %q\n", indent, k, env[k])
	}
	fmt.Fprintf(sb, "%s}\n", indent)
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
