// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	PipefileNotFoundId Id = iota + 1
	PipefileParseErrorId
	TargetNotFoundId
	ShellNotFoundId
	StepFailedId
	ConfigLoadFailedId
	RunnerUnavailableId
	ArtifactMissingId
	CleanRefusedId
)

type MarkdownMsg string

type HttpLink string

// Slug is the stable, human-typable name of an issue, used by
// `taskpipe explain <slug>`.
type Slug string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	slug     Slug        // stable name used by `taskpipe explain`
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Slug() Slug {
	return i.slug
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	pipefileNotFoundIssue = &Issue{
		id:   PipefileNotFoundId,
		slug: "pipefile-not-found",
		mdMsg: `
# No pipefile found!

We searched for a pipefile but couldn't find one in the expected locations.

## Search locations (in order of precedence):
1. pipefile.cue in the current directory
2. pipefile.toml in the current directory
3. Directories listed under search_paths in your config file
4. Your user pipelines directory (e.g. ~/.config/taskpipe/pipelines/)

## Things you can try:
- Create a pipefile in your current directory:
~~~
$ taskpipe init
~~~

- Or run from the directory that has one:
~~~
$ cd /path/to/your/project
$ taskpipe list
~~~

## Example pipefile structure:
~~~cue
pipelines: [
	{
		name: "build"
		description: "Compile and bundle the app"
		steps: [
			{run: "go build -o dist/app ./...", dest: "dist/app"},
			{run: "gzip -k dist/app"},
		]
	},
]
~~~`,
	}

	pipefileParseErrorIssue = &Issue{
		id:   PipefileParseErrorId,
		slug: "pipefile-parse-error",
		mdMsg: `
# Failed to parse pipefile!

Your pipefile contains syntax errors or invalid configuration.

## Common issues:
- Invalid CUE or TOML syntax (missing quotes, braces, etc.)
- Unknown field names
- Invalid values for known fields
- A pipeline without steps, or a step without a run command

## Things you can try:
- Check the error message above for the specific line/column
- Run with verbose mode for more details:
~~~
$ taskpipe --verbose list
~~~

## Example of a valid pipeline definition:
~~~cue
pipelines: [
	{
		name: "minify"
		steps: [
			{
				run:  "esbuild --minify src/app.js --outfile=dist/app.min.js"
				dest: "dist/app.min.js"
			}
		]
	}
]
~~~`,
	}

	targetNotFoundIssue = &Issue{
		id:   TargetNotFoundId,
		slug: "target-not-found",
		mdMsg: `
# Target not found!

The pipeline or group you specified was not found in any discovered pipefile.

## Things you can try:
- List all available targets:
~~~
$ taskpipe list
~~~

- Check for typos in the target name
- Verify the pipefile defines your pipeline or group
- Use tab completion:
~~~
$ taskpipe run <TAB>
~~~`,
	}

	shellNotFoundIssue = &Issue{
		id:   ShellNotFoundId,
		slug: "shell-not-found",
		mdMsg: `
# Shell not found!

Could not find a suitable shell for the 'native' runner.

## Shells we look for:
- Linux/macOS: $SHELL, bash, sh
- Windows: pwsh, powershell, cmd

## Things you can try:
- Install bash or another POSIX shell
- Set the SHELL environment variable
- Use the 'virtual' runner instead (built-in shell):
~~~cue
runner: "virtual"
~~~
  or globally in your config file:
~~~cue
default_runner: "virtual"
~~~`,
	}

	stepFailedIssue = &Issue{
		id:   StepFailedId,
		slug: "step-failed",
		mdMsg: `
# Pipeline step failed!

A step exited with a non-zero status, so the pipeline stopped. Steps run
strictly in order and a failure skips everything after it.

## Common causes:
- Command not found in PATH
- Permission denied
- The tool itself reported an error (lint failure, compile error, ...)

## Things you can try:
- Read the step's output above; taskpipe reports the failing step and its
  destination file (or "undefined" when the step has none)
- Run with verbose mode for more details:
~~~
$ taskpipe --verbose run <pipeline>
~~~

- Test the command manually in your shell
- Check file permissions and PATH settings`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		slug: "config-load-failed",
		mdMsg: `
# Failed to load configuration!

Could not load the taskpipe configuration file.

## Configuration file locations:
- Linux: ~/.config/taskpipe/config.cue
- macOS: ~/Library/Application Support/taskpipe/config.cue
- Windows: %APPDATA%\taskpipe\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ taskpipe config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/taskpipe/config.cue
~~~

## Example configuration:
~~~cue
default_runner: "native"
search_paths: [
	"/home/user/pipelines"
]

stats: {
	enabled: true
}

ui: {
	verbose: false
}
~~~`,
	}

	runnerUnavailableIssue = &Issue{
		id:   RunnerUnavailableId,
		slug: "runner-unavailable",
		mdMsg: `
# Runner not available!

The specified runner is not available on your system.

## Available runners:
- **native**: Uses your system's default shell (bash, sh, powershell, etc.)
- **virtual**: Uses the built-in mvdan/sh interpreter

## Things you can try:
- Change the runner in your pipefile:
~~~cue
pipelines: [
	{
		name:   "build"
		runner: "virtual"
		steps: [{run: "echo building"}]
	}
]
~~~

- Or set a global default in your config file:
~~~cue
default_runner: "virtual"
~~~

- Or override it for one invocation:
~~~
$ taskpipe run build --runner=virtual
~~~`,
	}

	artifactMissingIssue = &Issue{
		id:   ArtifactMissingId,
		slug: "artifact-missing",
		mdMsg: `
# Artifact missing!

A step declared a destination file, but after the pipeline ran the file
does not exist on disk, so its size cannot be reported.

## Common causes:
- The step wrote its output somewhere else (check relative paths; steps run
  in the pipefile's directory unless workdir says otherwise)
- A typo in the dest field
- The tool only writes the file under certain flags (e.g. missing -o)

## Things you can try:
- Compare the step's dest with the command's actual output path
- Run the step manually and check where the file lands
- Drop the dest field if the step genuinely produces no file`,
	}

	cleanRefusedIssue = &Issue{
		id:   CleanRefusedId,
		slug: "clean-refused",
		mdMsg: `
# Clean refused!

taskpipe refused to delete files because a cleanup pattern could escape
the project directory.

## Patterns must be:
- Relative (no leading / or drive letter)
- Free of parent traversal (no ..)
- Valid doublestar globs

## Things you can try:
- Rewrite the pattern relative to the pipefile's directory:
~~~cue
clean: ["temp/**", "dist/*.map"]
~~~

- Preview what would be deleted first:
~~~
$ taskpipe clean --dry-run
~~~`,
	}

	issues = map[Id]*Issue{
		pipefileNotFoundIssue.Id():   pipefileNotFoundIssue,
		pipefileParseErrorIssue.Id(): pipefileParseErrorIssue,
		targetNotFoundIssue.Id():     targetNotFoundIssue,
		shellNotFoundIssue.Id():      shellNotFoundIssue,
		stepFailedIssue.Id():         stepFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		runnerUnavailableIssue.Id():  runnerUnavailableIssue,
		artifactMissingIssue.Id():    artifactMissingIssue,
		cleanRefusedIssue.Id():       cleanRefusedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}

// GetBySlug returns the issue with the given slug, or nil when none matches.
func GetBySlug(slug Slug) *Issue {
	for _, i := range issues {
		if i.slug == slug {
			return i
		}
	}
	return nil
}

// Slugs returns all issue slugs sorted alphabetically.
func Slugs() []Slug {
	slugs := make([]Slug, 0, len(issues))
	for _, i := range issues {
		slugs = append(slugs, i.slug)
	}
	slices.Sort(slugs)
	return slugs
}
