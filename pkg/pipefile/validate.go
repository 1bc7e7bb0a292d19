// SPDX-License-Identifier: MPL-2.0

package pipefile

import (
	"fmt"
	"strings"
)

type (
	// ValidationError is a single problem found while validating a pipefile.
	ValidationError struct {
		// Field locates the problem (e.g., `pipeline "build" step #2`).
		Field string
		// Message describes the problem.
		Message string
	}

	// ValidationErrors collects every problem from one validation pass so
	// users can fix a broken pipefile in a single round trip.
	ValidationErrors []ValidationError
)

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Error implements the error interface for the collection.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(e))
	for _, ve := range e {
		b.WriteString("\n  - ")
		b.WriteString(ve.Error())
	}
	return b.String()
}

// Validate checks constraints the schema cannot express: unique names,
// resolvable group references, and valid runner modes. An empty step dest
// is deliberately legal; it is normalized at failure-attribution time.
func (pf *Pipefile) Validate() ValidationErrors {
	var errs ValidationErrors

	if !pf.DefaultRunner.IsValid() {
		errs = append(errs, ValidationError{
			Field:   "default_runner",
			Message: fmt.Sprintf("unknown runner %q (valid: native, virtual)", pf.DefaultRunner),
		})
	}

	if len(pf.Pipelines) == 0 {
		errs = append(errs, ValidationError{
			Field:   "pipelines",
			Message: "at least one pipeline is required",
		})
	}

	seen := make(map[string]string, len(pf.Pipelines)+len(pf.Groups))

	for i := range pf.Pipelines {
		p := &pf.Pipelines[i]
		field := fmt.Sprintf("pipeline %q", p.Name)
		if p.Name == "" {
			field = fmt.Sprintf("pipelines[%d]", i)
			errs = append(errs, ValidationError{Field: field, Message: "name is required"})
		} else if prev, dup := seen[p.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("name already used by %s", prev),
			})
		} else {
			seen[p.Name] = "a pipeline"
		}

		if !p.Runner.IsValid() {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown runner %q (valid: native, virtual)", p.Runner),
			})
		}

		if len(p.Steps) == 0 {
			errs = append(errs, ValidationError{Field: field, Message: "at least one step is required"})
		}
		for j := range p.Steps {
			if strings.TrimSpace(p.Steps[j].Run) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s step #%d", field, j+1),
					Message: "run command is required",
				})
			}
		}
	}

	for i := range pf.Groups {
		g := &pf.Groups[i]
		field := fmt.Sprintf("group %q", g.Name)
		if g.Name == "" {
			field = fmt.Sprintf("groups[%d]", i)
			errs = append(errs, ValidationError{Field: field, Message: "name is required"})
		} else if prev, dup := seen[g.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("name already used by %s", prev),
			})
		} else {
			seen[g.Name] = "a group"
		}

		if len(g.Pipelines) == 0 {
			errs = append(errs, ValidationError{Field: field, Message: "at least one pipeline is required"})
		}
		for _, pname := range g.Pipelines {
			if _, ok := pf.GetPipeline(pname); !ok {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("references unknown pipeline %q", pname),
				})
			}
		}
	}

	return errs
}
