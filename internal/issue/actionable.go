// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// ActionableError is a user-facing error carrying the failed operation,
// the resource involved, and suggestions for fixing it. It can link the
// failure to its catalog page so the rendered message points the user at
// `taskpipe explain <slug>`.
//
// Construct with the ErrorContext builder:
//
//	return issue.NewErrorContext().
//		WithOperation("load pipefile").
//		WithResource("./pipefile.cue").
//		WithSuggestion("Run 'taskpipe init' to create one").
//		WithIssue(issue.PipefileNotFoundId).
//		Wrap(err).
//		BuildError()
type ActionableError struct {
	// Operation is the verb phrase that failed, e.g. "load pipefile".
	Operation string

	// Resource is the file, target, or path involved. Optional.
	Resource string

	// Suggestions are fix hints rendered as a bullet list. Optional.
	Suggestions []string

	// Issue links the failure to its catalog page. Zero means no page.
	Issue Id

	// Cause is the wrapped underlying error. Optional.
	Cause error
}

// Error renders the compact one-line form used by non-verbose output.
func (e *ActionableError) Error() string {
	msg := "failed to " + e.Operation
	if e.Resource != "" {
		msg += ": " + e.Resource
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ActionableError) Unwrap() error { return e.Cause }

// Format renders the full user-facing form: the one-line message, the
// suggestion bullets, an explain hint when a catalog issue is linked,
// and in verbose mode the numbered cause chain.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		b.WriteString("\n")
		for _, hint := range e.Suggestions {
			b.WriteString("\n  • ")
			b.WriteString(hint)
		}
	}

	if page := Get(e.Issue); page != nil {
		fmt.Fprintf(&b, "\n\nRun 'taskpipe explain %s' for details.", page.Slug())
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		depth := 1
		for err := e.Cause; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", depth, err.Error())
			depth++
		}
	}

	return b.String()
}

// ErrorContext builds ActionableError values fluently. Build returns nil
// until an operation is set.
type ErrorContext struct {
	operation   string
	resource    string
	suggestions []string
	issue       Id
	cause       error
}

// NewErrorContext returns an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WithOperation sets the failing operation as a verb phrase, e.g.
// "load pipefile" or "run pipeline".
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource names the file, target, or path involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion appends one fix hint. Call repeatedly to stack hints.
func (c *ErrorContext) WithSuggestion(hint string) *ErrorContext {
	c.suggestions = append(c.suggestions, hint)
	return c
}

// WithSuggestions appends several fix hints at once.
func (c *ErrorContext) WithSuggestions(hints ...string) *ErrorContext {
	c.suggestions = append(c.suggestions, hints...)
	return c
}

// WithIssue links the error to its catalog page.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.issue = id
	return c
}

// Wrap records the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build materializes the error, or nil when no operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: c.suggestions,
		Issue:       c.issue,
		Cause:       c.cause,
	}
}

// BuildError is Build typed as error for direct use in return statements.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
