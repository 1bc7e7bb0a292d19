// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
)

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"
)

const (
	// CodeWorkingDirUnavailable is emitted when the working directory cannot
	// be resolved at construction time.
	CodeWorkingDirUnavailable DiagnosticCode = "working_dir_unavailable"
	// CodePipelinesDirUnavailable is emitted when the user pipelines directory
	// cannot be resolved at construction time.
	CodePipelinesDirUnavailable DiagnosticCode = "pipelines_dir_unavailable"
	// CodeConfigLoadFailed is emitted by the CLI layer when configuration
	// loading fell back to defaults.
	CodeConfigLoadFailed DiagnosticCode = "config_load_failed"
	// CodeTargetNotFound is emitted when a requested target does not exist.
	CodeTargetNotFound DiagnosticCode = "target_not_found"
	// CodePipefileParseSkipped is emitted when a discovered pipefile fails to
	// parse and is excluded from target aggregation.
	CodePipefileParseSkipped DiagnosticCode = "pipefile_parse_skipped"
	// CodeSearchPathInvalid is emitted when a configured search path cannot be
	// resolved to an absolute path.
	CodeSearchPathInvalid DiagnosticCode = "search_path_invalid"
	// CodeSearchPathMissing is emitted when a configured search path does not
	// exist on disk.
	CodeSearchPathMissing DiagnosticCode = "search_path_missing"
	// CodePipelinesScanFailed is emitted when the user pipelines directory
	// exists but cannot be listed.
	CodePipelinesScanFailed DiagnosticCode = "pipelines_scan_failed"
)

var (
	// ErrInvalidSeverity is the sentinel error wrapped by InvalidSeverityError.
	ErrInvalidSeverity = errors.New("invalid severity")
	// ErrInvalidDiagnosticCode is the sentinel error wrapped by InvalidDiagnosticCodeError.
	ErrInvalidDiagnosticCode = errors.New("invalid diagnostic code")
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// InvalidSeverityError is returned when a Severity value is not recognized.
	InvalidSeverityError struct {
		Value Severity
	}

	// DiagnosticCode is a machine-readable identifier for a class of discovery
	// diagnostics, stable across message wording changes.
	DiagnosticCode string

	// InvalidDiagnosticCodeError is returned when a DiagnosticCode value is
	// not one of the defined codes.
	InvalidDiagnosticCodeError struct {
		Value DiagnosticCode
	}

	// Diagnostic represents a structured discovery diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "pipefile_parse_skipped").
		Code DiagnosticCode
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}

	// TargetSetResult bundles discovered targets with diagnostics produced
	// during discovery. Diagnostics include parse warnings, unreadable search
	// paths, and other non-fatal issues that should be rendered by the CLI layer.
	TargetSetResult struct {
		Targets     []*Target
		Diagnostics []Diagnostic
	}

	// LookupResult bundles a single target lookup result with diagnostics.
	// Target is nil when the requested target was not found (the diagnostic
	// list will contain a "target_not_found" entry).
	LookupResult struct {
		Target      *Target
		Diagnostics []Diagnostic
	}
)

// NewDiagnostic creates a Diagnostic without path or cause.
func NewDiagnostic(severity Severity, code DiagnosticCode, message string) Diagnostic {
	return Diagnostic{Severity: severity, Code: code, Message: message}
}

// NewDiagnosticWithPath creates a Diagnostic associated with a file path.
func NewDiagnosticWithPath(severity Severity, code DiagnosticCode, message, path string) Diagnostic {
	return Diagnostic{Severity: severity, Code: code, Message: message, Path: path}
}

// NewDiagnosticWithCause creates a Diagnostic carrying an underlying error.
func NewDiagnosticWithCause(severity Severity, code DiagnosticCode, message, path string, cause error) Diagnostic {
	return Diagnostic{Severity: severity, Code: code, Message: message, Path: path, Cause: cause}
}

// String returns the string representation of the Severity.
func (s Severity) String() string { return string(s) }

// IsValid returns whether the Severity is one of the defined levels.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{&InvalidSeverityError{Value: s}}
	}
}

// Error implements the error interface for InvalidSeverityError.
func (e *InvalidSeverityError) Error() string {
	return fmt.Sprintf("invalid severity %q (valid: warning, error)", e.Value)
}

// Unwrap returns ErrInvalidSeverity for errors.Is() compatibility.
func (e *InvalidSeverityError) Unwrap() error { return ErrInvalidSeverity }

// String returns the string representation of the DiagnosticCode.
func (c DiagnosticCode) String() string { return string(c) }

// IsValid returns whether the DiagnosticCode is one of the defined codes.
func (c DiagnosticCode) IsValid() (bool, []error) {
	switch c {
	case CodeWorkingDirUnavailable, CodePipelinesDirUnavailable, CodeConfigLoadFailed,
		CodeTargetNotFound, CodePipefileParseSkipped, CodeSearchPathInvalid,
		CodeSearchPathMissing, CodePipelinesScanFailed:
		return true, nil
	default:
		return false, []error{&InvalidDiagnosticCodeError{Value: c}}
	}
}

// Error implements the error interface for InvalidDiagnosticCodeError.
func (e *InvalidDiagnosticCodeError) Error() string {
	return fmt.Sprintf("invalid diagnostic code %q", e.Value)
}

// Unwrap returns ErrInvalidDiagnosticCode for errors.Is() compatibility.
func (e *InvalidDiagnosticCodeError) Unwrap() error { return ErrInvalidDiagnosticCode }
