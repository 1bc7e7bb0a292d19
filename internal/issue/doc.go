// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-facing guidance.
//
// It defines error types that carry remediation steps, plus a catalog of
// known failure modes with Markdown help pages rendered by `taskpipe explain`.
package issue
