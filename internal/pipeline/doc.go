// SPDX-License-Identifier: MPL-2.0

// Package pipeline executes pipelines: ordered shell-command steps drained
// front to back, one at a time, stopping at the first failure.
//
// The engine guarantees strict ordering (step N+1 never starts before step N
// finished successfully), fail-fast semantics (a failure discards the rest of
// the queue, no retry), and cancellation between steps via context.Context.
// Results are reported as a Report per pipeline rather than through
// callbacks.
package pipeline
