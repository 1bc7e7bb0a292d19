// SPDX-License-Identifier: MPL-2.0

// Package discovery handles pipefile discovery and target aggregation.
//
// This package intentionally combines two related concerns:
//   - File discovery: locating pipefile.cue / pipefile.toml documents
//   - Target aggregation: building the unified target list (pipelines and
//     groups) from discovered files
//
// These concerns are tightly coupled because target aggregation depends
// directly on discovery results and ordering. Splitting them would create
// unnecessary indirection without meaningful abstraction benefit.
//
// File organization:
//   - discovery.go: Core types (Discovery, DiscoveredFile) and loading methods
//   - targets.go: Target aggregation (DiscoverTargets, GetTarget, etc.)
//   - diagnostic.go: Structured non-fatal diagnostics returned to callers
package discovery
