// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for taskpipe.
//
// This package implements the Cobra command hierarchy for the taskpipe CLI:
// the root command, the run command with its dynamically registered targets,
// and the supporting commands for listing, stats, checksums, cleanup,
// scaffolding, and configuration.
package cmd
