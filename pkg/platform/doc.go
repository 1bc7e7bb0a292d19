// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// This package centralizes platform-specific concerns such as the OS name
// constants used for runtime.GOOS comparisons, so the string literals do
// not scatter across the codebase.
package platform
