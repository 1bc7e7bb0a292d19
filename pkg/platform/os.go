// SPDX-License-Identifier: MPL-2.0

package platform

// OS name constants for runtime.GOOS comparisons. Shell selection and
// config directory resolution branch on these rather than on scattered
// string literals.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)
