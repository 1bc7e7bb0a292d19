// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Shared lipgloss styles for CLI output. The palette is tuned for dark
// terminal backgrounds; route new output through these instead of ad-hoc
// ANSI codes so listings, stats, and diagnostics stay visually consistent.
var (
	// TitleStyle marks primary headers and section titles (purple, bold).
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	// SubtitleStyle marks secondary text and descriptions (gray).
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	// SuccessStyle marks completed pipelines and positive outcomes (green).
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	// ErrorStyle marks failed steps and fatal diagnostics (red, bold).
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	// WarningStyle marks skipped work and discovery warnings (amber).
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	// TargetStyle marks pipeline and group names (blue).
	TargetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	// VerboseStyle marks supplementary verbose-only detail (light gray).
	VerboseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))
)
