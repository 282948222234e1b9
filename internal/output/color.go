// Package output provides styled terminal rendering helpers for gitpilot.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorSuccess is used for completed steps.
	ColorSuccess = lipgloss.Color("#66bb6a")

	// ColorError is used for failures and critical findings.
	ColorError = lipgloss.Color("#ef5350")

	// ColorWarning is used for caution indicators.
	ColorWarning = lipgloss.Color("#fff59d")

	// ColorMuted is used for secondary text and borders.
	ColorMuted = lipgloss.Color("#888888")

	// ColorHigh is used for high severity findings.
	ColorHigh = lipgloss.Color("#ffa726")
)

// Styles provides reusable lipgloss styles.
var (
	// StyleHeader is used for section headers.
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	// StyleSuccess is used for success markers.
	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// StyleError is used for failure markers.
	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	// StyleWarning is used for cautionary values.
	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// StyleMuted is used for de-emphasized text.
	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StyleBold is used for emphasized text.
	StyleBold = lipgloss.NewStyle().
			Bold(true)

	// StyleHigh is used for high severity headings.
	StyleHigh = lipgloss.NewStyle().
			Foreground(ColorHigh).
			Bold(true)

	// StyleLabel is used for detail labels.
	StyleLabel = lipgloss.NewStyle().
			Width(16)
)

// noColor tracks whether color output is disabled.
var noColor bool

// SetNoColor disables or enables color output globally.
// When disabled, all package-level styles are reassigned to unstyled renderers.
func SetNoColor(disabled bool) {
	noColor = disabled
	if disabled {
		plain := lipgloss.NewStyle()
		StyleHeader = plain
		StyleSuccess = plain
		StyleError = plain
		StyleWarning = plain
		StyleMuted = plain
		StyleBold = plain
		StyleHigh = plain
		StyleLabel = plain.Width(16)
	}
}

// AutoColor disables color when stdout is not a terminal or NO_COLOR is set.
func AutoColor() {
	if os.Getenv("NO_COLOR") != "" || !IsTerminal(os.Stdout) {
		SetNoColor(true)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}
