// Package style provides consistent terminal styling using Lipgloss, in the
// UDICTI brand colors.
package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Brand palette.
const (
	ColorPrimary   = lipgloss.Color("#0864af")
	ColorSecondary = lipgloss.Color("#f6b418")
	ColorSuccess   = lipgloss.Color("#22c55e")
	ColorWarning   = lipgloss.Color("#f59e0b")
	ColorError     = lipgloss.Color("#ef4444")
	ColorInfo      = lipgloss.Color("#3b82f6")
	ColorMuted     = lipgloss.Color("#6b7280")
)

var (
	// Success style for positive outcomes
	Success = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true)

	// Warning style for cautionary messages
	Warning = lipgloss.NewStyle().
		Foreground(ColorWarning).
		Bold(true)

	// Error style for failures
	Error = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)

	// Info style for informational messages
	Info = lipgloss.NewStyle().
		Foreground(ColorInfo)

	// Dim style for secondary information
	Dim = lipgloss.NewStyle().
		Foreground(ColorMuted)

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().
		Bold(true)

	// Title is the brand heading style
	Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	// Accent highlights names and handles
	Accent = lipgloss.NewStyle().
		Foreground(ColorSecondary)

	// Panel frames the welcome banner
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2)

	// SuccessPrefix is the checkmark prefix for success messages
	SuccessPrefix = Success.Render("✓")

	// WarningPrefix is the warning prefix
	WarningPrefix = Warning.Render("⚠")

	// ErrorPrefix is the error prefix
	ErrorPrefix = Error.Render("✗")

	// ArrowPrefix for action indicators
	ArrowPrefix = Info.Render("→")
)

// Banner renders the UDICTI welcome panel.
func Banner(subtitle string) string {
	var b strings.Builder
	b.WriteString(Title.Render("UDICTI Developer Community"))
	if subtitle != "" {
		b.WriteString("\n")
		b.WriteString(Dim.Render(subtitle))
	}
	return Panel.Render(b.String())
}
