package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/Sirily23/udicti-cli/internal/model"
	"github.com/Sirily23/udicti-cli/internal/style"
)

const (
	defaultTermWidth = 80
	maxSkillsShown   = 3
)

// isTerminal reports whether w is connected to a terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of out, defaulting to 80.
func terminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok {
		return defaultTermWidth
	}
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultTermWidth
}

// skillsSummary shows the first few skills.
func skillsSummary(skills []string) string {
	if len(skills) == 0 {
		return "No skills listed"
	}
	if len(skills) <= maxSkillsShown {
		return strings.Join(skills, ", ")
	}
	return strings.Join(skills[:maxSkillsShown], ", ") + "..."
}

func developerRows(devs []model.Developer) [][]string {
	rows := make([][]string, 0, len(devs))
	for _, d := range devs {
		rows = append(rows, []string{d.Name, "@" + d.GitHub, skillsSummary(d.Skills)})
	}
	return rows
}

var developerHeaders = []string{"NAME", "GITHUB", "SKILLS"}

// writeDeveloperTable renders developers as a bordered table on a terminal
// and as plain aligned columns otherwise.
func writeDeveloperTable(out io.Writer, devs []model.Developer) {
	rows := developerRows(devs)

	if !isTerminal(out) {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(developerHeaders, "\t"))
		for _, r := range rows {
			fmt.Fprintln(tw, strings.Join(r, "\t"))
		}
		tw.Flush()
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(style.ColorPrimary)).
		Headers(developerHeaders...).
		Rows(rows...).
		Width(min(terminalWidth(out), 100)).
		StyleFunc(func(row, col int) lipgloss.Style {
			cell := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return cell.Bold(true).Foreground(style.ColorSecondary)
			case col == 1:
				return cell.Foreground(style.ColorWarning)
			case col == 2:
				return cell.Foreground(style.ColorMuted)
			default:
				return cell
			}
		})
	fmt.Fprintln(out, t.String())
}
