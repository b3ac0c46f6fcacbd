package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sirily23/udicti-cli/internal/style"
	"github.com/Sirily23/udicti-cli/internal/telemetry"
)

var welcomeCmd = &cobra.Command{
	Use:     "welcome",
	GroupID: GroupDirectory,
	Short:   "Show the UDICTI welcome banner",
	Args:    cobra.NoArgs,
	RunE:    runWelcome,
}

func init() {
	rootCmd.AddCommand(welcomeCmd)
}

func runWelcome(cmd *cobra.Command, args []string) error {
	printWelcome(cmd.OutOrStdout())
	sess.emitter.Emit(telemetry.EventWelcomeShown, nil)
	return nil
}

func printWelcome(out io.Writer) {
	fmt.Fprintln(out, style.Banner("Build, learn, and connect with developers at the University of Dar es Salaam"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, style.Bold.Render("Get started:"))
	for _, line := range [][2]string{
		{"udicti onboarding", "join the developer directory"},
		{"udicti show devs", "see who is in the community"},
		{"udicti sync", "refresh your offline copy of the directory"},
		{"udicti doctor", "check your setup"},
	} {
		fmt.Fprintf(out, "  %s %-18s %s\n", style.ArrowPrefix, style.Accent.Render(line[0]), style.Dim.Render(line[1]))
	}
}
