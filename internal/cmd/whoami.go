package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sirily23/udicti-cli/internal/registry"
	"github.com/Sirily23/udicti-cli/internal/style"
)

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	GroupID: GroupDirectory,
	Short:   "Show who is onboarded on this machine",
	Long: `Show the developer onboarded on this machine.

Identity is determined by:
1. UDICTI_USER environment variable
2. The email remembered by 'udicti onboarding'

If nobody has onboarded, shows the identity detected from git/GitHub.`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	email, err := registry.Current(sess.configDir)
	if err != nil {
		return fmt.Errorf("getting current developer: %w", err)
	}

	if email == "" {
		fmt.Fprintln(out, style.Dim.Render("Not onboarded on this machine."))
		wd, _ := os.Getwd()
		id := registry.Detect(wd)
		if id.Name != "" || id.Email != "" || id.GitHub != "" {
			fmt.Fprintln(out, "Detected identity:")
			printField(out, "Name", id.Name)
			printField(out, "Email", id.Email)
			printField(out, "GitHub", id.GitHub)
			fmt.Fprintf(out, "  %s %s\n", style.Dim.Render("Source:"), style.Dim.Render(id.Source))
		}
		fmt.Fprintln(out, "Run 'udicti onboarding' to join the directory.")
		return nil
	}

	fmt.Fprintf(out, "%s %s\n", style.Bold.Render("Current developer:"), email)

	d, err := sess.registry().Get(email)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			fmt.Fprintln(out, style.Dim.Render("  Not in the local registry; run 'udicti sync' to fetch it."))
			return nil
		}
		return err
	}
	printField(out, "Name", d.Name)
	printField(out, "GitHub", "@"+d.GitHub)
	if len(d.Skills) > 0 {
		printField(out, "Skills", strings.Join(d.Skills, ", "))
	}
	if len(d.Interests) > 0 {
		printField(out, "Interests", strings.Join(d.Interests, ", "))
	}
	return nil
}

func printField(out io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(out, "  %-10s %s\n", label+":", value)
}
