package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sirily23/udicti-cli/internal/style"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: GroupDirectory,
	Short:   "Copy the directory into the local registry",
	Long: `Copy developers from the UDICTI directory into the local registry so they
are available offline. Developers already saved locally are left unchanged.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	report, err := sess.coordinator().Sync(context.Background())
	if err != nil {
		fmt.Fprintf(out, "%s Sync failed: %v\n", style.WarningPrefix, err)
		fmt.Fprintln(out, style.Dim.Render("  The local registry was not changed."))
		return nil
	}

	fmt.Fprintf(out, "%s Synced %d developer(s): %d new, %d already saved\n",
		style.SuccessPrefix, report.Remote, report.Added, report.Present)
	if report.Failed > 0 {
		fmt.Fprintf(out, "  %s %d could not be saved (run with --verbose for details)\n", style.WarningPrefix, report.Failed)
	}
	return nil
}
