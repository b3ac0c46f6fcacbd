package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sirily23/udicti-cli/internal/coordinator"
	"github.com/Sirily23/udicti-cli/internal/style"
	"github.com/Sirily23/udicti-cli/internal/telemetry"
)

var showCmd = &cobra.Command{
	Use:     "show",
	GroupID: GroupDirectory,
	Short:   "Show community information",
	RunE:    requireSubcommand,
}

var showDevsCmd = &cobra.Command{
	Use:     "devs",
	Aliases: []string{"developers"},
	Short:   "List developers in the UDICTI directory",
	Long: `List every developer in the UDICTI directory.

The directory is queried first. When it can't be reached, the local registry
is shown instead and marked as offline.

Examples:
  udicti show devs
  udicti show devs --local     # Only the local registry
  udicti show devs --json`,
	Args: cobra.NoArgs,
	RunE: runShowDevs,
}

var (
	showLocal bool
	showJSON  bool
)

func init() {
	showDevsCmd.Flags().BoolVar(&showLocal, "local", false, "Read only the local registry")
	showDevsCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")

	showCmd.AddCommand(showDevsCmd)
	rootCmd.AddCommand(showCmd)
}

func runShowDevs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	listing, err := sess.coordinator().ListDevelopers(context.Background(), !showLocal)
	if err != nil {
		fmt.Fprintf(out, "%s Could not load developers: %v\n", style.ErrorPrefix, err)
		return nil
	}

	sess.emitter.Emit(telemetry.EventDevelopersShown, map[string]any{
		"count":  len(listing.Developers),
		"source": string(listing.Source),
		"stale":  listing.Stale,
	})

	if showJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Developers any    `json:"developers"`
			Count      int    `json:"count"`
			Source     string `json:"source"`
			Stale      bool   `json:"stale"`
		}{listing.Developers, len(listing.Developers), string(listing.Source), listing.Stale})
	}

	if listing.Stale {
		fmt.Fprintf(out, "%s %s\n", style.WarningPrefix,
			style.Warning.Render("Offline: showing developers saved on this machine. The list may be out of date."))
		sess.logger.Debug("directory unavailable", "err", listing.RemoteErr)
	}

	if len(listing.Developers) == 0 {
		fmt.Fprintln(out, style.Dim.Render("No developers yet. Run 'udicti onboarding' to be the first!"))
		return nil
	}

	fmt.Fprintln(out, style.Title.Render("UDICTI Developer Roster"))
	writeDeveloperTable(out, listing.Developers)
	fmt.Fprintln(out, style.Dim.Render(fmt.Sprintf("%d developer(s) %s", len(listing.Developers), sourceLabel(listing))))
	return nil
}

func sourceLabel(l *coordinator.Listing) string {
	if l.Source == coordinator.SourceRemote {
		return "from the UDICTI directory"
	}
	return "from the local registry"
}
