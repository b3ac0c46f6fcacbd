package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sirily23/udicti-cli/internal/config"
	"github.com/Sirily23/udicti-cli/internal/doctor"
	"github.com/Sirily23/udicti-cli/internal/style"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: GroupConfig,
	Short:   "Diagnose the udicti setup",
	Long: `Check the config file, the local developer registry, and the connection
to the UDICTI directory.

With --fix, problems that can be repaired automatically are fixed: a missing
registry is created, and an unreadable one is moved to users.json.corrupt and
replaced with an empty registry.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var doctorFix bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt to fix problems")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := &doctor.CheckContext{
		ConfigPath:   config.Path(),
		RegistryPath: sess.cfg.RegistryFile(),
		Timeout:      sess.cfg.APITimeoutDuration(),
	}
	if sess.cfg.APIBase != "" {
		ctx.Directory = sess.directory()
	}

	d := doctor.Default()
	var report *doctor.Report
	if doctorFix {
		report = d.Fix(ctx)
	} else {
		report = d.Run(ctx)
	}

	printReport(cmd.OutOrStdout(), report)
	return nil
}

func printReport(out io.Writer, report *doctor.Report) {
	for _, res := range report.Results {
		prefix := style.SuccessPrefix
		switch res.Status {
		case doctor.StatusWarning:
			prefix = style.WarningPrefix
		case doctor.StatusError:
			prefix = style.ErrorPrefix
		}
		fmt.Fprintf(out, "%s %-10s %s\n", prefix, res.Name, res.Message)
		for _, detail := range res.Details {
			fmt.Fprintf(out, "    %s\n", style.Dim.Render(detail))
		}
		if res.Status != doctor.StatusOK && res.FixHint != "" {
			fmt.Fprintf(out, "    %s %s\n", style.ArrowPrefix, res.FixHint)
		}
	}

	for _, name := range report.Fixed {
		fmt.Fprintf(out, "%s fixed %s\n", style.SuccessPrefix, name)
	}
	for name, err := range report.FixErrors {
		fmt.Fprintf(out, "%s could not fix %s: %v\n", style.ErrorPrefix, name, err)
	}

	fmt.Fprintf(out, "\n%d passed, %d warning(s), %d error(s)\n",
		report.Count(doctor.StatusOK), report.Count(doctor.StatusWarning), report.Count(doctor.StatusError))
}
