package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sirily23/udicti-cli/internal/coordinator"
	"github.com/Sirily23/udicti-cli/internal/model"
	"github.com/Sirily23/udicti-cli/internal/registry"
	"github.com/Sirily23/udicti-cli/internal/style"
	"github.com/Sirily23/udicti-cli/internal/telemetry"
	"github.com/Sirily23/udicti-cli/internal/tui"
)

var onboardingCmd = &cobra.Command{
	Use:     "onboarding",
	Aliases: []string{"join"},
	GroupID: GroupDirectory,
	Short:   "Join the UDICTI developer directory",
	Long: `Register yourself in the UDICTI developer directory.

On a terminal an interactive form opens, prefilled from git config and the
GitHub CLI when available. Flags fill or override any field; with --no-input
(or when stdin is not a terminal) the flags alone are used.

Your record is sent to the directory and also kept in a local registry so
'udicti show devs' works offline.

Examples:
  udicti onboarding
  udicti join --name "Asha" --email asha@udicti.dev --github asha --skills go,sql`,
	Args: cobra.NoArgs,
	RunE: runOnboarding,
}

var (
	onboardName      string
	onboardEmail     string
	onboardGitHub    string
	onboardSkills    string
	onboardInterests string
	onboardNoInput   bool
)

func init() {
	onboardingCmd.Flags().StringVar(&onboardName, "name", "", "Your full name")
	onboardingCmd.Flags().StringVar(&onboardEmail, "email", "", "Your email address")
	onboardingCmd.Flags().StringVar(&onboardGitHub, "github", "", "Your GitHub handle")
	onboardingCmd.Flags().StringVar(&onboardSkills, "skills", "", "Comma-separated skills")
	onboardingCmd.Flags().StringVar(&onboardInterests, "interests", "", "Comma-separated interests")
	onboardingCmd.Flags().BoolVar(&onboardNoInput, "no-input", false, "Never open the interactive form")

	rootCmd.AddCommand(onboardingCmd)
}

func runOnboarding(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	sess.emitter.Emit(telemetry.EventOnboardingStarted, nil)

	d := onboardingFromFlags()

	if !onboardNoInput && isTerminal(os.Stdin) && isTerminal(out) {
		wd, _ := os.Getwd()
		id := registry.Detect(wd)
		initial := mergeDeveloper(d, model.Developer{Name: id.Name, Email: id.Email, GitHub: id.GitHub})

		entered, ok, err := tui.Run(initial, os.Stdin, out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, style.Dim.Render("Onboarding cancelled."))
			return nil
		}
		d = entered
	}

	reg, err := sess.coordinator().Register(context.Background(), d)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w (use --name, --email and --github)", err)
		}
		return err
	}

	printRegistration(out, reg)

	if reg.LocalOK() || reg.AlreadyLocal() {
		if err := registry.SetCurrent(sess.configDir, reg.Developer.Email); err != nil {
			sess.logger.Warn("remembering current developer", "err", err)
		}
	}
	return nil
}

func onboardingFromFlags() model.Developer {
	return model.Developer{
		Name:      onboardName,
		Email:     onboardEmail,
		GitHub:    onboardGitHub,
		Skills:    model.SplitList(onboardSkills),
		Interests: model.SplitList(onboardInterests),
	}
}

// mergeDeveloper fills blank fields of primary from fallback.
func mergeDeveloper(primary, fallback model.Developer) model.Developer {
	if primary.Name == "" {
		primary.Name = fallback.Name
	}
	if primary.Email == "" {
		primary.Email = fallback.Email
	}
	if primary.GitHub == "" {
		primary.GitHub = fallback.GitHub
	}
	return primary
}

func printRegistration(out io.Writer, reg *coordinator.Registration) {
	name := style.Accent.Render(reg.Developer.Name)

	switch reg.State {
	case coordinator.StateDone:
		fmt.Fprintf(out, "%s Welcome to UDICTI, %s! You're in the developer directory.\n", style.SuccessPrefix, name)
	case coordinator.StatePartialFailure:
		if reg.RemoteOK() {
			fmt.Fprintf(out, "%s %s is registered in the UDICTI directory.\n", style.SuccessPrefix, name)
		} else {
			fmt.Fprintf(out, "%s %s was saved on this machine only.\n", style.WarningPrefix, name)
		}
	case coordinator.StateFailed:
		fmt.Fprintf(out, "%s Could not register %s.\n", style.ErrorPrefix, name)
	}

	for _, w := range reg.Warnings {
		fmt.Fprintf(out, "  %s %s\n", style.WarningPrefix, style.Warning.Render(w))
	}
	if reg.RemoteErr != nil {
		fmt.Fprintf(out, "  %s\n", style.Dim.Render(reg.RemoteErr.Error()))
	}
	if reg.State == coordinator.StatePartialFailure && !reg.RemoteOK() {
		fmt.Fprintln(out, style.Dim.Render("  Run 'udicti onboarding' again when you're back online."))
	}
}
