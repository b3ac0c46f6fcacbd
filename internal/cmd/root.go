// Package cmd implements the udicti command line.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sirily23/udicti-cli/internal/config"
	"github.com/Sirily23/udicti-cli/internal/coordinator"
	"github.com/Sirily23/udicti-cli/internal/directory"
	"github.com/Sirily23/udicti-cli/internal/model"
	"github.com/Sirily23/udicti-cli/internal/registry"
	"github.com/Sirily23/udicti-cli/internal/style"
	"github.com/Sirily23/udicti-cli/internal/telemetry"
)

// Command groups.
const (
	GroupDirectory = "directory"
	GroupConfig    = "config"
	GroupServer    = "server"
)

// flushGrace is how long the CLI waits at exit for telemetry still in flight.
const flushGrace = 500 * time.Millisecond

var (
	verbose     bool   // --verbose: debug logging
	noTelemetry bool   // --no-telemetry: disable usage events for this run
	apiBaseFlag string // --api-base: override the configured API root
)

// sess is the per-invocation state built before any command runs.
var sess *session

var rootCmd = &cobra.Command{
	Use:   "udicti",
	Short: "The UDICTI developer community CLI",
	Long: `udicti connects you with the UDICTI developer community.

Join the developer directory, browse who else is building, and keep an
offline copy of the directory on this machine.

Examples:
  udicti onboarding          # Join the directory
  udicti show devs           # Browse developers
  udicti sync                # Refresh the offline copy
  udicti doctor              # Diagnose problems`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runWelcome,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupDirectory, Title: "Directory Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
		&cobra.Group{ID: GroupServer, Title: "Server Commands:"},
	)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noTelemetry, "no-telemetry", false, "Disable anonymous usage events for this run")
	rootCmd.PersistentFlags().StringVar(&apiBaseFlag, "api-base", "", "Override the API root (e.g. http://localhost:8080/api)")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if sess != nil {
		sess.emitter.Flush(flushGrace)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", style.ErrorPrefix, err)
		return 1
	}
	return 0
}

// session holds the configuration and components for one invocation.
type session struct {
	cfg       *config.Config
	configDir string
	logger    *slog.Logger
	emitter   *telemetry.Emitter
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		// doctor reports this; everything else runs on defaults.
		logger.Warn("using default configuration", "err", err)
		cfg = config.Default()
	}
	if apiBaseFlag != "" {
		cfg.APIBase = apiBaseFlag
	}
	if noTelemetry {
		cfg.Telemetry = false
	}

	sess = &session{
		cfg:       cfg,
		configDir: config.Dir(),
		logger:    logger,
		emitter: telemetry.New(telemetry.Config{
			Enabled: cfg.Telemetry,
			BaseURL: cfg.APIBase,
			Source:  model.SourceCLI,
			Timeout: cfg.TelemetryTimeoutDuration(),
			Logger:  logger,
		}),
	}

	sess.emitter.Emit(telemetry.EventCLIStartup, map[string]any{
		"subcommand": subcommandName(cmd),
		"version":    Version,
	})
	return nil
}

// subcommandName returns the command path below the root, e.g. "show devs".
func subcommandName(cmd *cobra.Command) string {
	if !cmd.HasParent() {
		return "welcome"
	}
	name := cmd.Name()
	for p := cmd.Parent(); p.HasParent(); p = p.Parent() {
		name = p.Name() + " " + name
	}
	return name
}

func (s *session) registry() *registry.Store {
	return registry.New(s.cfg.RegistryFile(),
		registry.WithEmailFolding(s.cfg.FoldEmail),
		registry.WithLogger(s.logger),
	)
}

func (s *session) directory() *directory.Client {
	return directory.New(s.cfg.APIBase,
		directory.WithTimeout(s.cfg.APITimeoutDuration()),
		directory.WithUserAgent("udicti-cli/"+Version),
	)
}

func (s *session) coordinator() *coordinator.Coordinator {
	var remote coordinator.Directory
	if s.cfg.APIBase != "" {
		remote = s.directory()
	}
	return coordinator.New(s.registry(), remote,
		coordinator.WithEmitter(s.emitter),
		coordinator.WithLogger(s.logger),
	)
}

func requireSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("requires a subcommand\n\nRun '%s --help' for usage", cmd.CommandPath())
	}
	return fmt.Errorf("unknown command %q for %q\n\nRun '%s --help' for usage", args[0], cmd.CommandPath(), cmd.CommandPath())
}
