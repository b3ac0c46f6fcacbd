package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sirily23/udicti-cli/internal/config"
	"github.com/Sirily23/udicti-cli/internal/style"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: GroupConfig,
	Short:   "View and change udicti settings",
	Long: `View and change settings stored in config.toml.

Keys:
  api_base           Directory and telemetry API root
  telemetry          Send anonymous usage events (true/false)
  api_timeout        Timeout for directory calls (e.g. 10s)
  telemetry_timeout  Timeout for a usage event, at most 3s
  fold_email         Treat emails case-insensitively in the local registry
  registry_path      Location of the local registry file

Environment variables UDICTI_API_BASE, UDICTI_TELEMETRY and DO_NOT_TRACK
override the file.`,
	RunE: requireSubcommand,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), config.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	v, err := sess.cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), v)
	return nil
}

// runConfigSet edits the file itself so environment overrides in effect for
// this run are not persisted.
func runConfigSet(cmd *cobra.Command, args []string) error {
	path := config.Path()
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	v, _ := cfg.Get(args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", style.SuccessPrefix, args[0], v)
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, key := range config.ValidKeys() {
		v, err := sess.cfg.Get(key)
		if err != nil {
			return err
		}
		if v == "" {
			v = style.Dim.Render("(unset)")
		}
		fmt.Fprintf(out, "%-18s %s\n", key, v)
	}
	return nil
}
