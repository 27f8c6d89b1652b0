package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/clientdesk/internal/config"
	"github.com/felixgeelhaar/clientdesk/internal/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit clientdesk configuration",
	Long: `Manage clientdesk configuration stored at <home>/config.yaml

Configuration includes:
  • api: base_url, timeout, validate_responses
  • storage: backend (file, sqlite, memory), path
  • logging: level, format, enable_file, log_dir
  • display: timezone, no_color

Examples:
  # View the effective configuration
  clientdesk config view

  # Edit configuration in $EDITOR
  clientdesk config edit

  # Get a specific value
  clientdesk config get api.base_url

  # Set a specific value
  clientdesk config set storage.backend sqlite

  # Show configuration file path
  clientdesk config path
`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display current configuration",
	Long:  `Display the effective configuration: file values with environment and flag overrides applied.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration in $EDITOR",
	Long:  `Open the configuration file in your default editor (from $EDITOR environment variable).`,
	Args:  cobra.NoArgs,
	RunE:  runConfigEdit,
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Get a specific configuration value",
	Long:      `Retrieve the effective value of a configuration key using dot notation (e.g., api.base_url).`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys(),
	RunE:      runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific configuration value",
	Long:  `Set the value of a configuration key using dot notation (e.g., api.timeout 10s).`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

// configPath resolves <home>/config.yaml from --home and the environment.
func configPath(cmd *cobra.Command) (string, error) {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return "", fmt.Errorf("failed to create command context: %w", err)
	}
	home, err := config.ResolveHome(cmdCtx.Home)
	if err != nil {
		return "", err
	}
	return config.Path(home), nil
}

func runConfigView(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration", nil)
	}
	defer env.Close()

	format := env.cmdCtx.FormatOr("text")
	if format == "json" || format == "yaml" {
		formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{
			Writer:  cmd.OutOrStdout(),
			NoColor: env.cfg.Display.NoColor,
		})
		if err != nil {
			return err
		}
		return formatter.Format(env.cfg)
	}

	data, err := yaml.Marshal(env.cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration file: %s\n\n", config.Path(env.home))
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path, err := configPath(cmd)
	if err != nil {
		return ux.FormatError(err, "getting config path", nil)
	}

	// Ensure the file exists so the editor opens the defaults
	cfg, err := config.LoadFile(path)
	if err != nil {
		return ux.FormatError(err, "loading configuration", nil)
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if err := config.Save(cfg, path); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.CommandContext(cmd.Context(), editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	if _, err := config.LoadFile(path); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Configuration may contain errors: %v\n", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Please check and fix the configuration file.\n")
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration updated successfully")
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration", nil)
	}
	defer env.Close()

	value, err := env.cfg.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	path, err := configPath(cmd)
	if err != nil {
		return ux.FormatError(err, "getting config path", nil)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return ux.FormatError(err, "loading configuration", nil)
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := config.Save(cfg, path); err != nil {
		return ux.FormatError(err, "saving configuration", nil)
	}

	stored, _ := cfg.Get(key)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s\n", key, stored)
	if overridden := envOverride(key); overridden != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Note: $%s is set and takes precedence over the file\n", overridden)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := configPath(cmd)
	if err != nil {
		return ux.FormatError(err, "getting config path", nil)
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// envOverride names the environment variable that overrides key, if set.
func envOverride(key string) string {
	var name string
	switch strings.ToLower(key) {
	case "api.base_url":
		name = config.EnvAPIURL
	case "logging.level":
		name = config.EnvLogLevel
	default:
		return ""
	}
	if os.Getenv(name) == "" {
		return ""
	}
	return name
}
