package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clientdesk/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "clientdesk",
	Short: "Browse the clients of a remote API from the terminal",
	Long: `clientdesk signs in to a clients API with an e-mail and password, keeps the
issued token under its home directory, and shows the client list in a
sortable, filterable table.

Run without a subcommand in a terminal to open the interactive app.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx as every command's context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("home", "", "clientdesk home directory (default $CLIENTDESK_HOME or ~/.clientdesk)")
	rootCmd.PersistentFlags().String("api-url", "", "base URL of the clients API (overrides api.base_url)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("format", "", "output format: table, text, json, yaml")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
}

func runRoot(cmd *cobra.Command, args []string) error {
	if !tui.IsInteractive() {
		return cmd.Help()
	}
	return runUI(cmd, args)
}
