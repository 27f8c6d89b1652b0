package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clientdesk/internal/tui"
	"github.com/felixgeelhaar/clientdesk/internal/ux"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive client browser",
	Long: `Open the full-screen app: sign in if needed, then browse the client list.

Keys in the list: arrows move, 1-4 sort by column, / filters, r reloads,
a is the add action, L signs out, q quits.

Logs go to <home>/logs/clientdesk.log while the app is open.`,
	Args: cobra.NoArgs,
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !tui.IsInteractive() {
		return NotInteractiveError("ui",
			"Print the list instead: clientdesk clients list",
			"Sign in non-interactively: clientdesk login --email <e-mail> --password-stdin")
	}

	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.logToFile(); err != nil {
		return err
	}

	s, err := env.openSessions(ctx)
	if err != nil {
		return ux.FormatError(err, "", env.layout)
	}

	loc, err := env.cfg.Location()
	if err != nil {
		return err
	}

	app := tui.NewApp(ctx, s.manager, s.loader(env.logger), tui.Options{
		Location: loc,
		NoColor:  env.cfg.Display.NoColor,
		Logger:   env.logger,
	})
	return tui.Run(ctx, app)
}
