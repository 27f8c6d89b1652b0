package cmd

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clientdesk/internal/clients"
	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
	"github.com/felixgeelhaar/clientdesk/internal/ux"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Work with the client list",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the client list",
	Long: `Fetch the client list with the saved token and print it.

Dates are shown as dd/mm/yyyy. A rejected token clears the saved session.

Examples:
  clientdesk clients list
  clientdesk clients list --sort end --desc
  clientdesk clients list --filter clinic --format json
`,
	Args: cobra.NoArgs,
	RunE: runClientsList,
}

var (
	clientsSort   string
	clientsDesc   bool
	clientsFilter string
)

func init() {
	clientsListCmd.Flags().StringVar(&clientsSort, "sort", "", "sort by column: "+strings.Join(clients.ColumnKeys(clients.DefaultColumns(nil)), ", "))
	clientsListCmd.Flags().BoolVar(&clientsDesc, "desc", false, "sort descending")
	clientsListCmd.Flags().StringVar(&clientsFilter, "filter", "", "only show rows containing this text")

	clientsCmd.AddCommand(clientsListCmd)
	rootCmd.AddCommand(clientsCmd)
}

func runClientsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	format := env.cmdCtx.FormatOr("table")
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{
		Writer:  cmd.OutOrStdout(),
		NoColor: env.cfg.Display.NoColor,
	})
	if err != nil {
		return ValidationError("--format", format, strings.Join(ux.Formats, ", "))
	}

	loc, err := env.cfg.Location()
	if err != nil {
		return err
	}
	columns := clients.DefaultColumns(loc)
	if clientsSort != "" && !slices.Contains(clients.ColumnKeys(columns), clientsSort) {
		return ValidationError("--sort", clientsSort, strings.Join(clients.ColumnKeys(columns), ", "))
	}

	s, err := env.openSessions(ctx)
	if err != nil {
		return ux.FormatError(err, "", env.layout)
	}

	token, ok := s.manager.Current()
	if !ok {
		return apperrors.NewNoSessionError()
	}

	records, err := s.loader(env.logger).Load(ctx, token)
	if err != nil {
		return ux.FormatError(apiError(err), "listing clients", env.layout)
	}

	table := clients.NewTable(records, columns)
	if err := table.SetSort(clientsSort, clientsDesc); err != nil {
		return err
	}
	table.Filter(clientsFilter)

	switch format {
	case "json", "yaml":
		return formatter.Format(table.Records())
	default:
		return formatter.Format(table)
	}
}
