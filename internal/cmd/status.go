package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clientdesk/internal/health"
	"github.com/felixgeelhaar/clientdesk/internal/session"
	"github.com/felixgeelhaar/clientdesk/internal/ux"
	"github.com/felixgeelhaar/clientdesk/internal/version"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and API status",
	Long: `Display an overview of the clientdesk environment.

Status information includes:
  • Whether a session is saved, and for which account
  • Reachability of the API at api.base_url
  • Readability of the token store

Examples:
  # Display status in default text format
  clientdesk status

  # Output as JSON for scripting
  clientdesk status --format json
`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusReport is the output of the status command.
type StatusReport struct {
	Timestamp string               `json:"timestamp" yaml:"timestamp"`
	Version   string               `json:"version" yaml:"version"`
	Home      string               `json:"home" yaml:"home"`
	APIURL    string               `json:"api_url" yaml:"api_url"`
	Session   SessionStatus        `json:"session" yaml:"session"`
	Overall   health.Status        `json:"overall" yaml:"overall"`
	Checks    []health.NamedResult `json:"checks" yaml:"checks"`
	NextSteps []string             `json:"next_steps,omitempty" yaml:"next_steps,omitempty"`
}

// SessionStatus describes the saved session.
type SessionStatus struct {
	State       string `json:"state" yaml:"state"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Store       string `json:"store" yaml:"store"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	format := env.cmdCtx.FormatOr("text")
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{
		Writer:  cmd.OutOrStdout(),
		NoColor: env.cfg.Display.NoColor,
	})
	if err != nil {
		return ValidationError("--format", format, strings.Join(ux.Formats, ", "))
	}

	s, err := env.openSessions(ctx)
	if err != nil {
		return ux.FormatError(err, "building status report", env.layout)
	}

	checks := health.NewManager().WithTimeout(env.cfg.API.Timeout)
	checks.AddChecker(health.NewAPIChecker(env.cfg.API.BaseURL, &http.Client{Timeout: env.cfg.API.Timeout}))
	checks.AddChecker(health.NewStoreChecker(s.store))

	report := buildStatusReport(env, s.manager, checks.Report(ctx))
	return formatter.Format(report)
}

func buildStatusReport(env *environment, manager *session.Manager, results []health.NamedResult) *StatusReport {
	report := &StatusReport{
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   version.Version,
		Home:      env.home,
		APIURL:    env.cfg.API.BaseURL,
		Session: SessionStatus{
			State: manager.State().String(),
			Email: manager.Email(),
			Store: manager.StoreLocation(),
		},
		Overall: overallStatus(results),
		Checks:  results,
	}
	if token, ok := manager.Current(); ok {
		report.Session.Fingerprint = session.Fingerprint(token)
	}
	report.NextSteps = nextSteps(report)
	return report
}

// overallStatus is unhealthy if any check is, else degraded if any is.
func overallStatus(results []health.NamedResult) health.Status {
	byName := make(map[string]*health.Result, len(results))
	for _, r := range results {
		byName[r.Name] = &health.Result{Status: r.Status}
	}
	return health.NewManager().OverallStatus(byName)
}

func nextSteps(report *StatusReport) []string {
	var steps []string
	for _, r := range report.Checks {
		if r.Name == "api-server" && r.Status == health.StatusUnhealthy {
			steps = append(steps,
				"Point clientdesk at your API: clientdesk config set api.base_url <url>",
				"Or start a local one: clientdesk mock-server")
		}
	}
	if report.Session.State != session.Authenticated.String() {
		steps = append(steps, "Sign in: clientdesk login")
	} else {
		steps = append(steps, "List clients: clientdesk clients list")
	}
	return steps
}

// String renders the report for text output.
func (r *StatusReport) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "clientdesk %s\n", r.Version)
	fmt.Fprintf(&b, "  Home: %s\n", r.Home)
	fmt.Fprintf(&b, "  API:  %s\n\n", r.APIURL)

	b.WriteString("Session:\n")
	if r.Session.State == session.Authenticated.String() {
		who := r.Session.Email
		if who == "" {
			who = "unknown account"
		}
		fmt.Fprintf(&b, "  ✓ Signed in as %s (token %s)\n", who, r.Session.Fingerprint)
	} else {
		b.WriteString("  ✗ Not signed in\n")
	}
	fmt.Fprintf(&b, "  Store: %s\n\n", r.Session.Store)

	fmt.Fprintf(&b, "Checks (%s):\n", r.Overall)
	for _, c := range r.Checks {
		fmt.Fprintf(&b, "  %s %s: %s\n", statusIcon(c.Status), c.Name, c.Message)
	}

	if len(r.NextSteps) > 0 {
		b.WriteString("\nNext steps:\n")
		for _, s := range r.NextSteps {
			fmt.Fprintf(&b, "  • %s\n", s)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Headers and Rows let the table format list the checks.
func (r *StatusReport) Headers() []string {
	return []string{"Check", "Status", "Message", "Latency"}
}

func (r *StatusReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		rows = append(rows, []string{c.Name, c.Status.String(), c.Message, c.Latency.Round(time.Millisecond).String()})
	}
	return rows
}

func statusIcon(s health.Status) string {
	switch s {
	case health.StatusHealthy:
		return "✓"
	case health.StatusDegraded:
		return "⚠"
	default:
		return "✗"
	}
}
