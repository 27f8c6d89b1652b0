package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
	"github.com/felixgeelhaar/clientdesk/internal/session"
	"github.com/felixgeelhaar/clientdesk/internal/tui"
	"github.com/felixgeelhaar/clientdesk/internal/ux"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the access token",
	Long: `Exchange an e-mail and password for an access token and save it in the
token store under the clientdesk home directory.

Missing values are prompted for when the terminal is interactive.

Examples:
  # Prompt for everything
  clientdesk login

  # Non-interactive, e.g. in scripts
  echo "$PASSWORD" | clientdesk login --email you@example.com --password-stdin
`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved access token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var (
	loginEmail         string
	loginPassword      string
	loginPasswordStdin bool
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account e-mail")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prefer --password-stdin)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	loginCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	creds := session.Credentials{Email: loginEmail, Password: loginPassword}
	if loginPasswordStdin {
		creds.Password, err = readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	if creds.Email == "" || creds.Password == "" {
		if !tui.ShouldPrompt() {
			return MissingCredentialsError()
		}
		creds, err = tui.PromptForCredentials(creds)
		if err != nil {
			return err
		}
	}

	creds = creds.Normalize()
	if err := creds.Validate(); err != nil {
		return apperrors.NewCredentialsInvalidError(err)
	}

	s, err := env.openSessions(ctx)
	if err != nil {
		return ux.FormatError(err, "", env.layout)
	}

	if err := s.manager.Login(ctx, creds); err != nil {
		return ux.FormatError(err, "", env.layout)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed in as %s\n", s.manager.Email())
	fmt.Fprintf(cmd.OutOrStdout(), "  Token saved to %s\n", s.manager.StoreLocation())
	return nil
}

// readPassword reads the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	s, err := env.openSessions(ctx)
	if err != nil {
		return ux.FormatError(err, "", env.layout)
	}

	email := s.manager.Email()
	wasSignedIn := s.manager.State() == session.Authenticated
	if err := s.manager.Invalidate(ctx); err != nil {
		return ux.FormatError(err, "", env.layout)
	}

	if !wasSignedIn {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	if email == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed out %s\n", email)
	return nil
}
