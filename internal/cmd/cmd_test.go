package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/felixgeelhaar/clientdesk/internal/config"
	"github.com/felixgeelhaar/clientdesk/internal/log"
	"github.com/felixgeelhaar/clientdesk/internal/mockapi"
)

const (
	demoEmail    = "demo@clientdesk.dev"
	demoPassword = "secret123"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command with args. Flag values are reset first
// because commands keep them in package variables.
func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// testEnv is an isolated home directory plus a running mock API.
type testEnv struct {
	home string
	mock *mockapi.Server
	url  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvHome, "")
	t.Setenv(config.EnvLogLevel, "")

	mock, err := mockapi.New(mockapi.DefaultFixtures(),
		mockapi.WithBcryptCost(bcrypt.MinCost),
		mockapi.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("mockapi.New() error = %v", err)
	}
	ts := httptest.NewServer(mock)
	t.Cleanup(ts.Close)

	return &testEnv{home: t.TempDir(), mock: mock, url: ts.URL}
}

// run executes a command against this environment.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	base := []string{"--home", e.home, "--api-url", e.url, "--log-level", "error"}
	return execute(t, stdin, append(base, args...)...)
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	res := e.run(t, demoPassword+"\n", "login", "--email", demoEmail, "--password-stdin")
	if res.err != nil {
		t.Fatalf("login error = %v", res.err)
	}
}
