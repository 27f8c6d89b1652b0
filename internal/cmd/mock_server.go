package cmd

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clientdesk/internal/health"
	"github.com/felixgeelhaar/clientdesk/internal/metrics"
	"github.com/felixgeelhaar/clientdesk/internal/mockapi"
	"github.com/felixgeelhaar/clientdesk/internal/server"
	"github.com/felixgeelhaar/clientdesk/internal/version"
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run a local clients API for development",
	Long: `Serve POST /token and GET /client from fixtures, so the app can be used
without the real API.

Besides the API the server exposes:
  /health          - API health, as the status command expects
  /metrics         - Prometheus metrics
  /health/live     - Liveness probe
  /health/ready    - Readiness probe
  /health/startup  - Startup probe

Without --fixtures it serves a built-in demo account
(demo@clientdesk.dev / secret123) and four clients.

Examples:
  clientdesk mock-server
  clientdesk mock-server --addr :9000 --fixtures fixtures.yaml --token-ttl 5m
`,
	Args: cobra.NoArgs,
	RunE: runMockServer,
}

var (
	mockAddr            string
	mockFixtures        string
	mockTokenTTL        time.Duration
	mockShutdownTimeout time.Duration
)

func init() {
	mockServerCmd.Flags().StringVar(&mockAddr, "addr", ":8000", "address to listen on")
	mockServerCmd.Flags().StringVar(&mockFixtures, "fixtures", "", "YAML file with users and clients (default built-in demo data)")
	mockServerCmd.Flags().DurationVar(&mockTokenTTL, "token-ttl", mockapi.DefaultTokenTTL, "how long issued tokens stay valid (0 never expires)")
	mockServerCmd.Flags().DurationVar(&mockShutdownTimeout, "shutdown-timeout", 30*time.Second, "maximum time to wait for connections to drain during shutdown")

	rootCmd.AddCommand(mockServerCmd)
}

func runMockServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	fixtures := mockapi.DefaultFixtures()
	if mockFixtures != "" {
		fixtures, err = mockapi.LoadFixtures(mockFixtures)
		if err != nil {
			return err
		}
	}

	registry, m := metrics.NewProcessRegistry()
	mock, err := mockapi.New(fixtures,
		mockapi.WithTokenTTL(mockTokenTTL),
		mockapi.WithLogger(env.logger),
		mockapi.WithRegistry(registry, m),
	)
	if err != nil {
		return fmt.Errorf("failed to build mock API: %w", err)
	}

	info := version.GetInfo()
	pm := health.NewProbeManager(info.Version)
	pm.AddChecker(health.CheckFunc("fixtures", func(ctx context.Context) *health.Result {
		return health.Healthy("fixtures loaded").
			WithDetail("users", mock.Users()).
			WithDetail("clients", len(fixtures.Clients)).
			WithDetail("active_tokens", mock.ActiveTokens())
	}))

	srv := server.NewServer(mock, pm, server.Config{
		Address:         mockAddr,
		ShutdownTimeout: mockShutdownTimeout,
	}, env.logger)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "clientdesk mock API %s\n", info.Version)
	fmt.Fprintf(out, "Listening on %s (%d users, %d clients, token TTL %s)\n",
		mockAddr, mock.Users(), len(fixtures.Clients), ttlLabel(mockTokenTTL))
	fmt.Fprintf(out, "Point the client at it: clientdesk --api-url http://localhost%s\n", portOf(mockAddr))
	fmt.Fprintf(out, "Press Ctrl+C to stop the server\n\n")

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Fprintln(out, "Server stopped gracefully")
	return nil
}

func ttlLabel(d time.Duration) string {
	if d <= 0 {
		return "unlimited"
	}
	return d.String()
}

// portOf returns ":port" from a listen address such as "0.0.0.0:8000".
func portOf(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return ":" + port
}
