package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clientdesk/internal/api"
	"github.com/felixgeelhaar/clientdesk/internal/clients"
	"github.com/felixgeelhaar/clientdesk/internal/config"
	"github.com/felixgeelhaar/clientdesk/internal/log"
	"github.com/felixgeelhaar/clientdesk/internal/session"
	"github.com/felixgeelhaar/clientdesk/internal/telemetry"
	"github.com/felixgeelhaar/clientdesk/internal/ux"
	"github.com/felixgeelhaar/clientdesk/internal/version"
)

// logFileName is written inside the configured log directory.
const logFileName = "clientdesk.log"

// environment is the resolved configuration of one command invocation
// and the resources opened for it. Close releases them in reverse order.
type environment struct {
	cmdCtx *CommandContext
	home   string
	cfg    *config.Config
	layout *ux.HomeLayout
	logger *log.Logger

	closers []io.Closer
}

// newEnvironment resolves home and config with the precedence defaults,
// file, environment, flags. Logging goes to stderr.
func newEnvironment(cmd *cobra.Command) (*environment, error) {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create command context: %w", err)
	}

	home, err := config.ResolveHome(cmdCtx.Home)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.Path(home))
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, cmdCtx); err != nil {
		return nil, err
	}

	env := &environment{
		cmdCtx: cmdCtx,
		home:   home,
		cfg:    cfg,
		layout: ux.NewHomeLayout(home),
	}
	env.setLogger(log.NewOutput(cmd.ErrOrStderr()))

	shutdown, err := telemetry.InitProvider(cmd.Context(), cfg.Telemetry(version.Version))
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}
	env.closers = append(env.closers, closerFunc(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), tracingFlushTimeout)
		defer cancel()
		return shutdown(ctx)
	}))
	return env, nil
}

// tracingFlushTimeout bounds span export when the command exits.
const tracingFlushTimeout = 5 * time.Second

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func applyFlags(cfg *config.Config, cmdCtx *CommandContext) error {
	if cmdCtx.APIURL != "" {
		cfg.API.BaseURL = strings.TrimRight(cmdCtx.APIURL, "/")
	}
	if cmdCtx.LogLevel != "" {
		cfg.Logging.Level = cmdCtx.LogLevel
	}
	if cmdCtx.NoColor {
		cfg.Display.NoColor = true
	}
	if err := cfg.Validate(); err != nil {
		return NewErrorWithSuggestions("invalid argument in flags", err, "Run with --help to see all available options")
	}
	return nil
}

func (e *environment) setLogger(out log.Output) {
	c := log.DefaultConfig()
	c.Level = log.ParseLevel(e.cfg.Logging.Level)
	c.Format = log.ParseFormat(e.cfg.Logging.Format)
	c.Output = out
	c.ServiceVersion = version.Version

	e.logger = log.New(c)
	log.SetDefaultLogger(e.logger)
}

// logToFile moves logging off the terminal, to <log_dir>/clientdesk.log,
// or discards it when file logging is disabled.
func (e *environment) logToFile() error {
	if !e.cfg.Logging.EnableFile {
		e.setLogger(log.OutputDiscard())
		return nil
	}

	out, closer, err := log.OpenFile(e.logFile())
	if err != nil {
		return ux.FormatError(err, "opening log file", e.layout)
	}
	e.closers = append(e.closers, closer)
	e.setLogger(out)
	return nil
}

func (e *environment) logFile() string {
	return filepath.Join(e.cfg.LogDir(e.home), logFileName)
}

// apiClient builds the HTTP client. The response contract is loaded only
// when validation is enabled.
func (e *environment) apiClient(ctx context.Context) (*api.Client, error) {
	opts := []api.Option{
		api.WithTimeout(e.cfg.API.Timeout),
		api.WithLogger(e.logger),
		api.WithUserAgent(version.UserAgent()),
	}
	if e.cfg.API.ValidateResponses {
		contract, err := api.LoadContract(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load API contract: %w", err)
		}
		opts = append(opts, api.WithContract(contract))
	}
	return api.NewClient(e.cfg.API.BaseURL, opts...), nil
}

// openStore opens the configured token store and registers it for Close.
func (e *environment) openStore(ctx context.Context) (session.Store, error) {
	store, err := session.OpenStore(ctx, e.cfg.StoreConfig(e.home))
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, store)
	return store, nil
}

// sessions is everything a command needs to act for the signed-in user.
type sessions struct {
	manager *session.Manager
	client  *api.Client
	store   session.Store
}

// loader returns the client list loader bound to this session.
func (s *sessions) loader(logger *log.Logger) *clients.Loader {
	return clients.NewLoader(s.client, s.manager, logger)
}

// openSessions wires store, API client and session manager, and adopts a
// stored token if there is one.
func (e *environment) openSessions(ctx context.Context) (*sessions, error) {
	store, err := e.openStore(ctx)
	if err != nil {
		return nil, err
	}

	client, err := e.apiClient(ctx)
	if err != nil {
		return nil, err
	}

	manager := session.NewManager(store, client, e.logger)
	if err := manager.Initialize(ctx); err != nil {
		return nil, err
	}

	return &sessions{manager: manager, client: client, store: store}, nil
}

// Close releases everything opened for the command.
func (e *environment) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
