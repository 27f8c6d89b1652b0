// Package tui is the full-screen terminal app: a login form, then the
// client table.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/clientdesk/internal/api"
	"github.com/felixgeelhaar/clientdesk/internal/clients"
	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
	"github.com/felixgeelhaar/clientdesk/internal/log"
	"github.com/felixgeelhaar/clientdesk/internal/session"
)

// Sessions is the part of *session.Manager the app drives.
type Sessions interface {
	Login(ctx context.Context, creds session.Credentials) error
	Invalidate(ctx context.Context) error
	Current() (session.Token, bool)
	Email() string
}

// ClientLoader fetches the client list. *clients.Loader implements it.
type ClientLoader interface {
	Load(ctx context.Context, token session.Token) ([]api.ClientRecord, error)
}

// Screen is the view currently shown.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenSigningIn
	ScreenLoading
	ScreenData
)

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenSigningIn:
		return "signing-in"
	case ScreenLoading:
		return "loading"
	case ScreenData:
		return "data"
	default:
		return "unknown"
	}
}

const (
	actionsHeader      = "Actions"
	actionsCell        = "[ ⋯ ]"
	addUnavailable     = "Adding clients is not available."
	sessionEndedNotice = "Your session has ended. Please sign in again."
	signedOutNotice    = "Signed out."
	maxColumnWidth     = 32
)

// Options configures an App.
type Options struct {
	// Location converts dates before formatting. Nil keeps each
	// timestamp's own zone.
	Location *time.Location
	NoColor  bool
	Logger   *log.Logger
}

// App is the bubbletea model of the terminal app.
type App struct {
	ctx      context.Context
	sessions Sessions
	loader   ClientLoader
	logger   *log.Logger
	opts     Options
	styles   Styles

	screen Screen
	form   *huh.Form
	email  string

	// mount counts data-view mounts; late results of an older mount are
	// dropped.
	mount int

	spinner   spinner.Model
	view      *clients.Table
	table     table.Model
	filter    textinput.Model
	filtering bool
	help      help.Model

	notice   string
	loginErr string
	fetchErr string

	width    int
	height   int
	quitting bool
}

// loginResultMsg reports the outcome of a login attempt.
type loginResultMsg struct {
	err error
}

// clientsLoadedMsg carries the result of the fetch for one mount.
type clientsLoadedMsg struct {
	mount   int
	records []api.ClientRecord
	err     error
}

// loggedOutMsg reports that the session was cleared on request.
type loggedOutMsg struct {
	err error
}

// NewApp creates the app. It opens on the data view when sessions already
// holds a token and on the login form otherwise.
func NewApp(ctx context.Context, sessions Sessions, loader ClientLoader, opts Options) App {
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter clients"
	filter.CharLimit = 64

	a := App{
		ctx:      ctx,
		sessions: sessions,
		loader:   loader,
		logger:   opts.Logger.With("component", "tui"),
		opts:     opts,
		styles:   DefaultStyles(opts.NoColor),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		filter:   filter,
		help:     help.New(),
		email:    sessions.Email(),
	}

	if _, ok := sessions.Current(); ok {
		a.screen = ScreenLoading
		a.mount = 1
	} else {
		a.screen = ScreenLogin
		a.form = newLoginForm(a.email, opts.NoColor)
	}
	return a
}

// Screen returns the current view.
func (a App) Screen() Screen { return a.screen }

// Init starts the form, or the first fetch when a token exists.
func (a App) Init() tea.Cmd {
	if a.screen == ScreenLoading {
		token, _ := a.sessions.Current()
		return tea.Batch(a.spinner.Tick, a.fetch(a.mount, token))
	}
	return a.form.Init()
}

// Update handles messages and updates the model state.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		a.resizeTable()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			a.quitting = true
			return a, tea.Quit
		}

	case loginResultMsg:
		return a.handleLoginResult(msg)

	case clientsLoadedMsg:
		return a.handleClientsLoaded(msg)

	case loggedOutMsg:
		if msg.err != nil {
			a.logger.Warn("logout did not clear the store", "error", msg.err.Error())
		}
		return a.showLogin(signedOutNotice)

	case spinner.TickMsg:
		if a.screen != ScreenLoading && a.screen != ScreenSigningIn {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	switch a.screen {
	case ScreenLogin:
		return a.updateLogin(msg)
	case ScreenData:
		return a.updateData(msg)
	}
	return a, nil
}

func (a App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		return a.submit(credentialsFrom(a.form))
	case huh.StateAborted:
		a.quitting = true
		return a, tea.Quit
	}
	return a, cmd
}

// submit sends the credentials unless they fail local validation, in which
// case the form is shown again with the reason.
func (a App) submit(creds session.Credentials) (tea.Model, tea.Cmd) {
	creds = creds.Normalize()
	a.email = creds.Email
	a.notice = ""

	if err := creds.Validate(); err != nil {
		a.loginErr = err.Error()
		a.form = newLoginForm(a.email, a.opts.NoColor)
		return a, a.form.Init()
	}

	a.loginErr = ""
	a.screen = ScreenSigningIn
	sessions, ctx := a.sessions, a.ctx
	login := func() tea.Msg {
		return loginResultMsg{err: sessions.Login(ctx, creds)}
	}
	return a, tea.Batch(a.spinner.Tick, login)
}

func (a App) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	if a.screen != ScreenSigningIn {
		return a, nil
	}
	if msg.err != nil {
		a.logger.Info("login failed", "email", a.email, "error", msg.err.Error())
		a.screen = ScreenLogin
		a.loginErr = loginFailureText(msg.err)
		a.form = newLoginForm(a.email, a.opts.NoColor)
		return a, a.form.Init()
	}
	return a.mountData()
}

// mountData shows the loading view and fires the one fetch of this mount.
func (a App) mountData() (tea.Model, tea.Cmd) {
	token, ok := a.sessions.Current()
	if !ok {
		return a.showLogin(sessionEndedNotice)
	}

	a.mount++
	a.screen = ScreenLoading
	a.fetchErr = ""
	a.loginErr = ""
	return a, tea.Batch(a.spinner.Tick, a.fetch(a.mount, token))
}

func (a App) fetch(mount int, token session.Token) tea.Cmd {
	loader, ctx := a.loader, a.ctx
	return func() tea.Msg {
		records, err := loader.Load(ctx, token)
		return clientsLoadedMsg{mount: mount, records: records, err: err}
	}
}

func (a App) handleClientsLoaded(msg clientsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.mount != a.mount || a.screen != ScreenLoading {
		return a, nil
	}

	if msg.err != nil {
		if errors.Is(msg.err, clients.ErrNoSession) ||
			apperrors.HasCode(msg.err, apperrors.ErrCodeAuthSessionEnded) {
			return a.showLogin(sessionEndedNotice)
		}
		a.fetchErr = fetchFailureText(msg.err)
		msg.records = nil
	}

	a.screen = ScreenData
	a.view = clients.NewTable(msg.records, clients.DefaultColumns(a.opts.Location))
	a.table = table.New(
		table.WithFocused(true),
		table.WithStyles(a.styles.Table),
	)
	a.refreshTable()
	a.resizeTable()
	return a, nil
}

func (a App) showLogin(notice string) (tea.Model, tea.Cmd) {
	a.screen = ScreenLogin
	a.notice = notice
	a.fetchErr = ""
	a.filtering = false
	a.filter.Reset()
	a.view = nil
	if email := a.sessions.Email(); email != "" {
		a.email = email
	}
	a.form = newLoginForm(a.email, a.opts.NoColor)
	return a, a.form.Init()
}

func (a App) updateData(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)
	if a.filtering {
		if isKey {
			switch keyMsg.Type {
			case tea.KeyEsc:
				a.filtering = false
				a.filter.Blur()
				a.filter.Reset()
				a.view.Filter("")
				a.refreshTable()
				return a, nil
			case tea.KeyEnter:
				a.filtering = false
				a.filter.Blur()
				return a, nil
			}
		}
		var cmd tea.Cmd
		a.filter, cmd = a.filter.Update(msg)
		a.view.Filter(a.filter.Value())
		a.refreshTable()
		return a, cmd
	}

	if !isKey {
		return a, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Quit):
		a.quitting = true
		return a, tea.Quit

	case key.Matches(keyMsg, keys.Sort):
		a.sortByIndex(int(keyMsg.Runes[0] - '1'))
		return a, nil

	case key.Matches(keyMsg, keys.Filter):
		a.filtering = true
		a.notice = ""
		cmd := a.filter.Focus()
		return a, cmd

	case key.Matches(keyMsg, keys.Add):
		a.notice = addUnavailable
		return a, nil

	case key.Matches(keyMsg, keys.Reload):
		a.notice = ""
		return a.mountData()

	case key.Matches(keyMsg, keys.Logout):
		sessions, ctx := a.sessions, a.ctx
		return a, func() tea.Msg {
			return loggedOutMsg{err: sessions.Invalidate(ctx)}
		}
	}

	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (a *App) sortByIndex(i int) {
	cols := a.view.Columns()
	if i < 0 || i >= len(cols) {
		return
	}
	if err := a.view.SortBy(cols[i].Key); err != nil {
		a.notice = err.Error()
		return
	}
	a.refreshTable()
}

// refreshTable pushes the current sort and filter into the bubbles table.
func (a *App) refreshTable() {
	if a.view == nil {
		return
	}
	rows := a.view.Rows()
	tableRows := make([]table.Row, len(rows))
	for i, r := range rows {
		tableRows[i] = append(append(table.Row{}, r...), actionsCell)
	}

	// Columns first: SetRows re-renders against the current columns.
	a.table.SetColumns(a.columns(rows))
	a.table.SetRows(tableRows)
	if a.table.Cursor() >= len(tableRows) {
		a.table.SetCursor(0)
	}
}

func (a *App) columns(rows [][]string) []table.Column {
	sortKey, desc := a.view.Sort()
	cols := a.view.Columns()
	out := make([]table.Column, 0, len(cols)+1)

	for i, c := range cols {
		title := fmt.Sprintf("%d %s", i+1, c.Header)
		if c.Key == sortKey {
			if desc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		width := len([]rune(title))
		for _, r := range rows {
			if w := len([]rune(r[i])); w > width {
				width = w
			}
		}
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		out = append(out, table.Column{Title: title, Width: width})
	}
	return append(out, table.Column{Title: actionsHeader, Width: len([]rune(actionsHeader))})
}

func (a *App) resizeTable() {
	if a.view == nil || a.height == 0 {
		return
	}
	// Title, filter, notice and help lines around the table.
	h := a.height - 9
	if h < 3 {
		h = 3
	}
	a.table.SetHeight(h)
}

// View renders the current screen.
func (a App) View() string {
	if a.quitting {
		return ""
	}

	switch a.screen {
	case ScreenLogin:
		return a.renderLogin()
	case ScreenSigningIn:
		return a.renderWaiting("Signing in as " + a.email + "...")
	case ScreenLoading:
		return a.renderWaiting("Loading clients...")
	case ScreenData:
		return a.renderData()
	default:
		return "Unknown view"
	}
}

func (a App) renderLogin() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("clientdesk · Sign in"))
	b.WriteString("\n")
	if a.notice != "" {
		b.WriteString(a.styles.Warning.Render(a.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(a.form.View())
	if a.loginErr != "" {
		b.WriteString("\n")
		b.WriteString(a.styles.Error.Render("✗ " + a.loginErr))
	}
	b.WriteString("\n")
	return b.String()
}

func (a App) renderWaiting(text string) string {
	return fmt.Sprintf("\n %s %s\n", a.spinner.View(), text)
}

func (a App) renderData() string {
	var b strings.Builder

	title := "Clients"
	if a.email != "" {
		title += a.styles.Subtitle.Render("  " + a.email)
	}
	b.WriteString(a.styles.Title.Render(title))
	b.WriteString("\n")

	switch {
	case a.fetchErr != "":
		b.WriteString(a.styles.ErrorBox.Render(a.styles.Error.Render("Could not load clients: ") + a.fetchErr))
		b.WriteString("\n")
		b.WriteString(a.styles.Muted.Render("Press r to try again."))
	case a.view.Len() == 0:
		b.WriteString(a.styles.Muted.Render("No clients to show."))
	case len(a.view.Records()) == 0:
		b.WriteString(a.styles.Muted.Render(fmt.Sprintf("No clients match %q.", a.view.Query())))
	default:
		b.WriteString(a.table.View())
	}
	b.WriteString("\n")

	if a.filtering || a.filter.Value() != "" {
		b.WriteString(a.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Action.Render("[+ Add client]"))
	b.WriteString("\n")
	if a.notice != "" {
		b.WriteString(a.styles.Warning.Render(a.notice))
		b.WriteString("\n")
	}
	b.WriteString(a.help.View(keys))
	return b.String()
}

// loginFailureText is the one-line reason shown under the form.
func loginFailureText(err error) string {
	switch {
	case api.IsUnauthorized(err):
		return "Incorrect e-mail or password."
	case api.IsNetwork(err):
		return "Cannot reach the server. Check api.base_url and try again."
	}
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if appErr, ok := apperrors.As(err); ok && appErr.Cause != nil && !api.IsUnauthorized(appErr.Cause) {
		return appErr.Message + ": " + appErr.Cause.Error()
	}
	return err.Error()
}

func fetchFailureText(err error) string {
	switch {
	case api.IsNetwork(err):
		return "the server could not be reached"
	case api.IsDecode(err):
		return "the server sent an unexpected response"
	}
	return err.Error()
}
