// Package ui provides the Bubble Tea TUI for the kiosk.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/returnloop/kiosk/internal/api"
	"github.com/returnloop/kiosk/internal/capture"
	"github.com/returnloop/kiosk/internal/config"
	"github.com/returnloop/kiosk/internal/prefs"
	"github.com/returnloop/kiosk/internal/session"
	"github.com/returnloop/kiosk/internal/state"
)

// Screen represents the current active screen.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenRegister
	ScreenUser
	ScreenAdmin
	ScreenWizard
	ScreenScanner
	ScreenLogs
)

// Options configures the UI.
type Options struct {
	Context           context.Context
	Client            *api.Client
	Tokens            *session.SQLiteStore
	Store             *state.Store
	Config            *config.Config
	PollTick          time.Duration
	ThemeName         string
	Username          string // last username used at login, prefills the form
	PrefsPath         string
	Logger            *slog.Logger
	NewCaptureSession func(sink capture.Sink, cb capture.Callbacks) *capture.Session
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	client     *api.Client
	tokens     *session.SQLiteStore
	store      *state.Store
	config     *config.Config
	prefsPath  string
	pollTick   time.Duration
	log        *slog.Logger
	newCapture func(sink capture.Sink, cb capture.Callbacks) *capture.Session

	// UI state
	theme    Theme
	screen   Screen
	width    int
	height   int
	ready    bool
	showHelp bool

	// Session state
	signedIn     bool
	claims       session.Claims
	lastUsername string

	// Flash message shown in the footer until the next action.
	flash    string
	flashErr bool

	// Data state
	snapshot state.Snapshot

	// Screen state
	login    loginState
	register registerState
	dash     dashState
	admin    adminState
	wizard   wizardState
	scanner  *scanState
	logs     logsState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Nightfox"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return Model{
		ctx:          ctx,
		client:       opts.Client,
		tokens:       opts.Tokens,
		store:        opts.Store,
		config:       opts.Config,
		prefsPath:    prefsPath,
		pollTick:     pollTick,
		log:          logger,
		newCapture:   opts.NewCaptureSession,
		theme:        GetTheme(themeName),
		screen:       ScreenLogin,
		lastUsername: opts.Username,
		login:        newLoginState(opts.Username),
		register:     newRegisterState(),
		dash:         newDashState(),
		admin:        newAdminState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		m.checkSessionCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopScanner()
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.pollTick))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		if m.signedIn && errors.Is(m.snapshot.LastError, api.ErrSessionExpired) {
			m.signOutLocal("Session expired, please sign in again")
		}
		return m, nil

	case sessionCheckMsg:
		if msg.signedIn {
			m.routeSignedIn(msg.claims)
			return m, m.fetchProfileCmd()
		}
		m.screen = ScreenLogin
		return m, nil

	case authMsg:
		return m.handleAuth(msg)

	case profileMsg:
		if msg.err == nil && msg.profile != nil {
			m.store.SetProfile(*msg.profile)
		}
		return m, nil

	case submitResultMsg:
		return m.handleSubmitResult(msg)

	case searchResultMsg:
		return m.handleSearchResult(msg)

	case statusUpdatedMsg:
		return m.handleStatusUpdated(msg)

	case scanEventMsg:
		return m.handleScanEvent(msg)

	case scanStartedMsg:
		return m.handleScanStarted(msg)

	case logLinesMsg:
		return m.handleLogLines(msg)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	switch m.screen {
	case ScreenLogin:
		return m.renderLogin()
	case ScreenRegister:
		return m.renderRegister()
	case ScreenUser:
		return m.renderUserDashboard()
	case ScreenAdmin:
		return m.renderAdminDashboard()
	case ScreenWizard:
		return m.renderWizard()
	case ScreenScanner:
		return m.renderScanner()
	case ScreenLogs:
		return m.renderLogs()
	}
	return ""
}

// handleKey routes keyboard input to the active screen. Ctrl+C is handled
// before this point.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch m.screen {
	case ScreenLogin:
		return m.handleLoginKey(msg)
	case ScreenRegister:
		return m.handleRegisterKey(msg)
	case ScreenUser:
		return m.handleUserDashboardKey(msg)
	case ScreenAdmin:
		return m.handleAdminDashboardKey(msg)
	case ScreenWizard:
		return m.handleWizardKey(msg)
	case ScreenScanner:
		return m.handleScannerKey(msg)
	case ScreenLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

// routeSignedIn switches to the dashboard matching the account's role.
func (m *Model) routeSignedIn(claims session.Claims) {
	m.signedIn = true
	m.claims = claims
	m.flash = ""
	if claims.IsStaff {
		m.screen = ScreenAdmin
	} else {
		m.screen = ScreenUser
	}
}

// signOutLocal drops the in-memory session and returns to the login
// screen. The stored tokens are already gone (or cleared separately).
func (m *Model) signOutLocal(message string) {
	m.signedIn = false
	m.claims = session.Claims{}
	m.store.Reset()
	m.snapshot = state.Snapshot{}
	m.login = newLoginState(m.lastUsername)
	m.screen = ScreenLogin
	m.setFlash(message, true)
}

func (m *Model) setFlash(message string, isErr bool) {
	m.flash = message
	m.flashErr = isErr
}

// cycleTheme advances the theme and persists the choice.
func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.savePrefs()
}

// savePrefs is best effort; a failed write never interrupts the UI.
func (m *Model) savePrefs() {
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Username: m.lastUsername})
}

func (m *Model) stopScanner() {
	if m.scanner != nil {
		m.scanner.session.Stop()
	}
}

// errorMessage maps an error to its user-facing text. Server-supplied
// messages are shown verbatim.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, api.ErrSessionExpired) {
		return "Session expired, please sign in again"
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type sessionCheckMsg struct {
	signedIn bool
	claims   session.Claims
}

type authMsg struct {
	claims session.Claims
	err    error
}

type profileMsg struct {
	profile *api.Profile
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// checkSessionCmd inspects the stored credentials to decide the first
// screen: a valid access token skips the login form.
func (m Model) checkSessionCmd() tea.Cmd {
	return func() tea.Msg {
		access, err := m.tokens.AccessToken(m.ctx)
		if err != nil || access == "" {
			return sessionCheckMsg{}
		}
		claims, err := session.ParseClaims(access)
		if err != nil {
			return sessionCheckMsg{}
		}
		return sessionCheckMsg{signedIn: true, claims: claims}
	}
}

func (m Model) fetchProfileCmd() tea.Cmd {
	return func() tea.Msg {
		profile, err := m.client.Profile(m.ctx)
		return profileMsg{profile: profile, err: err}
	}
}

func (m Model) handleAuth(msg authMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setFlash(errorMessage(msg.err), true)
		m.login.busy = false
		m.register.busy = false
		return m, nil
	}
	m.routeSignedIn(msg.claims)
	if msg.claims.Username != "" {
		m.lastUsername = msg.claims.Username
		m.savePrefs()
	}
	return m, m.fetchProfileCmd()
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
