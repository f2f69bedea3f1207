package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/satyamaryan14/ChemicalApp/internal/api"
	"github.com/satyamaryan14/ChemicalApp/internal/logging"
	"github.com/satyamaryan14/ChemicalApp/internal/model"
	"github.com/satyamaryan14/ChemicalApp/internal/session"
	"github.com/satyamaryan14/ChemicalApp/internal/upload"
	"github.com/satyamaryan14/ChemicalApp/internal/view"
)

// ViewMode represents the current view
type ViewMode int

const (
	ViewModeLogin     ViewMode = iota // Credentials form
	ViewModeDashboard                 // Chart, stats and history
	ViewModeHelp                      // Help overlay
)

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeSuccess
	noticeWarning
	noticeError
)

// Login form fields
const (
	fieldUsername = iota
	fieldPassword
)

// Model is the root Bubble Tea model
type Model struct {
	// Terminal dimensions
	width  int
	height int
	ready  bool

	viewMode ViewMode
	svc      Services
	keys     KeyMap
	help     help.Model

	// Login form
	username   textinput.Model
	password   textinput.Model
	loginField int
	loggingIn  bool
	loginErr   string

	// Upload path prompt
	pathInput     textinput.Model
	promptingPath bool

	// Session mirror, refreshed from State on every change notification
	changes     <-chan struct{}
	unsubscribe func()
	snap        session.Snapshot

	// Dashboard
	cursor     int                   // selected history row
	displayed  *model.AnalysisResult // what the chart shows
	refreshing bool
	reporting  bool
	viewport   viewport.Model

	notice     string
	noticeKind noticeKind
	noticeID   int

	spinnerIndex int
	spinning     bool

	debug DebugPanel
}

// NewRootModel creates the root model. A session restored before startup
// opens straight on the dashboard.
func NewRootModel(svc Services, debug bool) Model {
	svc.Logger = logging.OrDefault(svc.Logger)

	user := textinput.New()
	user.Placeholder = "username"
	user.Prompt = "User: "
	user.PromptStyle = InputPromptStyle
	user.CharLimit = 150
	user.Width = 30
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = "Pass: "
	pass.PromptStyle = InputPromptStyle
	pass.EchoMode = textinput.EchoPassword
	pass.CharLimit = 128
	pass.Width = 30

	path := textinput.New()
	path.Placeholder = "/path/to/equipment.csv"
	path.Prompt = "CSV ❯ "
	path.PromptStyle = InputPromptStyle
	path.CharLimit = 0
	path.Width = 60

	changes, unsubscribe := svc.State.Subscribe()

	m := Model{
		viewMode:    ViewModeLogin,
		svc:         svc,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		username:    user,
		password:    pass,
		pathInput:   path,
		changes:     changes,
		unsubscribe: unsubscribe,
		snap:        svc.State.Snapshot(),
		viewport:    viewport.New(80, 20),
		debug:       NewDebugPanel(debug),
	}
	if m.snap.Authenticated {
		// Init schedules the first refresh
		m.viewMode = ViewModeDashboard
		m.refreshing = true
		m.spinning = true
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		waitForChange(m.changes),
	}
	if m.snap.Authenticated {
		cmds = append(cmds, m.refreshCmd(), spinnerTickCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.pathInput.Width = max(10, msg.Width-16)

	case stateChangedMsg:
		cmds = append(cmds, m.applySnapshot(), waitForChange(m.changes))

	case loginResultMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.loginErr = describe(msg.err)
			m.svc.Logger.Info("login failed", "error", msg.err)
			return m, nil
		}
		m.svc.Sessions.Login(msg.cred)
		m.password.SetValue("")
		m.loginErr = ""
		m.viewMode = ViewModeDashboard
		m.displayed = nil
		m.cursor = 0
		m.refreshing = true
		m.debug.AddEvent("login", "ok")
		cmds = append(cmds, m.refreshCmd(), m.startSpinner())

	case refreshResultMsg:
		if !m.svc.State.IsCurrent(msg.epoch) {
			cmds = append(cmds, m.dropEnded("history", msg.err))
			break
		}
		m.refreshing = false
		if msg.err != nil {
			cmds = append(cmds, m.handleError("history", msg.epoch, msg.err))
			break
		}
		m.debug.AddEvent("history", "%d records", len(m.svc.State.History()))
		cmds = append(cmds, m.applySnapshot())
		if m.displayed == nil {
			m.showHistoryRow(0)
		}

	case uploadResultMsg:
		if !m.svc.State.IsCurrent(msg.epoch) || msg.outcome.Stale {
			err := msg.err
			if err == nil {
				err = msg.outcome.HistoryErr
			}
			cmds = append(cmds, m.dropEnded("upload", err))
			break
		}
		if msg.err != nil {
			cmds = append(cmds, m.handleError("upload", msg.epoch, msg.err))
			break
		}
		res := msg.outcome.Result.Clone()
		m.displayed = &res
		m.cursor = 0
		cmds = append(cmds, m.applySnapshot())
		if msg.outcome.HistoryErr != nil {
			if api.IsUnauthenticated(msg.outcome.HistoryErr) {
				cmds = append(cmds, m.handleError("history", msg.epoch, msg.outcome.HistoryErr))
				break
			}
			cmds = append(cmds, m.setNotice(noticeWarning, "Uploaded, but history refresh failed: "+describe(msg.outcome.HistoryErr)))
			break
		}
		cmds = append(cmds, m.setNotice(noticeSuccess, "Analyzed "+res.Filename))

	case reportSavedMsg:
		if !m.svc.State.IsCurrent(msg.epoch) {
			cmds = append(cmds, m.dropEnded("report", msg.err))
			break
		}
		m.reporting = false
		if msg.err != nil {
			cmds = append(cmds, m.handleError("report", msg.epoch, msg.err))
			break
		}
		cmds = append(cmds, m.setNotice(noticeSuccess, "Report saved to "+msg.path))

	case chartExportedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.setNotice(noticeError, describe(msg.err)))
			break
		}
		cmds = append(cmds, m.setNotice(noticeSuccess, "Chart saved to "+msg.path))

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}

	case spinnerTickMsg:
		if m.activity() {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			cmds = append(cmds, spinnerTickCmd())
		} else {
			m.spinning = false
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Interrupt) {
			m.shutdown()
			return m, tea.Quit
		}
		switch m.viewMode {
		case ViewModeLogin:
			return m.updateLogin(msg)
		case ViewModeHelp:
			if key.Matches(msg, m.keys.Help, m.keys.Escape, m.keys.Quit) {
				m.viewMode = ViewModeDashboard
			}
			return m, nil
		default:
			return m.updateDashboard(msg)
		}
	}

	// cursor blink and similar input messages
	var cmd tea.Cmd
	switch {
	case m.promptingPath:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case m.viewMode == ViewModeLogin && m.loginField == fieldUsername:
		m.username, cmd = m.username.Update(msg)
	case m.viewMode == ViewModeLogin:
		m.password, cmd = m.password.Update(msg)
	}
	cmds = append(cmds, cmd)

	m.syncViewport()
	return m, tea.Batch(cmds...)
}

// updateLogin handles keys on the login form
func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loggingIn {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextField), msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		m.focusField(1 - m.loginField)
		return m, nil

	case msg.Type == tea.KeyEnter:
		if m.loginField == fieldUsername {
			m.focusField(fieldPassword)
			return m, nil
		}
		username := strings.TrimSpace(m.username.Value())
		password := m.password.Value()
		if username == "" || password == "" {
			m.loginErr = "Please enter username and password"
			return m, nil
		}
		m.loggingIn = true
		m.loginErr = ""
		return m, tea.Batch(m.loginCmd(username, password), m.startSpinner())
	}

	var cmd tea.Cmd
	if m.loginField == fieldUsername {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// updateDashboard handles keys on the dashboard
func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.promptingPath {
		switch msg.Type {
		case tea.KeyEsc:
			m.promptingPath = false
			m.pathInput.Blur()
			return m, nil
		case tea.KeyEnter:
			path := strings.TrimSpace(m.pathInput.Value())
			m.promptingPath = false
			m.pathInput.Blur()
			m.pathInput.SetValue("")
			m.debug.AddEvent("upload", "%s", path)
			return m, tea.Batch(m.uploadCmd(path), m.startSpinner())
		}
		var cmd tea.Cmd
		m.pathInput, cmd = m.pathInput.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.viewMode = ViewModeHelp

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.History)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Select):
		m.showHistoryRow(m.cursor)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()

	case key.Matches(msg, m.keys.Upload):
		if m.snap.Busy {
			return m, m.setNotice(noticeWarning, describe(upload.ErrAlreadyInProgress))
		}
		m.promptingPath = true
		return m, m.pathInput.Focus()

	case key.Matches(msg, m.keys.Refresh):
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, tea.Batch(m.refreshCmd(), m.startSpinner())

	case key.Matches(msg, m.keys.Report):
		if m.reporting {
			return m, nil
		}
		m.reporting = true
		return m, tea.Batch(m.reportCmd(), m.startSpinner(), m.setNotice(noticeInfo, "Downloading report..."))

	case key.Matches(msg, m.keys.Export):
		if m.displayed == nil {
			return m, m.setNotice(noticeWarning, describe(view.ErrNoData))
		}
		return m, m.exportChartCmd(view.Project(m.displayed), m.displayed.Filename)

	case key.Matches(msg, m.keys.Logout):
		m.svc.Sessions.Logout()
		m.toLogin("")
		return m, nil
	}

	m.syncViewport()
	return m, nil
}

// applySnapshot mirrors the session state. A lost credential returns the UI
// to the login form.
func (m *Model) applySnapshot() tea.Cmd {
	snap := m.svc.State.Snapshot()
	if snap.Version != m.snap.Version {
		m.debug.AddEvent("state", "v%d auth=%t busy=%t history=%d", snap.Version, snap.Authenticated, snap.Busy, len(snap.History))
	}
	m.snap = snap

	if m.cursor >= len(snap.History) {
		m.cursor = max(0, len(snap.History)-1)
	}
	if !snap.Authenticated && m.viewMode != ViewModeLogin {
		m.toLogin("Session ended, please log in again")
		return nil
	}
	if snap.Busy {
		return m.startSpinner()
	}
	return nil
}

// showHistoryRow displays the approximation for the history row i
func (m *Model) showHistoryRow(i int) {
	if i < 0 || i >= len(m.snap.History) {
		return
	}
	res, err := m.svc.History.Select(m.snap.History[i].ID)
	if err != nil {
		m.svc.Logger.Warn("select history record", "id", m.snap.History[i].ID, "error", err)
		return
	}
	m.cursor = i
	m.displayed = &res
}

// handleError turns a failed command of the current session into UI state.
// Unauthenticated errors end that session and show the login form.
func (m *Model) handleError(op string, epoch uint64, err error) tea.Cmd {
	m.svc.Logger.Warn("command failed", "op", op, "error", err)
	m.debug.AddEvent(op, "error: %v", err)

	if api.IsUnauthenticated(err) {
		m.svc.Sessions.Invalidate(epoch)
		m.toLogin(describe(err))
		return nil
	}
	return m.setNotice(noticeError, describe(err))
}

// dropEnded handles the result of a call whose session is no longer active.
// Nothing is applied. A 401 only moves the dashboard to the login form when
// no session is active at all.
func (m *Model) dropEnded(op string, err error) tea.Cmd {
	m.svc.Logger.Debug("dropping result of ended session", "op", op, "error", err)
	m.debug.AddEvent(op, "dropped (session ended)")

	if api.IsUnauthenticated(err) && !m.svc.State.Snapshot().Authenticated && m.viewMode != ViewModeLogin {
		m.toLogin(describe(err))
	}
	return nil
}

// toLogin resets the per-session view state and shows the login form
func (m *Model) toLogin(reason string) {
	m.viewMode = ViewModeLogin
	m.loginErr = reason
	m.displayed = nil
	m.cursor = 0
	m.promptingPath = false
	m.refreshing = false
	m.reporting = false
	m.notice = ""
	m.password.SetValue("")
	m.focusField(fieldUsername)
}

func (m *Model) focusField(field int) {
	m.loginField = field
	if field == fieldUsername {
		m.password.Blur()
		m.username.Focus()
		return
	}
	m.username.Blur()
	m.password.Focus()
}

func (m *Model) setNotice(kind noticeKind, text string) tea.Cmd {
	m.noticeID++
	m.notice = text
	m.noticeKind = kind
	return expireNoticeCmd(m.noticeID)
}

// activity reports whether anything is in flight
func (m Model) activity() bool {
	return m.loggingIn || m.refreshing || m.reporting || m.snap.Busy
}

// startSpinner starts the spinner unless it is already ticking
func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return spinnerTickCmd()
}

// syncViewport fits the chart panel to the layout and re-renders it
func (m *Model) syncViewport() {
	w, h := m.analysisSize()
	m.viewport.Width = w
	m.viewport.Height = h
	m.viewport.SetContent(m.renderAnalysis(w))
}

func (m *Model) shutdown() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}
