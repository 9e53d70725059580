// Package ui is the terminal front end: a sign-in gate, the market overview
// screen, and the watchlist screen with its chart and per-symbol research
// panes. All remote work runs in commands; messages apply the results.
package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"marketdesk/internal/backend"
	"marketdesk/internal/dashboard"
	"marketdesk/internal/session"
	"marketdesk/internal/watchlist"
)

type view int

const (
	viewLogin view = iota
	viewRegister
	viewOverview
	viewWatchlist
)

// Deps bundles everything the screens share.
type Deps struct {
	Log           *slog.Logger
	Session       *session.Store
	Client        *backend.Client
	Aggregator    *dashboard.Aggregator
	Watchlist     *watchlist.Controller
	Refresher     *watchlist.Refresher
	SentimentDays int
}

// sessionEventMsg is bridged in from the session store's subscription.
type sessionEventMsg session.Event

// Model is the root program model.
type Model struct {
	deps Deps

	view          view
	width, height int
	ready         bool
	notice        string
	noticeIsError bool

	login     loginModel
	register  registerModel
	overview  overviewModel
	watchlist watchModel
}

// NewModel builds the root model. An already persisted session skips the
// sign-in gate.
func NewModel(deps Deps) Model {
	m := Model{
		deps:      deps,
		login:     newLoginModel(deps),
		register:  newRegisterModel(deps),
		overview:  newOverviewModel(deps),
		watchlist: newWatchModel(deps),
	}
	if deps.Session.Authenticated() {
		m.view = viewOverview
	}
	return m
}

// Run wires the program together and blocks until the user quits. Session
// events raised outside the update loop, such as a 401 during a background
// refresh, are forwarded into it.
func Run(deps Deps) error {
	p := tea.NewProgram(NewModel(deps), tea.WithAltScreen())

	subID, events := deps.Session.Subscribe()
	defer deps.Session.Unsubscribe(subID)
	go func() {
		for evt := range events {
			p.Send(sessionEventMsg(evt))
		}
	}()

	quoteSub, quoteEvents := deps.Watchlist.Subscribe()
	defer deps.Watchlist.Unsubscribe(quoteSub)
	go func() {
		for evt := range quoteEvents {
			p.Send(quotesUpdatedMsg(evt))
		}
	}()

	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	if m.view == viewOverview {
		return m.overview.load()
	}
	return m.login.focus()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.watchlist.resize(msg.Width, msg.Height)
		return m, nil

	case sessionEventMsg:
		if !msg.Authenticated {
			m.deps.Refresher.Stop()
			m.view = viewLogin
			m.login = newLoginModel(m.deps)
			if msg.Reason == session.ReasonExpired {
				m.setNotice("Please login to access this page", true)
			} else {
				m.setNotice("Signed out.", false)
			}
			return m, m.login.focus()
		}
		return m, nil

	case signedInMsg:
		m.view = viewOverview
		m.setNotice("", false)
		return m, m.overview.load()

	case registeredMsg:
		m.view = viewLogin
		m.login = newLoginModel(m.deps)
		m.setNotice("Account created, sign in to continue.", false)
		return m, m.login.focus()

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.route(msg)
}

// handleGlobalKey covers navigation that works from any screen. Keys are
// never stolen from a focused text field.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true
	case "q":
		if m.typing() {
			return nil, false
		}
		return tea.Quit, true
	case "1", "2":
		if m.typing() {
			return nil, false
		}
		target := viewOverview
		if msg.String() == "2" {
			target = viewWatchlist
		}
		return m.switchTo(target), true
	case "ctrl+o":
		if m.deps.Session.Authenticated() {
			m.deps.Session.Clear(session.ReasonLogout)
		}
		return nil, true
	}
	return nil, false
}

// typing reports whether a text field currently owns the keyboard.
func (m *Model) typing() bool {
	switch m.view {
	case viewLogin, viewRegister:
		return true
	case viewWatchlist:
		return m.watchlist.typing()
	}
	return false
}

// switchTo gates the data screens behind a live session.
func (m *Model) switchTo(target view) tea.Cmd {
	if !m.deps.Session.Authenticated() {
		m.view = viewLogin
		m.setNotice("Please login to access this page", true)
		return m.login.focus()
	}
	if m.view == target {
		return nil
	}
	prev := m.view
	m.view = target
	m.setNotice("", false)

	if prev == viewWatchlist {
		m.deps.Refresher.Stop()
	}
	switch target {
	case viewOverview:
		return m.overview.load()
	case viewWatchlist:
		m.deps.Refresher.Start()
		return m.watchlist.load()
	}
	return nil
}

func (m Model) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case viewLogin:
		var toRegister bool
		m.login, cmd, toRegister = m.login.update(msg)
		if toRegister {
			m.view = viewRegister
			m.register = newRegisterModel(m.deps)
			m.setNotice("", false)
			return m, m.register.focus()
		}
	case viewRegister:
		var toLogin bool
		m.register, cmd, toLogin = m.register.update(msg)
		if toLogin {
			m.view = viewLogin
			m.login = newLoginModel(m.deps)
			m.setNotice("", false)
			return m, m.login.focus()
		}
	case viewOverview:
		m.overview, cmd = m.overview.update(msg)
	case viewWatchlist:
		m.watchlist, cmd = m.watchlist.update(msg)
	}
	return m, cmd
}

func (m *Model) setNotice(text string, isError bool) {
	m.notice = text
	m.noticeIsError = isError
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := " marketdesk "
	switch m.view {
	case viewLogin:
		title += "· sign in "
	case viewRegister:
		title += "· create account "
	case viewOverview:
		title += "· market overview "
	case viewWatchlist:
		title += "· watchlist "
	}
	header := titleBarStyle.Render(padOrTrunc(title, m.width))

	var body string
	switch m.view {
	case viewLogin:
		body = m.login.view()
	case viewRegister:
		body = m.register.view()
	case viewOverview:
		body = m.overview.view(m.width)
	case viewWatchlist:
		body = m.watchlist.view()
	}

	notice := ""
	if m.notice != "" {
		style := noticeStyle
		if m.noticeIsError {
			style = errorStyle
		}
		notice = "\n " + style.Render(m.notice)
	}

	footer := footerBarStyle.Render(padOrTrunc(m.footerText(), m.width))

	bodyH := m.height - 3
	if notice != "" {
		bodyH -= 2
	}
	return header + "\n" + fitHeight(body, bodyH) + notice + "\n" + footer
}

func (m Model) footerText() string {
	switch m.view {
	case viewLogin:
		return " enter sign in  tab next field  ctrl+r create account  ctrl+c quit"
	case viewRegister:
		return " enter create  tab next field  esc back to sign in  ctrl+c quit"
	case viewOverview:
		return " 1 overview  2 watchlist  m more news  r reload  ctrl+o sign out  q quit"
	case viewWatchlist:
		return " up/dn move  enter select  a add  x remove  c compare  p period  i info  s sentiment  n news  f forecast  q quit"
	}
	return ""
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	n := len(s)
	if n >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-n)
}

// fitHeight pads or truncates body to exactly h lines.
func fitHeight(body string, h int) string {
	if h < 1 {
		h = 1
	}
	lines := strings.Split(body, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// errText renders a backend failure the way the footer notices do, keeping
// server detail when the request was rejected outright.
func errText(err error) string {
	var be *backend.Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fmt.Sprintf("%v", err)
}
