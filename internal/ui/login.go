package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// signedInMsg tells the root model the gate is open.
type signedInMsg struct{}

type loginResultMsg struct {
	token string
	err   error
}

type loginModel struct {
	deps     Deps
	email    textinput.Model
	password textinput.Model
	focused  int // 0 = email, 1 = password
	busy     bool
	errMsg   string
}

func newLoginModel(deps Deps) loginModel {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 40
	password.EchoMode = textinput.EchoPassword

	return loginModel{deps: deps, email: email, password: password}
}

// focus returns the cursor blink command; the first field is focused at
// construction so the state survives model copies.
func (m loginModel) focus() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focused = 1 - m.focused
			if m.focused == 0 {
				m.password.Blur()
				return m, m.email.Focus(), false
			}
			m.email.Blur()
			return m, m.password.Focus(), false
		case "ctrl+r":
			return m, nil, true
		case "enter":
			if m.busy {
				return m, nil, false
			}
			m.busy = true
			m.errMsg = ""
			return m, m.submit(), false
		}

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = errText(msg.err)
			m.deps.Log.Warn("sign in failed", "error", msg.err)
			return m, nil, false
		}
		if err := m.deps.Session.SetToken(msg.token); err != nil {
			m.errMsg = errText(err)
			return m, nil, false
		}
		m.deps.Log.Info("signed in")
		return m, func() tea.Msg { return signedInMsg{} }, false
	}

	var cmds [2]tea.Cmd
	m.email, cmds[0] = m.email.Update(msg)
	m.password, cmds[1] = m.password.Update(msg)
	return m, tea.Batch(cmds[0], cmds[1]), false
}

func (m loginModel) submit() tea.Cmd {
	client := m.deps.Client
	email := m.email.Value()
	password := m.password.Value()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		tok, err := client.Login(ctx, email, password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{token: tok.AccessToken}
	}
}

func (m loginModel) view() string {
	b := "\n  Sign in to your account\n\n"
	b += "  " + m.email.View() + "\n"
	b += "  " + m.password.View() + "\n"
	if m.busy {
		b += "\n  " + dimStyle.Render("signing in...")
	}
	if m.errMsg != "" {
		b += "\n  " + errorStyle.Render(m.errMsg)
	}
	b += "\n\n  " + dimStyle.Render("No account yet? Press ctrl+r to create one.")
	return b
}
