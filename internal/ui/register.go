package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"marketdesk/internal/backend"
)

// registeredMsg tells the root model to return to the sign-in form.
type registeredMsg struct{}

type registerResultMsg struct {
	err error
}

type registerModel struct {
	deps     Deps
	email    textinput.Model
	password textinput.Model
	confirm  textinput.Model
	focused  int
	busy     bool
	errMsg   string
}

func newRegisterModel(deps Deps) registerModel {
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

	confirm := textinput.New()
	confirm.Placeholder = "confirm password"
	confirm.CharLimit = 128
	confirm.Width = 40
	confirm.EchoMode = textinput.EchoPassword

	return registerModel{deps: deps, email: email, password: password, confirm: confirm}
}

func (m registerModel) focus() tea.Cmd {
	return textinput.Blink
}

func (m *registerModel) focusField(i int) tea.Cmd {
	m.focused = i
	fields := []*textinput.Model{&m.email, &m.password, &m.confirm}
	for j, f := range fields {
		if j == i {
			continue
		}
		f.Blur()
	}
	return fields[i].Focus()
}

func (m registerModel) update(msg tea.Msg) (registerModel, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			return m, m.focusField((m.focused + 1) % 3), false
		case "shift+tab", "up":
			return m, m.focusField((m.focused + 2) % 3), false
		case "esc":
			return m, nil, true
		case "enter":
			if m.busy {
				return m, nil, false
			}
			if m.password.Value() != m.confirm.Value() {
				m.errMsg = "passwords do not match"
				return m, nil, false
			}
			m.busy = true
			m.errMsg = ""
			return m, m.submit(), false
		}

	case registerResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = errText(msg.err)
			m.deps.Log.Warn("registration failed", "error", msg.err)
			return m, nil, false
		}
		m.deps.Log.Info("account created")
		return m, func() tea.Msg { return registeredMsg{} }, false
	}

	var cmds [3]tea.Cmd
	m.email, cmds[0] = m.email.Update(msg)
	m.password, cmds[1] = m.password.Update(msg)
	m.confirm, cmds[2] = m.confirm.Update(msg)
	return m, tea.Batch(cmds[0], cmds[1], cmds[2]), false
}

func (m registerModel) submit() tea.Cmd {
	client := m.deps.Client
	email := m.email.Value()
	password := m.password.Value()
	return func() tea.Msg {
		if len(password) < 8 {
			return registerResultMsg{err: backend.NewValidation("password must be at least 8 characters")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return registerResultMsg{err: client.Register(ctx, email, password)}
	}
}

func (m registerModel) view() string {
	b := "\n  Create an account\n\n"
	b += "  " + m.email.View() + "\n"
	b += "  " + m.password.View() + "\n"
	b += "  " + m.confirm.View() + "\n"
	if m.busy {
		b += "\n  " + dimStyle.Render("creating account...")
	}
	if m.errMsg != "" {
		b += "\n  " + errorStyle.Render(m.errMsg)
	}
	return b
}
