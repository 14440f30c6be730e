package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/wishlist/internal/api"
	"github.com/idilsaglam/wishlist/internal/session"
	"github.com/idilsaglam/wishlist/internal/ui"
)

const (
	loginFailed    = "Failed to login. Please check your credentials."
	registerFailed = "Registration failed. Please try again."
)

// authForm backs both the login and the register screen.
type authForm struct {
	title   string
	inputs  []textinput.Model
	focused int
	busy    bool
	err     string
	notice  string
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = 100
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func newLoginForm() authForm {
	return authForm{
		title:  "Login to Your Wishlist",
		inputs: []textinput.Model{newInput("Username", false), newInput("Password", true)},
	}
}

func newRegisterForm() authForm {
	return authForm{
		title: "Create an Account",
		inputs: []textinput.Model{
			newInput("Username", false),
			newInput("Email", false),
			newInput("Password", true),
		},
	}
}

func (f authForm) value(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }

// reset clears the fields but keeps a pending notice.
func (f authForm) reset() authForm {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.focused, f.busy, f.err = 0, false, ""
	return f
}

func (f authForm) focus() tea.Cmd {
	for i := range f.inputs {
		if i != f.focused {
			f.inputs[i].Blur()
		}
	}
	return f.inputs[f.focused].Focus()
}

func (f authForm) move(delta int) (authForm, tea.Cmd) {
	f.inputs[f.focused].Blur()
	f.focused = (f.focused + delta + len(f.inputs)) % len(f.inputs)
	return f, f.inputs[f.focused].Focus()
}

// update handles field navigation and typing. submit is true when enter was
// pressed on the last field.
func (f authForm) update(msg tea.Msg) (authForm, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "tab", "down":
			f, cmd := f.move(1)
			return f, cmd, false
		case "shift+tab", "up":
			f, cmd := f.move(-1)
			return f, cmd, false
		case "enter":
			if f.focused < len(f.inputs)-1 {
				f, cmd := f.move(1)
				return f, cmd, false
			}
			return f, nil, !f.busy
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return f, cmd, false
}

func (f authForm) view(spin, hint string) string {
	t := ui.Current()
	lines := []string{t.Title.Render(f.title), ""}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "")
	switch {
	case f.busy:
		lines = append(lines, spin+t.Muted.Render(" talking to the server…"))
	case f.err != "":
		lines = append(lines, t.Error.Render(f.err))
	case f.notice != "":
		lines = append(lines, t.Success.Render(f.notice))
	}
	lines = append(lines, t.Help.Render(hint))
	return ui.Panel(lines)
}

// authDone records the outcome of a login or register call. It may arrive
// after the session already navigated away from the form.
func (m Model) authDone(msg authMsg) Model {
	if msg.register {
		m.register.busy = false
		if msg.err != nil {
			m.register.err = api.Message(msg.err, registerFailed)
			m.log.WithError(msg.err).Warn("register failed")
			return m
		}
		m.login.notice = "Account created. You can log in now."
		return m
	}
	m.login.busy = false
	if msg.err != nil {
		m.login.err = api.Message(msg.err, loginFailed)
		m.log.WithError(msg.err).Warn("login failed")
	}
	return m
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+r":
			return m, m.goTo(session.RouteRegister)
		case "esc":
			return m, tea.Quit
		}
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	m.login, cmd, submit = m.login.update(msg)
	if !submit {
		return m, cmd
	}
	user, pass := m.login.value(0), m.login.inputs[1].Value()
	if user == "" || pass == "" {
		m.login.err = "Username and password are required."
		return m, nil
	}
	m.login.busy, m.login.err, m.login.notice = true, "", ""
	sess := m.cfg.Session
	return m, m.call(func(ctx context.Context) tea.Msg {
		return authMsg{err: sess.Login(ctx, user, pass)}
	})
}

func (m Model) updateRegister(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+l", "esc":
			return m, m.goTo(session.RouteLogin)
		}
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	m.register, cmd, submit = m.register.update(msg)
	if !submit {
		return m, cmd
	}
	user, email, pass := m.register.value(0), m.register.value(1), m.register.inputs[2].Value()
	if user == "" || email == "" || pass == "" {
		m.register.err = "All fields are required."
		return m, nil
	}
	m.register.busy, m.register.err = true, ""
	sess := m.cfg.Session
	return m, m.call(func(ctx context.Context) tea.Msg {
		return authMsg{register: true, err: sess.Register(ctx, user, email, pass)}
	})
}
