// Package tui is the interactive wishlist: login and register forms, the
// list view with its filters and the profile summary.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/wishlist/internal/model"
	"github.com/idilsaglam/wishlist/internal/session"
	"github.com/idilsaglam/wishlist/internal/wishlist"
)

type Config struct {
	Session *session.Session
	Wishes  *wishlist.Service
	Log     logrus.FieldLogger
	Timeout time.Duration // per request
	Settle  time.Duration // route guard delay
	Now     func() time.Time
}

// Model is the root bubbletea model; it owns the current route and
// delegates keys to the screen shown.
type Model struct {
	cfg   Config
	log   logrus.FieldLogger
	guard session.Guard
	navCh chan session.Route

	route  session.Route
	width  int
	height int
	spin   spinner.Model

	login    authForm
	register authForm
	list     wishView
	profile  profileView
}

// Messages flowing through Update.
type (
	navMsg    struct{ route session.Route }
	routedMsg struct{ route session.Route }
	authMsg   struct {
		register bool
		err      error
	}
	profileMsg struct{ err error }
	loadedMsg  struct {
		seq uint64
		raw []model.Wish
		err error
	}
	mutatedMsg struct {
		action string
		err    error
	}
	flashTimeoutMsg struct{ id int }
)

func New(cfg Config) Model {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	m := Model{
		cfg:      cfg,
		log:      cfg.Log.WithField("component", "tui"),
		guard:    session.Guard{Session: cfg.Session, Settle: cfg.Settle},
		navCh:    make(chan session.Route, 8),
		route:    session.RouteLogin,
		login:    newLoginForm(),
		register: newRegisterForm(),
		list:     newWishView(cfg.Now),
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	navCh := m.navCh
	cfg.Session.SetNavigator(session.NavigatorFunc(func(r session.Route) {
		select {
		case navCh <- r:
		default:
		}
	}))
	return m
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(cfg Config) error {
	_, err := tea.NewProgram(New(cfg), tea.WithAltScreen()).Run()
	return err
}

// call runs fn off the event loop with the request timeout.
func (m Model) call(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	d := m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), d)
		defer cancel()
		return fn(ctx)
	}
}

// waitNav delivers the next navigation requested by the session.
func (m Model) waitNav() tea.Cmd {
	ch := m.navCh
	return func() tea.Msg { return navMsg{route: <-ch} }
}

// goTo resolves want through the route guard.
func (m Model) goTo(want session.Route) tea.Cmd {
	guard := m.guard
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), guard.Settle+time.Second)
		defer cancel()
		return routedMsg{route: guard.Resolve(ctx, want)}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitNav(), m.spin.Tick}
	if m.cfg.Session.Token() != "" {
		cmds = append(cmds, m.ensureProfile(), m.goTo(session.RouteWishlist))
	} else {
		cmds = append(cmds, m.goTo(session.RouteLogin))
	}
	return tea.Batch(cmds...)
}

func (m Model) ensureProfile() tea.Cmd {
	sess := m.cfg.Session
	return m.call(func(ctx context.Context) tea.Msg {
		return profileMsg{err: sess.Ensure(ctx)}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

	case navMsg:
		return m, tea.Batch(m.goTo(msg.route), m.waitNav())

	case routedMsg:
		m.route = msg.route
		m.log.WithField("route", msg.route).Debug("navigate")
		switch msg.route {
		case session.RouteLogin:
			m.list.clear()
			m.login = m.login.reset()
			return m, m.login.focus()
		case session.RouteRegister:
			m.register = m.register.reset()
			return m, m.register.focus()
		case session.RouteWishlist, session.RouteProfile:
			m.list.loading = true
			return m, m.load()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case authMsg:
		return m.authDone(msg), nil

	case profileMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Debug("profile")
		}
		return m, nil
	}

	switch m.route {
	case session.RouteLogin:
		return m.updateLogin(msg)
	case session.RouteRegister:
		return m.updateRegister(msg)
	case session.RouteProfile:
		return m.updateProfile(msg)
	default:
		return m.updateWishes(msg)
	}
}

func (m Model) View() string {
	switch m.route {
	case session.RouteLogin:
		return m.login.view(m.spin.View(), "tab next field • enter log in • ctrl+r create an account • esc quit")
	case session.RouteRegister:
		return m.register.view(m.spin.View(), "tab next field • enter register • ctrl+l back to login")
	case session.RouteProfile:
		return m.profile.view(m.cfg.Session, m.list.raw)
	default:
		return m.list.view(m.spin.View())
	}
}

// Route is the screen currently shown.
func (m Model) Route() session.Route { return m.route }
