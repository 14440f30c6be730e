package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/wishlist/internal/model"
	"github.com/idilsaglam/wishlist/internal/session"
	"github.com/idilsaglam/wishlist/internal/store/tokenstore"
	"github.com/idilsaglam/wishlist/internal/ui"
	"github.com/idilsaglam/wishlist/internal/wishlist"
)

type profileView struct{}

// view shows the user and a summary of the loaded wishes. The summary
// counts what the list view last fetched, not the filtered subset.
func (profileView) view(sess *session.Session, raw []model.Wish) string {
	t := ui.Current()
	lines := []string{t.Title.Render("Your Profile"), ""}

	if u := sess.User(); u != nil {
		lines = append(lines,
			"Username:  "+u.Username,
			"Email:     "+u.Email,
			fmt.Sprintf("User ID:   %d", u.ID),
		)
	} else {
		lines = append(lines, t.Muted.Render("Loading profile…"))
	}
	if exp := tokenstore.ExpiryOf(sess.Token()); exp != nil {
		lines = append(lines, t.Muted.Render("Session expires "+exp.Local().Format(time.RFC1123)))
	}

	s := wishlist.StatsOf(raw)
	lines = append(lines,
		"",
		t.Title.Render("Activity Summary"),
		fmt.Sprintf("Total wishes:      %d", s.Total),
		fmt.Sprintf("Completed wishes:  %s", t.Success.Render(fmt.Sprint(s.Completed))),
		fmt.Sprintf("Pending wishes:    %s", t.Pending.Render(fmt.Sprint(s.Pending))),
		"Completion rate:   "+ui.ProgressBar(s.Completed, s.Total, 24),
		"",
		t.Help.Render("b back • r reload • L logout • q quit"),
	)
	return ui.Panel(lines)
}

func (m Model) updateProfile(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "b", "esc", "p":
			return m, m.goTo(session.RouteWishlist)
		case "r":
			return m, tea.Batch(m.fetchProfile(), m.load())
		case "L":
			if err := m.cfg.Session.Logout(); err != nil {
				m.log.WithError(err).Error("logout")
			}
			return m, nil
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}
	// loads started from the profile still feed the list view
	return m.updateWishes(msg)
}

func (m Model) fetchProfile() tea.Cmd {
	sess := m.cfg.Session
	return m.call(func(ctx context.Context) tea.Msg {
		return profileMsg{err: sess.FetchProfile(ctx)}
	})
}
