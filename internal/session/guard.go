package session

import (
	"context"
	"time"
)

const DefaultSettle = 100 * time.Millisecond

// Guard decides whether a view may be shown. Protected views wait Settle
// so a profile fetch started at startup can land first.
type Guard struct {
	Session *Session
	Settle  time.Duration
}

// Resolve returns the route to show instead of want.
func (g Guard) Resolve(ctx context.Context, want Route) Route {
	if !want.Protected() {
		return want
	}
	if g.Settle > 0 {
		t := time.NewTimer(g.Settle)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
	if g.Allow() {
		return want
	}
	return RouteLogin
}

// Allow is the check Resolve applies once the settle delay is over.
func (g Guard) Allow() bool {
	return g.Session != nil && g.Session.IsAuthenticated() && g.Session.Token() != ""
}
