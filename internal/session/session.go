// Package session owns the authentication state: the token, the current user
// and the navigation that follows login, logout and expiry.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/wishlist/internal/api"
	"github.com/idilsaglam/wishlist/internal/model"
	"github.com/idilsaglam/wishlist/internal/store/tokenstore"
)

var (
	ErrNoToken         = errors.New("not logged in")
	ErrInvalidResponse = errors.New("invalid server response: no token")
	ErrTokenNotSaved   = errors.New("save token")
)

// Route names a view of the application.
type Route string

const (
	RouteLogin    Route = "login"
	RouteRegister Route = "register"
	RouteWishlist Route = "wishlist"
	RouteProfile  Route = "profile"
)

// Protected reports whether the route needs an authenticated session.
func (r Route) Protected() bool { return r == RouteWishlist || r == RouteProfile }

type Navigator interface {
	Navigate(Route)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(Route)

func (f NavigatorFunc) Navigate(r Route) { f(r) }

// AuthAPI is the part of the backend the session talks to.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) error
	CurrentUser(ctx context.Context) (*model.User, error)
}

// Session is the only writer of the token, both in memory and in the store.
// It is safe for concurrent use.
type Session struct {
	auth  AuthAPI
	store tokenstore.Store
	log   logrus.FieldLogger

	mu     sync.RWMutex
	nav    Navigator
	token  string
	source string
	user   *model.User
	authed bool
	seq    uint64
}

type Option func(*Session)

func WithLogger(l logrus.FieldLogger) Option { return func(s *Session) { s.log = l } }

func WithNavigator(n Navigator) Option { return func(s *Session) { s.nav = n } }

// New restores the token kept in store, if any.
func New(auth AuthAPI, store tokenstore.Store, opts ...Option) (*Session, error) {
	s := &Session{auth: auth, store: store, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "session")

	info, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if info != nil && info.Token != "" {
		s.token = info.Token
		s.source = info.Source
		s.authed = true
	}
	return s, nil
}

// SetNavigator swaps the navigator; the TUI installs itself once it is built.
func (s *Session) SetNavigator(n Navigator) {
	s.mu.Lock()
	s.nav = n
	s.mu.Unlock()
}

// Token implements api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Source tells where the current token came from.
func (s *Session) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authed
}

func (s *Session) navigate(r Route) {
	s.mu.RLock()
	nav := s.nav
	s.mu.RUnlock()
	if nav != nil {
		nav.Navigate(r)
	}
}

// SetToken persists t, marks the session authenticated and loads the profile.
func (s *Session) SetToken(ctx context.Context, t string) error {
	t = tokenstore.Normalize(t)
	if t == "" {
		return ErrInvalidResponse
	}
	if err := s.store.Save(t); err != nil {
		return fmt.Errorf("%w: %w", ErrTokenNotSaved, err)
	}
	s.mu.Lock()
	s.token = t
	s.source = ""
	s.authed = true
	s.mu.Unlock()
	return s.FetchProfile(ctx)
}

// FetchProfile loads the current user. A 401 ends the session; any other
// failure leaves it untouched. Results of a fetch overtaken by a newer one
// are dropped.
func (s *Session) FetchProfile(ctx context.Context) error {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return ErrNoToken
	}
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	u, err := s.auth.CurrentUser(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.log.WithField("seq", seq).Debug("discarding stale profile response")
		return err
	}
	if err != nil {
		if api.IsUnauthorized(err) {
			s.log.Warn("profile fetch unauthorized, clearing session")
			s.clearLocked()
		} else {
			s.log.WithError(err).Warn("profile fetch failed")
		}
		return err
	}
	s.user = u
	s.authed = true
	return nil
}

// Ensure fetches the profile when a token is present but no user is known yet.
func (s *Session) Ensure(ctx context.Context) error {
	s.mu.RLock()
	need := s.token != "" && s.user == nil
	s.mu.RUnlock()
	if !need {
		return nil
	}
	return s.FetchProfile(ctx)
}

func (s *Session) Login(ctx context.Context, username, password string) error {
	res, err := s.auth.Login(ctx, model.LoginRequest{Username: username, Password: password})
	if err != nil {
		return err
	}
	if res == nil || tokenstore.Normalize(res.AccessToken) == "" {
		return ErrInvalidResponse
	}
	if err := s.SetToken(ctx, res.AccessToken); err != nil && !errors.Is(err, ErrNoToken) {
		// Only a profile failure other than 401 leaves the login standing.
		if errors.Is(err, ErrTokenNotSaved) || errors.Is(err, ErrInvalidResponse) || api.IsUnauthorized(err) {
			return err
		}
		s.log.WithError(err).Warn("logged in without profile")
	}
	s.log.WithField("username", username).Info("logged in")
	s.navigate(RouteWishlist)
	return nil
}

func (s *Session) Register(ctx context.Context, username, email, password string) error {
	err := s.auth.Register(ctx, model.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return err
	}
	s.log.WithField("username", username).Info("registered")
	s.navigate(RouteLogin)
	return nil
}

// Logout forgets the token and user and goes back to the login view.
func (s *Session) Logout() error {
	s.mu.Lock()
	err := s.clearLocked()
	s.mu.Unlock()
	s.navigate(RouteLogin)
	return err
}

// Expire is installed as the client's auth-expired hook.
func (s *Session) Expire() {
	s.log.Warn("session expired")
	if err := s.Logout(); err != nil {
		s.log.WithError(err).Error("clear token")
	}
}

func (s *Session) clearLocked() error {
	s.token = ""
	s.source = ""
	s.user = nil
	s.authed = false
	s.seq++
	if err := s.store.Delete(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
