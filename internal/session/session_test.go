package session_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/wishlist/internal/api"
	"github.com/idilsaglam/wishlist/internal/logging"
	"github.com/idilsaglam/wishlist/internal/model"
	"github.com/idilsaglam/wishlist/internal/session"
	"github.com/idilsaglam/wishlist/internal/store/tokenstore"
)

type fakeAuth struct {
	mu        sync.Mutex
	login     *model.AuthResponse
	loginErr  error
	regErr    error
	registers []model.RegisterRequest
	// me answers CurrentUser calls in order; the last one repeats.
	me []func() (*model.User, error)
	n  int
}

func (f *fakeAuth) Login(context.Context, model.LoginRequest) (*model.AuthResponse, error) {
	return f.login, f.loginErr
}

func (f *fakeAuth) Register(_ context.Context, req model.RegisterRequest) error {
	f.registers = append(f.registers, req)
	return f.regErr
}

func (f *fakeAuth) CurrentUser(context.Context) (*model.User, error) {
	f.mu.Lock()
	i := f.n
	if i >= len(f.me) {
		i = len(f.me) - 1
	}
	f.n++
	fn := f.me[i]
	f.mu.Unlock()
	return fn()
}

func userOK(name string) func() (*model.User, error) {
	return func() (*model.User, error) { return &model.User{ID: 1, Username: name}, nil }
}

func status(code int) func() (*model.User, error) {
	return func() (*model.User, error) { return nil, &api.Error{Status: code, Message: http.StatusText(code)} }
}

type recorder struct {
	mu     sync.Mutex
	routes []session.Route
}

func (r *recorder) Navigate(route session.Route) {
	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
}

func (r *recorder) last() session.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

func newSession(t *testing.T, auth *fakeAuth, preset string) (*session.Session, *tokenstore.File, *recorder) {
	t.Helper()
	store := tokenstore.NewFile(filepath.Join(t.TempDir(), "credentials.json"))
	if preset != "" {
		require.NoError(t, store.Save(preset))
	}
	nav := &recorder{}
	s, err := session.New(auth, store, session.WithNavigator(nav), session.WithLogger(logging.Discard()))
	require.NoError(t, err)
	return s, store, nav
}

// brokenStore loads nothing and refuses to save.
type brokenStore struct{ err error }

func (b brokenStore) Load() (*tokenstore.TokenInfo, error) { return nil, nil }
func (b brokenStore) Save(string) error                    { return b.err }
func (b brokenStore) Delete() error                        { return nil }

func TestNew(t *testing.T) {
	t.Run("without token", func(t *testing.T) {
		s, _, _ := newSession(t, &fakeAuth{me: []func() (*model.User, error){userOK("x")}}, "")
		assert.False(t, s.IsAuthenticated())
		assert.Empty(t, s.Token())
		assert.ErrorIs(t, s.FetchProfile(context.Background()), session.ErrNoToken)
	})

	t.Run("restores stored token", func(t *testing.T) {
		s, _, _ := newSession(t, &fakeAuth{me: []func() (*model.User, error){userOK("x")}}, "a.b.c")
		assert.True(t, s.IsAuthenticated())
		assert.Equal(t, "a.b.c", s.Token())
		assert.Equal(t, tokenstore.SourceFile, s.Source())
		assert.Nil(t, s.User())
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("stores token and opens wishlist", func(t *testing.T) {
		auth := &fakeAuth{
			login: &model.AuthResponse{AccessToken: "a.b.c", UserID: 7, Username: "alice"},
			me:    []func() (*model.User, error){userOK("alice")},
		}
		s, store, nav := newSession(t, auth, "")
		require.NoError(t, s.Login(ctx, "alice", "pw"))

		info, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "a.b.c", info.Token)
		assert.True(t, s.IsAuthenticated())
		require.NotNil(t, s.User())
		assert.Equal(t, "alice", s.User().Username)
		assert.Equal(t, session.RouteWishlist, nav.last())
	})

	t.Run("missing token in response", func(t *testing.T) {
		auth := &fakeAuth{login: &model.AuthResponse{}, me: []func() (*model.User, error){userOK("x")}}
		s, _, nav := newSession(t, auth, "")
		err := s.Login(ctx, "alice", "pw")
		require.ErrorIs(t, err, session.ErrInvalidResponse)
		assert.Equal(t, "invalid server response: no token", err.Error())
		assert.False(t, s.IsAuthenticated())
		assert.Empty(t, nav.routes)
	})

	t.Run("bad credentials", func(t *testing.T) {
		auth := &fakeAuth{
			loginErr: &api.Error{Status: 401, Message: "Bad credentials"},
			me:       []func() (*model.User, error){userOK("x")},
		}
		s, _, _ := newSession(t, auth, "")
		err := s.Login(ctx, "alice", "wrong")
		require.Error(t, err)
		assert.Equal(t, "Bad credentials", api.Message(err, "fallback"))
		assert.False(t, s.IsAuthenticated())
	})

	t.Run("profile failure keeps the new token", func(t *testing.T) {
		auth := &fakeAuth{
			login: &model.AuthResponse{AccessToken: "a.b.c"},
			me:    []func() (*model.User, error){status(500)},
		}
		s, _, nav := newSession(t, auth, "")
		require.NoError(t, s.Login(ctx, "alice", "pw"))
		assert.True(t, s.IsAuthenticated())
		assert.Nil(t, s.User())
		assert.Equal(t, session.RouteWishlist, nav.last())
	})

	t.Run("token that cannot be saved fails the login", func(t *testing.T) {
		auth := &fakeAuth{
			login: &model.AuthResponse{AccessToken: "a.b.c"},
			me:    []func() (*model.User, error){userOK("alice")},
		}
		nav := &recorder{}
		s, err := session.New(auth, brokenStore{err: errors.New("disk full")},
			session.WithNavigator(nav), session.WithLogger(logging.Discard()))
		require.NoError(t, err)

		err = s.Login(ctx, "alice", "pw")
		require.ErrorIs(t, err, session.ErrTokenNotSaved)
		assert.Contains(t, err.Error(), "disk full")
		assert.False(t, s.IsAuthenticated())
		assert.Empty(t, s.Token())
		assert.Empty(t, nav.routes)
	})

	t.Run("bearer scheme is stripped once", func(t *testing.T) {
		auth := &fakeAuth{
			login: &model.AuthResponse{AccessToken: "  Bearer a.b.c "},
			me:    []func() (*model.User, error){userOK("alice")},
		}
		s, store, _ := newSession(t, auth, "")
		require.NoError(t, s.Login(ctx, "alice", "pw"))
		assert.Equal(t, "a.b.c", s.Token())

		info, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, s.Token(), info.Token)
	})
}

func TestRegister(t *testing.T) {
	auth := &fakeAuth{me: []func() (*model.User, error){userOK("x")}}
	s, _, nav := newSession(t, auth, "")
	require.NoError(t, s.Register(context.Background(), "bob", "bob@example.com", "secret1"))
	require.Len(t, auth.registers, 1)
	assert.Equal(t, "bob@example.com", auth.registers[0].Email)
	assert.Equal(t, session.RouteLogin, nav.last())
	assert.False(t, s.IsAuthenticated())

	auth.regErr = errors.New("boom")
	require.Error(t, s.Register(context.Background(), "bob", "bob@example.com", "secret1"))
}

func TestFetchProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("401 clears the session", func(t *testing.T) {
		s, store, _ := newSession(t, &fakeAuth{me: []func() (*model.User, error){status(401)}}, "a.b.c")
		err := s.FetchProfile(ctx)
		require.True(t, api.IsUnauthorized(err))
		assert.False(t, s.IsAuthenticated())
		assert.Empty(t, s.Token())
		info, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("other failures keep the session", func(t *testing.T) {
		for _, code := range []int{403, 500} {
			s, _, _ := newSession(t, &fakeAuth{me: []func() (*model.User, error){status(code)}}, "a.b.c")
			require.Error(t, s.FetchProfile(ctx))
			assert.True(t, s.IsAuthenticated(), "status %d", code)
			assert.Equal(t, "a.b.c", s.Token())
		}
	})

	t.Run("stale response is discarded", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		slow := func() (*model.User, error) {
			close(started)
			<-release
			return &model.User{Username: "old"}, nil
		}
		s, _, _ := newSession(t, &fakeAuth{me: []func() (*model.User, error){slow, userOK("new")}}, "a.b.c")

		done := make(chan error, 1)
		go func() { done <- s.FetchProfile(ctx) }()
		<-started
		require.NoError(t, s.FetchProfile(ctx))
		close(release)
		require.NoError(t, <-done)

		require.NotNil(t, s.User())
		assert.Equal(t, "new", s.User().Username)
	})

	t.Run("ensure fetches once", func(t *testing.T) {
		auth := &fakeAuth{me: []func() (*model.User, error){userOK("alice")}}
		s, _, _ := newSession(t, auth, "a.b.c")
		require.NoError(t, s.Ensure(ctx))
		require.NoError(t, s.Ensure(ctx))
		assert.Equal(t, 1, auth.n)
	})
}

func TestLogoutAndExpire(t *testing.T) {
	s, store, nav := newSession(t, &fakeAuth{me: []func() (*model.User, error){userOK("alice")}}, "a.b.c")
	require.NoError(t, s.Ensure(context.Background()))

	s.Expire()
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Equal(t, session.RouteLogin, nav.last())
	info, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, info)

	require.NoError(t, s.Logout())
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	anon, _, _ := newSession(t, &fakeAuth{me: []func() (*model.User, error){userOK("x")}}, "")
	authed, _, _ := newSession(t, &fakeAuth{me: []func() (*model.User, error){userOK("x")}}, "a.b.c")

	g := session.Guard{Session: anon, Settle: time.Millisecond}
	assert.Equal(t, session.RouteLogin, g.Resolve(ctx, session.RouteWishlist))
	assert.Equal(t, session.RouteRegister, g.Resolve(ctx, session.RouteRegister))

	g.Session = authed
	assert.Equal(t, session.RouteProfile, g.Resolve(ctx, session.RouteProfile))
	assert.True(t, g.Allow())

	assert.False(t, session.Guard{}.Allow())
}
