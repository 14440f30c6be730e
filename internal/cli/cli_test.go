package cli_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/wishlist/internal/cli"
	"github.com/idilsaglam/wishlist/internal/fakeapi"
	"github.com/idilsaglam/wishlist/internal/logging"
	"github.com/idilsaglam/wishlist/internal/model"
)

type env struct {
	t      *testing.T
	fake   *fakeapi.Server
	dir    string
	config string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("WISHLIST_TOKEN", "")

	fake := fakeapi.New(fakeapi.WithLogger(logging.Discard()), fakeapi.WithShape(fakeapi.ShapeContent))
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	fake.AddUser("alice", "alice@example.com", "secret")
	fake.AddWish("alice", model.Wish{Title: "Bike", Category: "Sport"})
	fake.AddWish("alice", model.Wish{Title: "Book", Description: "sci-fi", Category: "Reading", Completed: true})
	fake.AddWish("alice", model.Wish{Title: "Running shoes", Category: "Sport"})

	dir := t.TempDir()
	cfg := fmt.Sprintf(`api:
  url: %s
  timeout: 5s
auth:
  file: %s
cache:
  driver: none
log:
  level: debug
  file: %s
`, srv.URL, filepath.Join(dir, "credentials.json"), filepath.Join(dir, "wishlist.log"))
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return &env{t: t, fake: fake, dir: dir, config: path}
}

type result struct {
	code           int
	stdout, stderr string
}

func (e *env) run(stdin string, argv ...string) result {
	e.t.Helper()
	var out, errOut bytes.Buffer
	code := cli.Run(append([]string{"--config", e.config}, argv...), cli.Streams{
		In:  strings.NewReader(stdin),
		Out: &out,
		Err: &errOut,
	})
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func (e *env) login() {
	e.t.Helper()
	r := e.run("", "login", "alice", "--password", "secret")
	require.Equal(e.t, 0, r.code, r.stderr)
}

func (e *env) wishes(argv ...string) []model.Wish {
	e.t.Helper()
	r := e.run("", append([]string{"--json", "ls"}, argv...)...)
	require.Equal(e.t, 0, r.code, r.stderr)
	var list []model.Wish
	require.NoError(e.t, json.Unmarshal([]byte(r.stdout), &list))
	return list
}

func titles(list []model.Wish) []string {
	out := make([]string, 0, len(list))
	for _, w := range list {
		out = append(out, w.Title)
	}
	return out
}

func TestLogin(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		e := newEnv(t)
		r := e.run("", "login", "alice", "-p", "secret")
		require.Equal(t, 0, r.code, r.stderr)
		assert.Contains(t, r.stdout, "logged in as alice")
		assert.FileExists(t, filepath.Join(e.dir, "credentials.json"))
	})

	t.Run("prompted", func(t *testing.T) {
		e := newEnv(t)
		r := e.run("alice\nsecret\n", "login")
		require.Equal(t, 0, r.code, r.stderr)
		assert.Contains(t, r.stderr, "Username: ")
		assert.Contains(t, r.stderr, "Password: ")
	})

	t.Run("bad credentials", func(t *testing.T) {
		e := newEnv(t)
		r := e.run("", "login", "alice", "-p", "wrong")
		assert.Equal(t, 1, r.code)
		assert.Contains(t, r.stderr, "Bad credentials")
		assert.NoFileExists(t, filepath.Join(e.dir, "credentials.json"))
	})

	t.Run("token from env", func(t *testing.T) {
		e := newEnv(t)
		tok, err := e.fake.Token("alice")
		require.NoError(t, err)
		t.Setenv("WISHLIST_TOKEN", "Bearer "+tok)
		r := e.run("", "whoami")
		require.Equal(t, 0, r.code, r.stderr)
		assert.Equal(t, "alice\n", r.stdout)

		r = e.run("", "whoami", "--claims")
		require.Equal(t, 0, r.code, r.stderr)
		assert.Contains(t, r.stdout, `"sub": "alice"`)
	})
}

func TestRegister(t *testing.T) {
	e := newEnv(t)
	r := e.run("", "register", "bob", "--email", "bob@example.com", "--password", "secret1")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "registered bob")

	r = e.run("", "register", "bob", "--email", "bob@example.com", "--password", "secret1")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "Username is already taken!")

	r = e.run("", "login", "bob", "-p", "secret1")
	assert.Equal(t, 0, r.code, r.stderr)
}

func TestNotLoggedIn(t *testing.T) {
	e := newEnv(t)
	for _, argv := range [][]string{{"ls"}, {"whoami"}, {"done", "1"}, {"categories"}} {
		r := e.run("", argv...)
		assert.Equal(t, 1, r.code, argv)
		assert.Contains(t, r.stderr, "not logged in", argv)
	}
	assert.Empty(t, e.fake.Requests(), "nothing is sent without a token")

	r := e.run("", "--json", "status")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, `"logged_in": false`)
}

func TestList(t *testing.T) {
	e := newEnv(t)
	e.login()

	assert.Equal(t, []string{"Running shoes", "Book", "Bike"}, titles(e.wishes()))
	assert.Equal(t, []string{"Book"}, titles(e.wishes("--filter", "completed")))
	assert.Equal(t, []string{"Running shoes", "Bike"}, titles(e.wishes("-f", "pending")))
	assert.Equal(t, []string{"Book"}, titles(e.wishes("--search", "SCI")))
	assert.Equal(t, []string{"Running shoes", "Bike"}, titles(e.wishes("--category", "Sport")))

	t.Run("server side", func(t *testing.T) {
		assert.Equal(t, []string{"Running shoes", "Bike"}, titles(e.wishes("--server", "--category", "Sport")))
		reqs := e.fake.Requests()
		assert.Equal(t, "/api/wishes/category/Sport", reqs[len(reqs)-1].Path)

		assert.Equal(t, []string{"Bike"}, titles(e.wishes("--server", "--search", "bike")))
		reqs = e.fake.Requests()
		assert.Equal(t, "/api/wishes/search", reqs[len(reqs)-1].Path)
		assert.Equal(t, "term=bike", reqs[len(reqs)-1].RawQuery)

		e.wishes("--server", "--filter", "completed")
		reqs = e.fake.Requests()
		assert.Equal(t, "/api/wishes/completed", reqs[len(reqs)-1].Path)
	})

	t.Run("text", func(t *testing.T) {
		r := e.run("", "ls")
		require.Equal(t, 0, r.code, r.stderr)
		assert.Contains(t, r.stdout, "Running shoes")
		assert.Contains(t, r.stdout, "[Sport]")
		assert.Contains(t, r.stdout, "Total 3")
	})

	t.Run("paged", func(t *testing.T) {
		r := e.run("", "ls", "--page", "0", "--size", "2")
		require.Equal(t, 0, r.code, r.stderr)
		assert.Contains(t, r.stdout, "page 1 of 2")
		assert.Contains(t, r.stdout, "3 wishes")
		reqs := e.fake.Requests()
		assert.Equal(t, "size=2", reqs[len(reqs)-1].RawQuery)
	})

	t.Run("categories", func(t *testing.T) {
		r := e.run("", "categories")
		require.Equal(t, 0, r.code, r.stderr)
		assert.Equal(t, "Reading\nSport\n", r.stdout)
	})
}

func TestMutations(t *testing.T) {
	e := newEnv(t)
	e.login()

	r := e.run("", "add", "New", "bike", "--category", "Sport", "--priority", "high", "--due", "2030-01-02")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "added #4 New bike")

	r = e.run("", "--json", "show", "4")
	require.Equal(t, 0, r.code, r.stderr)
	var w model.Wish
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &w))
	assert.Equal(t, model.PriorityHigh, w.Priority)
	require.NotNil(t, w.DueDate)
	assert.Equal(t, 2030, w.DueDate.Year())

	r = e.run("", "edit", "4", "--title", "Gravel bike")
	require.Equal(t, 0, r.code, r.stderr)
	r = e.run("", "done", "#4")
	require.Equal(t, 0, r.code, r.stderr)
	r = e.run("", "show", "4")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Gravel bike")
	assert.Contains(t, r.stdout, "completed")

	r = e.run("", "rm", "4")
	require.Equal(t, 0, r.code, r.stderr)
	r = e.run("", "show", "4")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "(404)")

	t.Run("validation happens before any request", func(t *testing.T) {
		before := len(e.fake.Requests())
		r := e.run("", "add", "   ")
		assert.Equal(t, 2, r.code)
		assert.Contains(t, r.stderr, "title is required")
		r = e.run("", "add", "x", "--priority", "urgent")
		assert.Equal(t, 2, r.code)
		assert.Len(t, e.fake.Requests(), before)
	})

	t.Run("edit without changes", func(t *testing.T) {
		r := e.run("", "edit", "1")
		assert.Equal(t, 2, r.code)
		assert.Contains(t, r.stderr, "nothing to update")
	})
}

func TestProfileAndStatus(t *testing.T) {
	e := newEnv(t)
	e.login()

	r := e.run("", "--json", "profile")
	require.Equal(t, 0, r.code, r.stderr)
	var p struct {
		User  model.User `json:"user"`
		Stats struct {
			Total, Completed, Pending int
		} `json:"stats"`
		Rate int `json:"completion_rate"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &p))
	assert.Equal(t, "alice@example.com", p.User.Email)
	assert.Equal(t, 3, p.Stats.Total)
	assert.Equal(t, 33, p.Rate)

	r = e.run("", "status")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "logged in as alice")
	assert.Contains(t, r.stdout, "Expires:")

	r = e.run("", "logout")
	require.Equal(t, 0, r.code, r.stderr)
	assert.NoFileExists(t, filepath.Join(e.dir, "credentials.json"))
	assert.Equal(t, 1, e.run("", "whoami").code)
}

func TestExpiredSession(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.fake.Fail("GET", "/api/auth/me", 401, "Token expired")

	r := e.run("", "whoami")
	assert.Equal(t, 1, r.code)
	assert.NoFileExists(t, filepath.Join(e.dir, "credentials.json"), "401 on the profile ends the session")
}

func TestForbiddenKeepsSession(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.fake.AddUser("mallory", "m@example.com", "x")
	foreign := e.fake.AddWish("mallory", model.Wish{Title: "Not yours"})

	r := e.run("", "done", fmt.Sprint(foreign.ID))
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "(403)")
	assert.FileExists(t, filepath.Join(e.dir, "credentials.json"))
}

func TestUsage(t *testing.T) {
	e := newEnv(t)
	cases := [][]string{
		{"frobnicate"},
		{"done"},
		{"done", "abc"},
		{"ls", "--filter", "someday"},
		{"ls", "--dir", "sideways"},
		{"ls", "--bogus"},
		{"add"},
	}
	for _, argv := range cases {
		r := e.run("", argv...)
		assert.Equal(t, 2, r.code, "%v: %s", argv, r.stderr)
	}
}
