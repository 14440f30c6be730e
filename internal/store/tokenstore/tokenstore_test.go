package tokenstore_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/wishlist/internal/store/tokenstore"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	s := tokenstore.NewFile(path)

	t.Run("empty", func(t *testing.T) {
		ti, err := s.Load()
		require.NoError(t, err)
		assert.Nil(t, ti)
	})

	t.Run("round trip", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		tok := signedToken(t, exp)
		require.NoError(t, s.Save("Bearer "+tok))

		st, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

		ti, err := s.Load()
		require.NoError(t, err)
		require.NotNil(t, ti)
		assert.Equal(t, tok, ti.Token)
		assert.Equal(t, tokenstore.SourceFile, ti.Source)
		require.NotNil(t, ti.ExpiresAt)
		assert.True(t, exp.Equal(*ti.ExpiresAt))
	})

	t.Run("opaque token has no expiry", func(t *testing.T) {
		require.NoError(t, s.Save("opaque"))
		ti, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, "opaque", ti.Token)
		assert.Nil(t, ti.ExpiresAt)
	})

	t.Run("empty token rejected", func(t *testing.T) {
		require.Error(t, s.Save("   "))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.Delete())
		require.NoError(t, s.Delete())
		ti, err := s.Load()
		require.NoError(t, err)
		assert.Nil(t, ti)
	})

	t.Run("corrupt file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		_, err := s.Load()
		require.Error(t, err)
	})
}

func TestKeyring(t *testing.T) {
	s := tokenstore.NewKeyring(keyring.NewArrayKeyring(nil))

	ti, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, ti)

	require.NoError(t, s.Save("a.b.c"))
	ti, err = s.Load()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, "a.b.c", ti.Token)
	assert.Equal(t, tokenstore.SourceKeyring, ti.Source)

	require.NoError(t, s.Delete())
	ti, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, ti)
}

func TestWithEnv(t *testing.T) {
	file := tokenstore.NewFile(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, file.Save("from-file"))
	s := tokenstore.WithEnv(file)

	ti, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", ti.Token)

	t.Setenv(tokenstore.EnvVar, "Bearer from-env")
	ti, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", ti.Token)
	assert.Equal(t, tokenstore.SourceEnv, ti.Source)
}

func TestClaims(t *testing.T) {
	claims, err := tokenstore.Claims(signedToken(t, time.Now().Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["sub"])

	_, err = tokenstore.Claims("not-a-jwt")
	require.Error(t, err)
}
