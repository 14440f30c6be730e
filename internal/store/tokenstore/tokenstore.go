// Package tokenstore persists the session token: a single string under a fixed key.
package tokenstore

import (
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Key is the fixed storage key of the session token.
const Key = "token"

// EnvVar overrides whatever store is configured.
const EnvVar = "WISHLIST_TOKEN"

const (
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceKeyring = "keyring"
)

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file" | "keyring"
	CreatedAt time.Time  `json:"created_at"` // when we saved it
	ExpiresAt *time.Time `json:"expires_at"` // from the JWT exp claim, if any
}

// Store holds at most one token. Load returns (nil, nil) when nothing is stored.
type Store interface {
	Load() (*TokenInfo, error)
	Save(token string) error
	Delete() error
}

// WithEnv puts the WISHLIST_TOKEN env var in front of s. Writes still go to s.
func WithEnv(s Store) Store { return envStore{Store: s, getenv: os.Getenv} }

type envStore struct {
	Store
	getenv func(string) string
}

func (e envStore) Load() (*TokenInfo, error) {
	if env := strings.TrimSpace(e.getenv(EnvVar)); env != "" {
		tok := stripBearer(env)
		return &TokenInfo{Token: tok, Source: SourceEnv, ExpiresAt: ExpiryOf(tok)}, nil
	}
	return e.Store.Load()
}

// ExpiryOf reads the exp claim of a JWT without verifying it. Opaque tokens give nil.
func ExpiryOf(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

// Claims decodes the payload of a JWT without verifying it.
func Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Normalize trims t and drops a leading "Bearer " scheme.
func Normalize(t string) string { return stripBearer(strings.TrimSpace(t)) }

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
