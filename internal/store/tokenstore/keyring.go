package tokenstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/99designs/keyring"
)

const serviceName = "wishlist"

// Keyring keeps the token in the OS credential store (Keychain, Secret Service,
// KWallet, WinCred) with an encrypted file as the last resort.
type Keyring struct {
	ring keyring.Keyring
}

// OpenKeyring opens the "wishlist" service. fileDir backs the encrypted-file fallback.
func OpenKeyring(fileDir string) (*Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      serviceName,
		KeychainName:     serviceName,
		FileDir:          filepath.Join(fileDir, "keyring"),
		FilePasswordFunc: keyring.TerminalPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return &Keyring{ring: ring}, nil
}

// NewKeyring wraps an already opened keyring, e.g. keyring.NewArrayKeyring in tests.
func NewKeyring(ring keyring.Keyring) *Keyring { return &Keyring{ring: ring} }

func (k *Keyring) Load() (*TokenInfo, error) {
	item, err := k.ring.Get(Key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("keyring get: %w", err)
	}
	tok := stripBearer(strings.TrimSpace(string(item.Data)))
	if tok == "" {
		return nil, nil
	}
	return &TokenInfo{Token: tok, Source: SourceKeyring, ExpiresAt: ExpiryOf(tok)}, nil
}

func (k *Keyring) Save(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty token")
	}
	err := k.ring.Set(keyring.Item{
		Key:         Key,
		Data:        []byte(token),
		Label:       "wishlist session token",
		Description: "saved " + time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func (k *Keyring) Delete() error {
	if err := k.ring.Remove(Key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("keyring remove: %w", err)
	}
	return nil
}
