package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File keeps the token as JSON in a single owner-only file.
// No locking; concurrent terminals are not coordinated.
type File struct {
	Path string
	now  func() time.Time
}

func NewFile(path string) *File { return &File{Path: path, now: time.Now} }

func (f *File) Load() (*TokenInfo, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	if ti.Token == "" {
		return nil, nil
	}
	ti.Source = SourceFile
	return &ti, nil
}

func (f *File) Save(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	ti := TokenInfo{
		Token:     token,
		Source:    SourceFile,
		CreatedAt: now(),
		ExpiresAt: ExpiryOf(token),
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(f.Path, b, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (f *File) Delete() error {
	if err := os.Remove(f.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
