// Package session keeps per-user state for the designer: API tokens, the
// shopping cart and a design queued for loading. State is persisted as JSON.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/taigrr/garment/internal/api"
)

// Session owns the state of one signed-in (or anonymous) user.
// It implements api.TokenStore.
type Session struct {
	path string
	log  *zap.Logger

	mu      sync.Mutex
	tokens  api.Tokens
	pending *LoadConfig

	Cart Cart
}

// persisted is the on-disk layout.
type persisted struct {
	Tokens  api.Tokens    `json:"tokens"`
	Cart    []api.Product `json:"cart-storage"`
	Pending *LoadConfig   `json:"design-loader,omitempty"`
}

var _ api.TokenStore = (*Session)(nil)

// Open loads the session stored at path. A missing file yields an empty
// session; an empty path keeps everything in memory.
func Open(path string, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{path: path, log: log}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}
	s.tokens = p.Tokens
	s.pending = p.Pending
	s.Cart.set(p.Cart)
	return s, nil
}

// Save writes the session to disk with owner-only permissions.
func (s *Session) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	p := persisted{Tokens: s.tokens, Pending: s.pending}
	s.mu.Unlock()
	p.Cart = s.Cart.Items()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	s.log.Debug("session saved", zap.String("path", s.path), zap.Int("cart_items", len(p.Cart)))
	return nil
}

// Tokens returns the current token pair.
func (s *Session) Tokens() api.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// SetTokens replaces the token pair and persists it.
func (s *Session) SetTokens(t api.Tokens) error {
	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
	return s.Save()
}

// ClearTokens signs the session out.
func (s *Session) ClearTokens() error {
	return s.SetTokens(api.Tokens{})
}

// SignedIn reports whether an access token is held.
func (s *Session) SignedIn() bool {
	return s.Tokens().AccessToken != ""
}

// QueueDesign stores lc to be opened by the next designer run.
func (s *Session) QueueDesign(lc LoadConfig) {
	s.mu.Lock()
	s.pending = &lc
	s.mu.Unlock()
}

// TakeDesign returns and clears the queued design.
func (s *Session) TakeDesign() (LoadConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return LoadConfig{}, false
	}
	lc := *s.pending
	s.pending = nil
	return lc, true
}
