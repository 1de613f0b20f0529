// Package memorystore provides an in-process token.Store. Tokens are lost
// on restart and not shared across instances, which is fine for console
// tools and single-instance deployments.
package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-efactura/token"
)

var _ token.Store = (*Store)(nil)

// Store is a thread-safe in-memory implementation of token.Store.
type Store struct {
	mu      sync.RWMutex
	prefix  string
	scope   string
	tokens  map[string]token.Token
	nowTime func() time.Time
}

// StoreOption modifies a Store instance.
type StoreOption func(*Store)

// WithKeyPrefix overrides the first segment of the storage key.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) { s.prefix = prefix }
}

// WithScope sets the scope segment of the storage key.
func WithScope(scope string) StoreOption {
	return func(s *Store) { s.scope = scope }
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) { s.nowTime = nowFunc }
}

// New creates an empty in-memory token store.
func New(options ...StoreOption) *Store {
	s := &Store{
		prefix:  token.DefaultKeyPrefix,
		tokens:  make(map[string]token.Token),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Set stores or replaces the token for userKey.
func (s *Store) Set(_ context.Context, userKey string, tok *token.Token) error {
	if tok == nil {
		return s.Remove(context.Background(), userKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external modifications
	s.tokens[s.key(userKey)] = *tok
	return nil
}

// Get retrieves the token stored for userKey, or (nil, nil) when absent.
func (s *Store) Get(_ context.Context, userKey string) (*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok := s.tokens[s.key(userKey)]
	if !ok {
		return nil, nil
	}

	// Return a copy to prevent external modifications
	copied := tok
	return &copied, nil
}

// Remove deletes the token stored for userKey. Removing an absent key is
// not an error.
func (s *Store) Remove(_ context.Context, userKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, s.key(userKey))
	return nil
}

// HasValid reports whether a currently-valid token is stored for userKey.
func (s *Store) HasValid(ctx context.Context, userKey string) bool {
	tok, err := s.Get(ctx, userKey)
	if err != nil {
		return false
	}
	return tok.Valid(s.nowTime())
}

func (s *Store) key(userKey string) string {
	return token.StorageKey(s.prefix, userKey, s.scope)
}
