package storefakes

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-efactura/token"
)

var _ token.Store = (*FakeStore)(nil)

// FakeStore is an in-memory token.Store for tests. Calls are counted and
// errors can be injected per operation.
type FakeStore struct {
	lock   sync.RWMutex
	tokens map[string]*token.Token

	SetErr    error
	GetErr    error
	RemoveErr error

	SetCalls    int
	GetCalls    int
	RemoveCalls int

	NowTime func() time.Time
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		tokens:  make(map[string]*token.Token),
		NowTime: time.Now,
	}
}

func (f *FakeStore) Set(_ context.Context, userKey string, tok *token.Token) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.SetCalls++
	if f.SetErr != nil {
		return f.SetErr
	}
	copied := *tok
	f.tokens[userKey] = &copied
	return nil
}

func (f *FakeStore) Get(_ context.Context, userKey string) (*token.Token, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.GetCalls++
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	tok, ok := f.tokens[userKey]
	if !ok {
		return nil, nil
	}
	copied := *tok
	return &copied, nil
}

func (f *FakeStore) Remove(_ context.Context, userKey string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.RemoveCalls++
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	delete(f.tokens, userKey)
	return nil
}

func (f *FakeStore) HasValid(ctx context.Context, userKey string) bool {
	tok, err := f.Get(ctx, userKey)
	if err != nil {
		return false
	}
	return tok.Valid(f.NowTime())
}

// Stored returns the token currently held for userKey without counting the
// access as a Get call.
func (f *FakeStore) Stored(userKey string) *token.Token {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.tokens[userKey]
}
