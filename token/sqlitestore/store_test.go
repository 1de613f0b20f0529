package sqlitestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-efactura/token"
	"github.com/jrsteele09/go-efactura/token/sqlitestore"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, options ...sqlitestore.StoreOption) *sqlitestore.Store {
	t.Helper()
	store, err := sqlitestore.New(":memory:", options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSetGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tok := &token.Token{
		UserID:       "alice",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    token.DefaultTokenType,
		Scope:        "spv",
		IssuedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ExpiresIn:    3600,
	}

	require.NoError(t, store.Set(ctx, "alice", tok))

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, tok.UserID, got.UserID)
	require.Equal(t, tok.AccessToken, got.AccessToken)
	require.Equal(t, tok.RefreshToken, got.RefreshToken)
	require.Equal(t, tok.TokenType, got.TokenType)
	require.Equal(t, tok.Scope, got.Scope)
	require.Equal(t, tok.ExpiresIn, got.ExpiresIn)
	require.True(t, tok.IssuedAt.Equal(got.IssuedAt))
}

func TestGetAbsentIsNilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSetUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(ctx, "alice", &token.Token{AccessToken: "access-1", IssuedAt: issued, ExpiresIn: 3600}))
	require.NoError(t, store.Set(ctx, "alice", &token.Token{AccessToken: "access-2", IssuedAt: issued.Add(time.Hour), ExpiresIn: 3600}))

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "access-2", got.AccessToken)
	require.True(t, issued.Add(time.Hour).Equal(got.IssuedAt))
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "alice", &token.Token{AccessToken: "access-1", IssuedAt: time.Now(), ExpiresIn: 3600}))
	require.NoError(t, store.Remove(ctx, "alice"))
	require.NoError(t, store.Remove(ctx, "alice"))

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSetNilRemoves(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "alice", &token.Token{AccessToken: "access-1", IssuedAt: time.Now(), ExpiresIn: 3600}))
	require.NoError(t, store.Set(ctx, "alice", nil))

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestHasValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, sqlitestore.WithNowTime(func() time.Time { return now }))
	ctx := context.Background()

	require.False(t, store.HasValid(ctx, "alice"))

	require.NoError(t, store.Set(ctx, "alice", &token.Token{AccessToken: "access-1", IssuedAt: now, ExpiresIn: 3600}))
	require.True(t, store.HasValid(ctx, "alice"))

	require.NoError(t, store.Set(ctx, "alice", &token.Token{AccessToken: "access-1", IssuedAt: now.Add(-2 * time.Hour), ExpiresIn: 3600}))
	require.False(t, store.HasValid(ctx, "alice"))
}

func TestKeyPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	a := newTestStore(t, sqlitestore.WithKeyPrefix("app-a"))

	require.NoError(t, a.Set(ctx, "alice", &token.Token{AccessToken: "access-a", IssuedAt: time.Now(), ExpiresIn: 3600}))

	got, err := a.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "access-a", got.AccessToken)
}
