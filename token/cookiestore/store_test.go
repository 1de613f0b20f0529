package cookiestore_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-efactura/token"
	"github.com/jrsteele09/go-efactura/token/cookiestore"
	"github.com/stretchr/testify/require"
)

func testSealKey() []byte {
	key := make([]byte, cookiestore.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func newTestStore(t *testing.T) *cookiestore.CookieStore {
	t.Helper()
	store, err := cookiestore.New(testSealKey())
	require.NoError(t, err)
	return store
}

// replayCookies copies the Set-Cookie headers from a response onto a fresh
// request, simulating the browser sending them back.
func replayCookies(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return r
}

func TestNewRejectsBadKeySize(t *testing.T) {
	_, err := cookiestore.New([]byte("too short"))
	require.Error(t, err)
}

func TestCookieRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tok := &token.Token{
		UserID:       "alice",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    token.DefaultTokenType,
		IssuedAt:     time.Now().Truncate(time.Second),
		ExpiresIn:    3600,
	}

	w := httptest.NewRecorder()
	require.NoError(t, store.Bind(w, httptest.NewRequest(http.MethodGet, "/", nil)).Set(ctx, "alice", tok))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].HttpOnly)
	require.True(t, cookies[0].Secure)
	require.NotContains(t, cookies[0].Value, "access-1", "token must not appear in plaintext")

	got, err := store.Bind(httptest.NewRecorder(), replayCookies(w)).Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, tok.AccessToken, got.AccessToken)
	require.Equal(t, tok.RefreshToken, got.RefreshToken)
	require.True(t, tok.IssuedAt.Equal(got.IssuedAt))
}

func TestGetWithoutCookieIsNilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Bind(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)).Get(context.Background(), "alice")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestTamperedCookieIsDiscarded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	require.NoError(t, store.Bind(w, httptest.NewRequest(http.MethodGet, "/", nil)).Set(ctx, "alice", &token.Token{
		AccessToken: "access-1",
		IssuedAt:    time.Now(),
		ExpiresIn:   3600,
	}))

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		flipped := "x" + c.Value[1:]
		if flipped == c.Value {
			flipped = "y" + c.Value[1:]
		}
		tampered.AddCookie(&http.Cookie{Name: c.Name, Value: flipped})
	}

	clearRecorder := httptest.NewRecorder()
	got, err := store.Bind(clearRecorder, tampered).Get(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, got)

	// The unreadable cookie is cleared for the next request.
	cleared := clearRecorder.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)
}

func TestRemoveClearsCookie(t *testing.T) {
	store := newTestStore(t)

	w := httptest.NewRecorder()
	require.NoError(t, store.Bind(w, httptest.NewRequest(http.MethodGet, "/", nil)).Remove(context.Background(), "alice"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
	require.Empty(t, cookies[0].Value)
}

func TestWithoutSecureFlag(t *testing.T) {
	store, err := cookiestore.New(testSealKey(), cookiestore.WithoutSecureFlag())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, store.Bind(w, httptest.NewRequest(http.MethodGet, "/", nil)).Set(context.Background(), "alice", &token.Token{
		AccessToken: "access-1",
		IssuedAt:    time.Now(),
		ExpiresIn:   3600,
	}))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.False(t, cookies[0].Secure)
}

func TestHasValid(t *testing.T) {
	now := time.Now()
	store, err := cookiestore.New(testSealKey(), cookiestore.WithNowTime(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	w := httptest.NewRecorder()
	require.NoError(t, store.Bind(w, httptest.NewRequest(http.MethodGet, "/", nil)).Set(ctx, "alice", &token.Token{
		AccessToken: "access-1",
		IssuedAt:    now,
		ExpiresIn:   3600,
	}))

	require.True(t, store.Bind(httptest.NewRecorder(), replayCookies(w)).HasValid(ctx, "alice"))
	require.False(t, store.Bind(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)).HasValid(ctx, "alice"))
}
