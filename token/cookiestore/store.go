// Package cookiestore provides a token.Store that persists tokens in a
// sealed client-side cookie. The record survives server restarts without
// any server-side state, at the cost of the browser's cookie size limit.
// Cookies are written HttpOnly, Secure and SameSite=Strict.
package cookiestore

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-efactura/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// maxCookieSize is the conventional per-cookie limit enforced by browsers.
const maxCookieSize = 4096

// CookieStore holds the sealing codec and cookie policy. It is bound to a
// request/response pair with Bind, which yields the token.Store consumed
// by the token service.
type CookieStore struct {
	codec   *Codec
	prefix  string
	scope   string
	secure  bool
	logger  zerolog.Logger
	nowTime func() time.Time
}

// CookieStoreOption modifies a CookieStore instance.
type CookieStoreOption func(*CookieStore)

// WithKeyPrefix overrides the first segment of the cookie name.
func WithKeyPrefix(prefix string) CookieStoreOption {
	return func(s *CookieStore) { s.prefix = prefix }
}

// WithScope sets the scope segment of the cookie name.
func WithScope(scope string) CookieStoreOption {
	return func(s *CookieStore) { s.scope = scope }
}

// WithoutSecureFlag drops the Secure attribute so the cookie works over
// plain HTTP during local development.
func WithoutSecureFlag() CookieStoreOption {
	return func(s *CookieStore) { s.secure = false }
}

// WithLogger sets the logger used for malformed-cookie diagnostics.
func WithLogger(logger zerolog.Logger) CookieStoreOption {
	return func(s *CookieStore) { s.logger = logger }
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) CookieStoreOption {
	return func(s *CookieStore) { s.nowTime = nowFunc }
}

// New creates a CookieStore sealing with the given 32-byte key.
func New(sealKey []byte, options ...CookieStoreOption) (*CookieStore, error) {
	codec, err := NewCodec(sealKey)
	if err != nil {
		return nil, errors.Wrap(err, "[cookiestore.New] creating codec")
	}

	s := &CookieStore{
		codec:   codec,
		prefix:  token.DefaultKeyPrefix,
		secure:  true,
		logger:  zerolog.Nop(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Bind ties the store to one request/response pair. The returned Store
// reads cookies from r and writes Set-Cookie headers to w.
func (s *CookieStore) Bind(w http.ResponseWriter, r *http.Request) token.Store {
	return &requestStore{store: s, w: w, r: r}
}

var _ token.Store = (*requestStore)(nil)

type requestStore struct {
	store *CookieStore
	w     http.ResponseWriter
	r     *http.Request
}

func (rs *requestStore) Set(_ context.Context, userKey string, tok *token.Token) error {
	if tok == nil {
		return rs.Remove(context.Background(), userKey)
	}

	blob, err := rs.store.codec.Seal(tok)
	if err != nil {
		return errors.Wrap(err, "[cookiestore.Set] sealing token")
	}
	if len(blob) > maxCookieSize {
		return errors.Errorf("[cookiestore.Set] sealed token is %d bytes, exceeds the %d byte cookie limit", len(blob), maxCookieSize)
	}

	maxAge := int(time.Until(tok.ExpiresAt()).Seconds())
	http.SetCookie(rs.w, &http.Cookie{
		Name:     rs.store.cookieName(userKey),
		Value:    blob,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   rs.store.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (rs *requestStore) Get(_ context.Context, userKey string) (*token.Token, error) {
	cookie, err := rs.r.Cookie(rs.store.cookieName(userKey))
	if err != nil {
		return nil, nil // no cookie, nothing stored
	}

	tok, err := rs.store.codec.Open(cookie.Value)
	if err != nil {
		// A malformed or tampered cookie is treated as absent. The stale
		// cookie is cleared so the next request does not hit this path again.
		rs.store.logger.Warn().Err(err).Msg("discarding unreadable token cookie")
		rs.clear(userKey)
		return nil, nil
	}
	return tok, nil
}

func (rs *requestStore) Remove(_ context.Context, userKey string) error {
	rs.clear(userKey)
	return nil
}

func (rs *requestStore) HasValid(ctx context.Context, userKey string) bool {
	tok, err := rs.Get(ctx, userKey)
	if err != nil {
		return false
	}
	return tok.Valid(rs.store.nowTime())
}

func (rs *requestStore) clear(userKey string) {
	http.SetCookie(rs.w, &http.Cookie{
		Name:     rs.store.cookieName(userKey),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   rs.store.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// cookieName derives a cookie-safe name from the storage key. Cookie names
// cannot contain ':' so the separators are replaced.
func (s *CookieStore) cookieName(userKey string) string {
	key := token.StorageKey(s.prefix, userKey, s.scope)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, key)
}
