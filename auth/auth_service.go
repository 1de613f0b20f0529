package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/go-efactura/internal/utils"
	"github.com/jrsteele09/go-efactura/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// TokenService produces currently-usable access tokens for the invoice
// API, hiding refresh mechanics from callers. Tokens are persisted through
// a pluggable token.Store keyed by user identity.
type TokenService struct {
	cfg        Config
	store      token.Store
	resolver   IdentityResolver
	httpClient *http.Client
	logger     zerolog.Logger
	nowTime    func() time.Time // nowTime function (injectable for testing)

	// mu serialises the whole read-check-refresh-persist critical section,
	// including the refresh HTTP call, so at most one refresh is in flight
	// per service instance. The lock is instance-wide rather than per-user:
	// a simplification, not a correctness requirement, acceptable because a
	// refresh happens roughly once per token lifetime. Across process
	// instances no coordination exists; deployments either share a store
	// with atomic upserts or pin users to one instance.
	mu sync.Mutex
}

// TokenServiceOption defines a function type to modify the TokenService instance.
type TokenServiceOption func(*TokenService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		ts.nowTime = nowFunc
	}
}

// WithHTTPClient sets the HTTP client used against the identity provider.
func WithHTTPClient(client *http.Client) TokenServiceOption {
	return func(ts *TokenService) {
		ts.httpClient = client
	}
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) TokenServiceOption {
	return func(ts *TokenService) {
		ts.logger = logger
	}
}

// WithIdentityResolver overrides the default claims-based identity resolver.
func WithIdentityResolver(resolver IdentityResolver) TokenServiceOption {
	return func(ts *TokenService) {
		ts.resolver = resolver
	}
}

// NewTokenService initialises a TokenService with required dependencies.
// Optional configuration can be provided via options (e.g., WithNowTime for testing).
func NewTokenService(cfg Config, store token.Store, options ...TokenServiceOption) (*TokenService, error) {
	if store == nil {
		return nil, errors.New("[NewTokenService] token store is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[NewTokenService] client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("[NewTokenService] client secret is required")
	}

	ts := &TokenService{
		cfg:        cfg,
		store:      store,
		resolver:   ClaimsResolver{},
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
		nowTime:    time.Now,
	}

	for _, opt := range options {
		opt(ts)
	}

	return ts, nil
}

// ValidAccessToken returns a currently-valid access token for userKey,
// transparently refreshing an expired token when a refresh credential is
// stored. When neither a valid token nor a usable refresh path exists the
// returned error matches ErrAuthenticationRequired and the caller should
// send the user back through the browser authorization flow.
func (ts *TokenService) ValidAccessToken(ctx context.Context, userKey string) (string, error) {
	tok, err := ts.validToken(ctx, userKey)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// HasValidToken reports whether a currently-valid token is stored for
// userKey, without side effects.
func (ts *TokenService) HasValidToken(ctx context.Context, userKey string) bool {
	return ts.store.HasValid(ctx, userKey)
}

// validToken holds the coordinator critical section. See the mu comment
// for the locking rationale.
func (ts *TokenService) validToken(ctx context.Context, userKey string) (*token.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tok, err := ts.store.Get(ctx, userKey)
	if err != nil {
		// A failing read path fails open to re-authentication.
		ts.logger.Warn().Err(err).Str("user", userKey).Msg("token store read failed")
		tok = nil
	}

	if tok.Valid(ts.nowTime()) {
		return tok, nil
	}

	if tok.CanRefresh() {
		return ts.refresh(ctx, userKey, tok)
	}

	return nil, fmt.Errorf("no stored token for %q: %w", userKey, ErrAuthenticationRequired)
}

// refresh performs exactly one refresh exchange. On any failure the stale
// record is removed so subsequent calls go straight to re-authentication
// instead of retrying against the provider.
func (ts *TokenService) refresh(ctx context.Context, userKey string, stale *token.Token) (*token.Token, error) {
	resp, err := ts.exchangeRefreshToken(ctx, stale.RefreshToken)
	if err != nil {
		if removeErr := ts.store.Remove(ctx, userKey); removeErr != nil {
			ts.logger.Warn().Err(removeErr).Str("user", userKey).Msg("failed to remove stale token")
		}
		ts.logger.Debug().Err(err).Str("user", userKey).Msg("refresh exchange failed")
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationRequired, err)
	}

	tok := ts.tokenFromResponse(resp, userKey)
	if tok.RefreshToken == "" {
		// Provider omitted the refresh token on rotation; the old one stays valid.
		tok.RefreshToken = stale.RefreshToken
	}

	if err := ts.store.Set(ctx, userKey, tok); err != nil {
		// A refreshed token that cannot be persisted must not be reported
		// as success: the next read would fall back to the stale record and
		// refresh again.
		return nil, errors.Wrap(err, "[refresh] persisting refreshed token")
	}
	return tok, nil
}

// ExchangeCode performs the authorization-code grant for the code received
// on the redirect callback and persists the resulting token. When userKey
// is empty the owning identity is resolved from the returned access
// token's claims (see ClaimsResolver). Nothing is persisted on failure.
func (ts *TokenService) ExchangeCode(ctx context.Context, code, userKey string) (*token.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	resp, err := ts.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if userKey == "" {
		userKey = ts.resolver.Resolve(utils.Value(resp.AccessToken))
	}

	tok := ts.tokenFromResponse(resp, userKey)
	if err := ts.store.Set(ctx, userKey, tok); err != nil {
		return nil, errors.Wrap(err, "[ExchangeCode] persisting token")
	}

	ts.logger.Info().Str("user", userKey).Time("expires", tok.ExpiresAt()).Msg("token acquired")
	return tok, nil
}

// Logout removes the stored token for userKey.
func (ts *TokenService) Logout(ctx context.Context, userKey string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if err := ts.store.Remove(ctx, userKey); err != nil {
		return errors.Wrap(err, "[Logout] removing token")
	}
	return nil
}

// tokenFromResponse builds the immutable Token record for a successful
// exchange, stamping issuance at the current instant.
func (ts *TokenService) tokenFromResponse(resp *tokenResponse, userKey string) *token.Token {
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = token.DefaultTokenType
	}
	return &token.Token{
		UserID:       userKey,
		AccessToken:  utils.Value(resp.AccessToken),
		RefreshToken: utils.Value(resp.RefreshToken),
		TokenType:    tokenType,
		Scope:        resp.Scope,
		IssuedAt:     ts.nowTime().UTC(),
		ExpiresIn:    resp.ExpiresIn,
	}
}
