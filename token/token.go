package token

import (
	"time"
)

const (
	// ValidityMargin is subtracted from the declared expiry when deciding
	// whether a token is still usable, so that a token handed out here does
	// not expire while an API request built with it is in flight.
	ValidityMargin = 5 * time.Minute

	// DefaultTokenType is the token type issued by the ANAF identity provider.
	DefaultTokenType = "Bearer"
)

// Token represents one OAuth2 grant issued by the ANAF identity provider.
// A Token is never mutated after construction; a refresh produces a new
// Token that replaces the stored one wholesale.
type Token struct {
	// UserID is the identity key the token is stored under.
	UserID string `json:"user_id"`

	// AccessToken is the short-lived bearer credential (a JWT, per the
	// provider's token_content_type=jwt contract).
	AccessToken string `json:"access_token"`

	// RefreshToken is the long-lived renewal credential. Empty when the
	// provider did not issue one.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is "Bearer" for all tokens issued by the provider.
	TokenType string `json:"token_type"`

	// Scope holds the scope that was requested for this grant.
	Scope string `json:"scope,omitempty"`

	// IssuedAt is the UTC instant the token was obtained, recorded by this
	// client at exchange time.
	IssuedAt time.Time `json:"issued_at"`

	// ExpiresIn is the declared lifetime in seconds (the provider's
	// expires_in field).
	ExpiresIn int64 `json:"expires_in"`
}

// ExpiresAt returns the declared expiry instant (issuance + lifetime),
// without the validity margin applied.
func (t *Token) ExpiresAt() time.Time {
	return t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Valid reports whether the token is usable at the given instant. Validity
// is always evaluated against a caller-supplied now so it is never assumed
// true across a blocking call without a re-check.
func (t *Token) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return now.Before(t.ExpiresAt().Add(-ValidityMargin))
}

// CanRefresh reports whether the token carries a refresh credential.
func (t *Token) CanRefresh() bool {
	return t != nil && t.RefreshToken != ""
}
