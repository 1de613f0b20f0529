package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// DefaultUserKey is the identity used when no claim in the access token
// yields one, for example in console or background usage where no
// authenticated principal exists.
const DefaultUserKey = "efactura"

// identityClaimPriority is the documented claim probe order used by
// ClaimsResolver. The first claim with a non-empty string value wins.
var identityClaimPriority = []string{"name", "sub", "preferred_username", "email"}

// IdentityResolver derives the storage identity key for a grant from its
// raw access token. Injected into the token service so the resolution
// order is an explicit, testable contract rather than an implicit
// fallback chain.
type IdentityResolver interface {
	Resolve(rawAccessToken string) string
}

var _ IdentityResolver = ClaimsResolver{}

// ClaimsResolver resolves the identity from the access token's JWT claims
// (the provider issues JWTs, per token_content_type=jwt), probing
// name, sub, preferred_username and email in that order, then falling
// back to a fixed key. The token signature is not verified here: the
// token was just received from the provider over TLS and is only being
// inspected for a partition key, not trusted for authorization.
type ClaimsResolver struct {
	// Fallback overrides DefaultUserKey when non-empty.
	Fallback string
}

// Resolve returns the identity key for the given raw JWT access token.
func (c ClaimsResolver) Resolve(rawAccessToken string) string {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(rawAccessToken, claims); err == nil {
		for _, claim := range identityClaimPriority {
			if v, ok := claims[claim].(string); ok && v != "" {
				return v
			}
		}
	}

	if c.Fallback != "" {
		return c.Fallback
	}
	return DefaultUserKey
}
