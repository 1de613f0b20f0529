package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired means no valid token and no usable refresh
	// path exist for the user. This is an expected outcome, not a bug: the
	// user has either never authenticated or their refresh token has
	// expired, and must restart the browser authorization flow.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrTokenExchangeFailed means the identity provider rejected a code or
	// refresh-token exchange. Matched by every *ExchangeError.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrTransport means the identity provider could not be reached at the
	// network level. Distinguished from ErrTokenExchangeFailed only for
	// diagnostics; both invalidate cached state identically.
	ErrTransport = errors.New("identity provider unreachable")

	// ErrMalformedResponse means the provider returned a body that does not
	// parse as the expected token response. Never partially parsed.
	ErrMalformedResponse = errors.New("malformed token response")
)

// ExchangeError carries the provider-supplied error details of a rejected
// token exchange. It matches ErrTokenExchangeFailed via errors.Is.
type ExchangeError struct {
	StatusCode  int    // HTTP status of the token endpoint response
	Code        string // provider "error" field, when present
	Description string // provider "error_description" field, when present
}

func (e *ExchangeError) Error() string {
	msg := fmt.Sprintf("token exchange failed: status %d", e.StatusCode)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}

func (e *ExchangeError) Unwrap() error {
	return ErrTokenExchangeFailed
}
