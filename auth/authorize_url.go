package auth

import (
	"net/url"

	"github.com/pkg/errors"
)

// AuthorizeURL builds the identity provider redirect URL that starts the
// browser authorization flow. The builder is pure: it retains no state.
// The caller is responsible for persisting the anti-CSRF state value (for
// example in a server-side session or a short-lived cookie) and verifying
// it matches on the callback.
//
// The fixed token_content_type=jwt parameter is part of the ANAF contract;
// the provider rejects requests without it.
func AuthorizeURL(cfg Config, scope, state string) (string, error) {
	u, err := url.Parse(cfg.endpoint().AuthorizeURL)
	if err != nil {
		return "", errors.Wrap(err, "[AuthorizeURL] parsing authorize endpoint")
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", cfg.RedirectURL)
	q.Set("token_content_type", "jwt")
	if scope != "" {
		q.Set("scope", scope)
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
