package auth_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/go-efactura/auth"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeURL(t *testing.T) {
	cfg := auth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/oauth/callback?x=1",
	}

	raw, err := auth.AuthorizeURL(cfg, "spv", "state-1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "logincert.anaf.ro", u.Host)
	require.Equal(t, "/anaf-oauth2/v1/authorize", u.Path)

	q := u.Query()
	require.Equal(t, []string{"code"}, q["response_type"])
	require.Equal(t, []string{"client-id"}, q["client_id"], "client_id must appear exactly once")
	require.Equal(t, []string{"https://app.example.com/oauth/callback?x=1"}, q["redirect_uri"])
	require.Equal(t, []string{"jwt"}, q["token_content_type"])
	require.Equal(t, []string{"spv"}, q["scope"])
	require.Equal(t, []string{"state-1"}, q["state"])

	// The redirect URI is percent-encoded in the raw query string.
	require.Contains(t, raw, "redirect_uri=https%3A%2F%2Fapp.example.com%2Foauth%2Fcallback%3Fx%3D1")

	// No grant-specific parameters leak into the authorization request.
	require.NotContains(t, q, "grant_type")
	require.NotContains(t, q, "code")
	require.NotContains(t, q, "client_secret")
}

func TestAuthorizeURLOmitsEmptyOptionals(t *testing.T) {
	cfg := auth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/oauth/callback",
	}

	raw, err := auth.AuthorizeURL(cfg, "", "")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.NotContains(t, q, "scope")
	require.NotContains(t, q, "state")
}

func TestAuthorizeURLCustomEndpoint(t *testing.T) {
	cfg := auth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/oauth/callback",
		Endpoint: auth.Endpoint{
			AuthorizeURL: "https://idp.example.com/authorize",
			TokenURL:     "https://idp.example.com/token",
		},
	}

	raw, err := auth.AuthorizeURL(cfg, "", "s1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "idp.example.com", u.Host)
	require.Equal(t, "/authorize", u.Path)
}
