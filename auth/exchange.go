package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-efactura/internal/utils"
	"github.com/pkg/errors"
)

// maxErrorBodySize bounds how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 4 << 10

// tokenResponse is the JSON body returned by the identity provider's token
// endpoint for both grant types, as defined in RFC 6749. Pointer fields
// distinguish absent from empty.
type tokenResponse struct {
	// AccessToken is the bearer credential (a JWT, per token_content_type=jwt).
	AccessToken *string `json:"access_token,omitempty"`

	// TokenType is "Bearer" for all tokens issued by the provider.
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// RefreshToken is the long-lived renewal credential. The provider may
	// omit it on a refresh grant, in which case the previous one stays valid.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope is the granted scope, which may be narrower than requested.
	Scope string `json:"scope,omitempty"`
}

// tokenErrorResponse is the JSON error body of a rejected exchange.
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// exchangeCode performs the authorization_code grant.
func (ts *TokenService) exchangeCode(ctx context.Context, code string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", ts.cfg.RedirectURL)
	form.Set("token_content_type", "jwt")
	return ts.doTokenRequest(ctx, form)
}

// exchangeRefreshToken performs the refresh_token grant. The request shape
// is identical to the code exchange apart from the grant parameters.
func (ts *TokenService) exchangeRefreshToken(ctx context.Context, refreshToken string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("token_content_type", "jwt")
	return ts.doTokenRequest(ctx, form)
}

// doTokenRequest posts the form to the token endpoint with HTTP Basic
// authentication from the client credentials and maps every failure mode
// onto the package error taxonomy. A partial token is never returned.
func (ts *TokenService) doTokenRequest(ctx context.Context, form url.Values) (*tokenResponse, error) {
	if ts.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ts.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.cfg.endpoint().TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "[doTokenRequest] building request")
	}
	req.SetBasicAuth(ts.cfg.ClientID, ts.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, exchangeErrorFromBody(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	if utils.Value(tr.AccessToken) == "" {
		return nil, errors.Wrap(ErrMalformedResponse, "no access_token in response body")
	}
	return &tr, nil
}

// exchangeErrorFromBody builds an *ExchangeError from a non-2xx token
// endpoint response, embedding the provider's error fields when the body
// parses and a body snippet when it does not.
func exchangeErrorFromBody(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	exchangeErr := &ExchangeError{StatusCode: resp.StatusCode}
	var te tokenErrorResponse
	if err := json.Unmarshal(body, &te); err == nil && te.Error != "" {
		exchangeErr.Code = te.Error
		exchangeErr.Description = te.ErrorDescription
	} else {
		exchangeErr.Description = strings.TrimSpace(string(body))
	}
	return exchangeErr
}
