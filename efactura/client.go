// Package efactura is a client for the ANAF e-Factura (SPV) invoice REST
// API: upload, upload-status, message listing, download, XML validation
// and PDF conversion. Authorized calls carry a bearer token obtained from
// an oauth2.TokenSource, normally the one exposed by auth.TokenService,
// so an expired token is refreshed transparently before each request.
package efactura

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// maxResponseSize bounds in-memory API responses (message lists, download
// archives, rendered PDFs).
const maxResponseSize = 64 << 20

// Client calls the invoice REST endpoints for one environment.
type Client struct {
	apiBase     string
	publicBase  string
	tokenSource oauth2.TokenSource
	authClient  *http.Client // bearer-authorized, for the invoice API
	httpClient  *http.Client // plain, for the public validation endpoints
	logger      zerolog.Logger
}

// ClientOption modifies a Client instance.
type ClientOption func(*Client)

// WithBaseURLs overrides the API and public base URLs (primarily for testing).
func WithBaseURLs(apiBase, publicBase string) ClientOption {
	return func(c *Client) {
		c.apiBase = strings.TrimSuffix(apiBase, "/")
		c.publicBase = strings.TrimSuffix(publicBase, "/")
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient sets the underlying client used for public endpoints and
// as the base transport for authorized calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// NewClient creates an invoice API client for the environment, authorized
// through the given token source.
func NewClient(env Environment, src oauth2.TokenSource, options ...ClientOption) *Client {
	c := &Client{
		apiBase:     env.APIBaseURL(),
		publicBase:  env.PublicBaseURL(),
		tokenSource: src,
		httpClient:  http.DefaultClient,
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	c.authClient = &http.Client{
		Transport: &oauth2.Transport{Source: c.tokenSource, Base: c.httpClient.Transport},
		Timeout:   c.httpClient.Timeout,
	}
	return c
}

// get performs an authorized GET and returns the raw body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	u := c.apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "[efactura.get] building request")
	}
	return c.do(c.authClient, req)
}

// postXML performs an authorized POST with an XML payload.
func (c *Client) postXML(ctx context.Context, path string, query url.Values, body []byte) ([]byte, int, error) {
	u := c.apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(string(body)))
	if err != nil {
		return nil, 0, errors.Wrap(err, "[efactura.postXML] building request")
	}
	req.Header.Set("Content-Type", "text/plain")
	return c.do(c.authClient, req)
}

// postPublicXML performs an unauthenticated POST against the public
// web-services host.
func (c *Client) postPublicXML(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.publicBase+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, 0, errors.Wrap(err, "[efactura.postPublicXML] building request")
	}
	req.Header.Set("Content-Type", "text/plain")
	return c.do(c.httpClient, req)
}

func (c *Client) do(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "[efactura.do] %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "[efactura.do] reading response body")
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Msg("efactura API call")

	return body, resp.StatusCode, nil
}

// decodeXMLHeader parses the <header> element the upload and status
// endpoints respond with, folding API-level errors into *APIError.
func decodeXMLHeader(body []byte, status int, out any) error {
	if status < 200 || status > 299 {
		return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return &APIError{StatusCode: status, Message: fmt.Sprintf("unparsable response: %v", err)}
	}
	return nil
}

// decodeJSON parses a JSON body, folding non-2xx statuses into *APIError.
func decodeJSON(body []byte, status int, out any) error {
	if status < 200 || status > 299 {
		return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{StatusCode: status, Message: fmt.Sprintf("unparsable response: %v", err)}
	}
	return nil
}
