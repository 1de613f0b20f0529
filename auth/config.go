package auth

import "time"

// Config holds the OAuth2 client registration issued by ANAF. The zero
// Endpoint means DefaultEndpoint; the zero Timeout disables the per-request
// deadline (callers can still cancel through the context).
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	Endpoint     Endpoint
	Timeout      time.Duration
}

func (c Config) endpoint() Endpoint {
	if c.Endpoint.AuthorizeURL == "" && c.Endpoint.TokenURL == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}
