package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource returns an oauth2.TokenSource bound to one user, so the
// invoice REST client can be wired through oauth2.Transport and pick up a
// freshly-validated token before each API call. The source delegates every
// Token call to the coordinator; it never caches validity across calls.
func (ts *TokenService) TokenSource(ctx context.Context, userKey string) oauth2.TokenSource {
	return &serviceTokenSource{ctx: ctx, svc: ts, userKey: userKey}
}

var _ oauth2.TokenSource = (*serviceTokenSource)(nil)

type serviceTokenSource struct {
	ctx     context.Context
	svc     *TokenService
	userKey string
}

func (s *serviceTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.svc.validToken(s.ctx, s.userKey)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.ExpiresAt(),
	}, nil
}
