package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/evdms/dealer-console/internal/domain"
)

// StaticToken is the dev/test AuthContext: a fixed bearer token from config.
type StaticToken struct {
	token string
	user  domain.User
}

func NewStaticToken(token string, user domain.User) *StaticToken {
	return &StaticToken{token: token, user: user}
}

func (s *StaticToken) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", domain.ErrUnauthorized
	}
	return s.token, nil
}

func (s *StaticToken) CurrentUser() domain.User { return s.user }

// ClientCredentials fetches and refreshes the upstream bearer token via the
// OAuth2 client-credentials flow. TokenSource caches the token and renews
// it before expiry.
type ClientCredentials struct {
	src  oauth2.TokenSource
	user domain.User
}

func NewClientCredentials(ctx context.Context, clientID, clientSecret, tokenURL string, user domain.User) *ClientCredentials {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return &ClientCredentials{src: cfg.TokenSource(ctx), user: user}
}

func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	t, err := c.src.Token()
	if err != nil {
		return "", fmt.Errorf("oauth token: %v: %w", err, domain.ErrUnauthorized)
	}
	return t.AccessToken, nil
}

func (c *ClientCredentials) CurrentUser() domain.User { return c.user }
