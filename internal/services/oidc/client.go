package oidc

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ticvision/ticvision/internal/models"
)

// Client wraps OAuth2 client functionality for a configured provider
type Client struct {
	config *oauth2.Config
}

// NewClient creates a new OAuth2 client from OIDC config.
// Endpoints from discovery override the issuer-derived defaults when provided.
func NewClient(oidcConfig *models.OIDCConfig, discovery *Discovery) *Client {
	issuer := strings.TrimSuffix(oidcConfig.Issuer, "/")
	endpoint := oauth2.Endpoint{
		AuthURL:  issuer + "/oauth2/authorize",
		TokenURL: issuer + "/oauth2/token",
	}
	if discovery != nil {
		if discovery.AuthorizationEndpoint != "" {
			endpoint.AuthURL = discovery.AuthorizationEndpoint
		}
		if discovery.TokenEndpoint != "" {
			endpoint.TokenURL = discovery.TokenEndpoint
		}
	}

	return &Client{config: &oauth2.Config{
		ClientID:     oidcConfig.ClientID,
		ClientSecret: secretOf(oidcConfig),
		RedirectURL:  oidcConfig.RedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     endpoint,
	}}
}

func secretOf(c *models.OIDCConfig) string {
	if c.ClientSecret == nil {
		return ""
	}
	return *c.ClientSecret
}

// AuthCodeURL returns the authorization URL
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for tokens
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}

// ClientCredentialsToken requests a token with the client credentials grant.
// The configure CLI uses it to prove the stored client ID and secret are accepted.
func (c *Client) ClientCredentialsToken(ctx context.Context) (*oauth2.Token, error) {
	if c.config.ClientSecret == "" {
		return nil, fmt.Errorf("client credentials grant requires a client secret")
	}
	cc := &clientcredentials.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		TokenURL:     c.config.Endpoint.TokenURL,
	}
	token, err := cc.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("client credentials token: %w", err)
	}
	return token, nil
}
