package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const graphDefaultScope = "https://graph.microsoft.com/.default"

// ClientCredentialsProvider acquires app-only tokens for Microsoft Graph.
// Tokens are cached until shortly before expiry.
type ClientCredentialsProvider struct {
	cfg    *clientcredentials.Config
	client *http.Client

	mu  sync.Mutex
	tok *oauth2.Token
}

// NewClientCredentialsProvider builds a provider for the given Entra tenant.
// tokenURL overrides the endpoint derived from tenantID when non-empty.
func NewClientCredentialsProvider(tenantID, clientID, clientSecret, tokenURL string) *ClientCredentialsProvider {
	if tokenURL == "" {
		tokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID)
	}
	return &ClientCredentialsProvider{
		cfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{graphDefaultScope},
		},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetToken returns the cached token or requests a new one. The request is
// bound to ctx; the lock is not held while it is in flight.
func (p *ClientCredentialsProvider) GetToken(ctx context.Context, userJWT string, provider Provider) (*Token, error) {
	if provider != ProviderMicrosoft {
		return nil, fmt.Errorf("client credentials unsupported for %s", provider)
	}

	p.mu.Lock()
	tok := p.tok
	p.mu.Unlock()

	if !tok.Valid() {
		fresh, err := p.cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, p.client))
		if err != nil {
			return nil, fmt.Errorf("client credentials token: %w", err)
		}
		p.mu.Lock()
		p.tok = fresh
		p.mu.Unlock()
		tok = fresh
	}

	return &Token{
		AccessToken: tok.AccessToken,
		Expiry:      tok.Expiry,
	}, nil
}
