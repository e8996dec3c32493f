package auth

import (
	"context"
	"time"
)

// Provider represents OAuth providers
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
)

// Token represents OAuth tokens
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// TokenProvider hands out mail provider access tokens. userJWT is the caller's
// bearer token; providers that act on behalf of the application ignore it.
type TokenProvider interface {
	GetToken(ctx context.Context, userJWT string, provider Provider) (*Token, error)
}

// StaticProvider always returns the same access token.
type StaticProvider struct {
	AccessToken string
}

func (p StaticProvider) GetToken(ctx context.Context, userJWT string, provider Provider) (*Token, error) {
	return &Token{AccessToken: p.AccessToken}, nil
}
