package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// User is the caller identified by a verified JWT.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// VerifierOptions narrows which tokens are accepted. Empty fields are not
// checked.
type VerifierOptions struct {
	Issuer   string
	Audience string
	// MinRefresh bounds how often the JWKS is refetched. Defaults to 5m.
	MinRefresh time.Duration
}

// JWTVerifier checks bearer tokens against a remote JWKS.
type JWTVerifier struct {
	parseOpts []jwt.ParseOption
}

// NewJWTVerifier registers jwksURL with an auto-refreshing cache and fetches
// it once, so a bad URL fails at startup. The cache stops refreshing when ctx
// is done.
func NewJWTVerifier(ctx context.Context, jwksURL string, opts VerifierOptions) (*JWTVerifier, error) {
	if opts.MinRefresh <= 0 {
		opts.MinRefresh = 5 * time.Minute
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(opts.MinRefresh)); err != nil {
		return nil, fmt.Errorf("register JWKS %s: %w", jwksURL, err)
	}

	warmCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := cache.Refresh(warmCtx, jwksURL); err != nil {
		return nil, fmt.Errorf("fetch JWKS %s: %w", jwksURL, err)
	}

	parseOpts := []jwt.ParseOption{
		jwt.WithKeySet(jwk.NewCachedSet(cache, jwksURL)),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(30 * time.Second),
	}
	if opts.Issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(opts.Audience))
	}

	return &JWTVerifier{parseOpts: parseOpts}, nil
}

// UserFromRequest verifies the bearer token on r and returns its subject.
func (v *JWTVerifier) UserFromRequest(r *http.Request) (*User, error) {
	raw := BearerToken(r)
	if raw == "" {
		return nil, fmt.Errorf("missing bearer token")
	}

	token, err := jwt.ParseString(raw, v.parseOpts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if token.Subject() == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &User{
		ID:    token.Subject(),
		Email: stringClaim(token, "email"),
		Name:  stringClaim(token, "name"),
	}, nil
}

func stringClaim(token jwt.Token, name string) string {
	v, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// BearerToken returns the raw token from the Authorization header, if any.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
