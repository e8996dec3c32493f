package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testIssuer struct {
	key jwk.Key
	srv *httptest.Server
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	priv, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, priv.Set(jwk.KeyIDKey, "test-key"))
	require.NoError(t, priv.Set(jwk.AlgorithmKey, jwa.RS256))

	pub, err := jwk.PublicKeyOf(priv)
	require.NoError(t, err)

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(srv.Close)

	return &testIssuer{key: priv, srv: srv}
}

func (i *testIssuer) sign(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	return i.signFor(t, subject, exp, "https://auth.example.com", "inbox-api")
}

func (i *testIssuer) signFor(t *testing.T, subject string, exp time.Time, iss, aud string) string {
	t.Helper()

	tok := jwt.New()
	require.NoError(t, tok.Set(jwt.SubjectKey, subject))
	require.NoError(t, tok.Set(jwt.ExpirationKey, exp))
	require.NoError(t, tok.Set(jwt.IssuerKey, iss))
	require.NoError(t, tok.Set(jwt.AudienceKey, []string{aud}))
	require.NoError(t, tok.Set("email", "jane@example.com"))
	require.NoError(t, tok.Set("name", "Jane"))

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, i.key))
	require.NoError(t, err)
	return string(signed)
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/messages", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestJWTVerifier_UserFromRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	issuer := newTestIssuer(t)
	v, err := NewJWTVerifier(ctx, issuer.srv.URL, VerifierOptions{})
	require.NoError(t, err)

	user, err := v.UserFromRequest(requestWithToken(issuer.sign(t, "user-1", time.Now().Add(time.Hour))))
	require.NoError(t, err)

	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "Jane", user.Name)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	issuer := newTestIssuer(t)
	other := newTestIssuer(t)
	v, err := NewJWTVerifier(ctx, issuer.srv.URL, VerifierOptions{
		Issuer:   "https://auth.example.com",
		Audience: "inbox-api",
	})
	require.NoError(t, err)

	valid := issuer.sign(t, "user-1", time.Now().Add(time.Hour))
	user, err := v.UserFromRequest(requestWithToken(valid))
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"expired", issuer.sign(t, "user-1", time.Now().Add(-time.Hour))},
		{"no subject", issuer.sign(t, "", time.Now().Add(time.Hour))},
		{"foreign key", other.sign(t, "user-1", time.Now().Add(time.Hour))},
		{"garbage", "not.a.jwt"},
		{"wrong issuer", issuer.signFor(t, "user-1", time.Now().Add(time.Hour), "https://evil.example.com", "inbox-api")},
		{"wrong audience", issuer.signFor(t, "user-1", time.Now().Add(time.Hour), "https://auth.example.com", "billing-api")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.UserFromRequest(requestWithToken(tc.token))
			assert.Error(t, err)
		})
	}
}

func TestNewJWTVerifier_UnreachableJWKS(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := NewJWTVerifier(ctx, srv.URL, VerifierOptions{})
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken(requestWithToken("abc")))
	assert.Equal(t, "", BearerToken(requestWithToken("")))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	assert.Equal(t, "", BearerToken(r))
}
