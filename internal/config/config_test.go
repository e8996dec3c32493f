package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_Defaults(t *testing.T) {
	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppConfig.Port)
	assert.Equal(t, "microsoft", cfg.AppConfig.MailProvider)
	assert.Equal(t, "me", cfg.AppConfig.MailboxUser)
	assert.Equal(t, int32(25), cfg.AppConfig.PageSize)
	assert.Equal(t, 15*time.Second, cfg.AppConfig.FetchTimeout)
	assert.Equal(t, "betterauth", cfg.AuthConfig.Mode)
	assert.Equal(t, "info", cfg.Logger.LogLevel)
	assert.False(t, cfg.JournalConfig.Enabled)
}

func TestInitConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAIL_PROVIDER", "google")
	t.Setenv("AUTH_MODE", "static")
	t.Setenv("STATIC_ACCESS_TOKEN", "tok")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("JOURNAL_ENABLED", "true")
	t.Setenv("JWT_ISSUER", "https://auth.example.com")
	t.Setenv("JWT_AUDIENCE", "inbox-api")

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppConfig.Port)
	assert.Equal(t, "google", cfg.AppConfig.MailProvider)
	assert.Equal(t, "tok", cfg.AuthConfig.StaticAccessToken)
	assert.Equal(t, int32(10), cfg.AppConfig.PageSize)
	assert.Equal(t, 3*time.Second, cfg.AppConfig.FetchTimeout)
	assert.True(t, cfg.JournalConfig.Enabled)
	assert.Equal(t, "https://auth.example.com", cfg.AuthConfig.JWTIssuer)
	assert.Equal(t, "inbox-api", cfg.AuthConfig.JWTAudience)
}

func TestInitConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"provider", map[string]string{"MAIL_PROVIDER": "yahoo"}},
		{"auth mode", map[string]string{"AUTH_MODE": "magic"}},
		{"static without token", map[string]string{"AUTH_MODE": "static"}},
		{"client credentials without secret", map[string]string{"AUTH_MODE": "client_credentials", "GRAPH_CLIENT_ID": "id"}},
		{"client credentials without tenant", map[string]string{"AUTH_MODE": "client_credentials", "GRAPH_CLIENT_ID": "id", "GRAPH_CLIENT_SECRET": "s"}},
		{"page size", map[string]string{"PAGE_SIZE": "0"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := InitConfig()
			assert.Error(t, err)
		})
	}
}
