package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/Martian-dev/inbox-categorizer/internal/logger"
)

type AppConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	MailProvider string        `env:"MAIL_PROVIDER" envDefault:"microsoft"`
	MailboxUser  string        `env:"MAILBOX_USER" envDefault:"me"`
	PageSize     int32         `env:"PAGE_SIZE" envDefault:"25"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"15s"`
}

type AuthConfig struct {
	Mode              string `env:"AUTH_MODE" envDefault:"betterauth"`
	BetterAuthURL     string `env:"BETTER_AUTH_URL" envDefault:"http://localhost:3000"`
	JWKSURL           string `env:"JWKS_URL"`
	JWTIssuer         string `env:"JWT_ISSUER"`
	JWTAudience       string `env:"JWT_AUDIENCE"`
	TenantID          string `env:"GRAPH_TENANT_ID"`
	ClientID          string `env:"GRAPH_CLIENT_ID"`
	ClientSecret      string `env:"GRAPH_CLIENT_SECRET"`
	TokenURL          string `env:"OAUTH_TOKEN_URL"`
	StaticAccessToken string `env:"STATIC_ACCESS_TOKEN"`
}

type JournalConfig struct {
	Enabled  bool   `env:"JOURNAL_ENABLED" envDefault:"false"`
	DataRoot string `env:"DATA_ROOT" envDefault:"data"`
	NatsURL  string `env:"NATS_URL"`
}

type Config struct {
	AppConfig     *AppConfig
	AuthConfig    *AuthConfig
	JournalConfig *JournalConfig
	Logger        *logger.Config
}

// InitConfig reads .env (when present) and the process environment.
func InitConfig() (*Config, error) {
	cfg := &Config{
		AppConfig:     &AppConfig{},
		AuthConfig:    &AuthConfig{},
		JournalConfig: &JournalConfig{},
		Logger:        &logger.Config{},
	}

	// a missing .env file is normal outside local development
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AppConfig.MailProvider {
	case "microsoft", "google":
	default:
		return fmt.Errorf("unsupported MAIL_PROVIDER %q", c.AppConfig.MailProvider)
	}

	switch c.AuthConfig.Mode {
	case "betterauth":
	case "client_credentials":
		if c.AuthConfig.ClientID == "" || c.AuthConfig.ClientSecret == "" {
			return fmt.Errorf("client_credentials requires GRAPH_CLIENT_ID and GRAPH_CLIENT_SECRET")
		}
		if c.AuthConfig.TenantID == "" && c.AuthConfig.TokenURL == "" {
			return fmt.Errorf("client_credentials requires GRAPH_TENANT_ID or OAUTH_TOKEN_URL")
		}
	case "static":
		if c.AuthConfig.StaticAccessToken == "" {
			return fmt.Errorf("static auth requires STATIC_ACCESS_TOKEN")
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q", c.AuthConfig.Mode)
	}

	if c.AppConfig.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive")
	}
	return nil
}
