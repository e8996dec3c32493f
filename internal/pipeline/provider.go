package pipeline

import (
	"context"
	"fmt"

	"github.com/Martian-dev/inbox-categorizer/internal/auth"
	"github.com/Martian-dev/inbox-categorizer/internal/inbox"
)

// ProviderName represents email provider types
type ProviderName string

const (
	ProviderGoogle    ProviderName = "GOOGLE"
	ProviderMicrosoft ProviderName = "MICROSOFT"
)

// ParseProvider maps a config value ("microsoft", "google") to a ProviderName.
func ParseProvider(s string) (ProviderName, error) {
	switch s {
	case "microsoft":
		return ProviderMicrosoft, nil
	case "google":
		return ProviderGoogle, nil
	default:
		return "", fmt.Errorf("unsupported provider %q", s)
	}
}

// AuthProvider returns the OAuth provider that issues tokens for p.
func (p ProviderName) AuthProvider() (auth.Provider, error) {
	switch p {
	case ProviderGoogle:
		return auth.ProviderGoogle, nil
	case ProviderMicrosoft:
		return auth.ProviderMicrosoft, nil
	default:
		return "", fmt.Errorf("unsupported provider %q", p)
	}
}

// MailFetcher reads one page of inbox messages, drafts excluded.
type MailFetcher interface {
	FetchInbox(ctx context.Context) ([]inbox.RawMessage, error)
}

// FetcherFactory creates a MailFetcher bound to an access token.
type FetcherFactory func(ctx context.Context, token *auth.Token) (MailFetcher, error)
