package gmail

import (
	"context"
	"fmt"
	"html"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/Martian-dev/inbox-categorizer/internal/auth"
	"github.com/Martian-dev/inbox-categorizer/internal/inbox"
)

// Adapter reads a user's Gmail inbox.
type Adapter struct {
	svc      *gmail.Service
	user     string
	pageSize int64
}

// New creates a Gmail adapter for user ("me" for the token owner).
func New(ctx context.Context, tok *auth.Token, user string, pageSize int32, opts ...option.ClientOption) (*Adapter, error) {
	oauth2Token := &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}

	config := &oauth2.Config{
		Scopes: []string{gmail.GmailReadonlyScope},
	}

	httpClient := config.Client(ctx, oauth2Token)

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Adapter{svc: svc, user: user, pageSize: int64(pageSize)}, nil
}

// FetchInbox returns the newest inbox messages, drafts excluded, one page only.
func (a *Adapter) FetchInbox(ctx context.Context) ([]inbox.RawMessage, error) {
	list, err := a.svc.Users.Messages.List(a.user).
		LabelIds("INBOX").
		Q("-in:drafts").
		IncludeSpamTrash(false).
		MaxResults(a.pageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	msgs := make([]inbox.RawMessage, 0, len(list.Messages))
	for _, m := range list.Messages {
		meta, err := a.svc.Users.Messages.Get(a.user, m.Id).
			Format("metadata").
			MetadataHeaders("Subject", "From").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", m.Id, err)
		}
		msgs = append(msgs, normalize(meta))
	}

	return msgs, nil
}

// normalize converts Gmail message to RawMessage. Gmail escapes HTML
// entities in snippets; the preview is plain text.
func normalize(m *gmail.Message) inbox.RawMessage {
	headers := make(map[string]string)
	if m.Payload != nil {
		for _, kv := range m.Payload.Headers {
			headers[strings.ToLower(kv.Name)] = kv.Value
		}
	}

	msg := inbox.RawMessage{
		ID:          m.Id,
		Subject:     headers["subject"],
		BodyPreview: html.UnescapeString(m.Snippet),
	}
	if m.InternalDate > 0 {
		msg.ReceivedDateTime = time.UnixMilli(m.InternalDate).UTC().Format(time.RFC3339)
	}
	msg.Sender.EmailAddress = parseFrom(headers["from"])

	return msg
}

// parseFrom splits a From header into display name and address. Unparsable
// values are kept whole as the address.
func parseFrom(s string) inbox.EmailAddress {
	s = strings.TrimSpace(s)
	if s == "" {
		return inbox.EmailAddress{}
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return inbox.EmailAddress{Address: s}
	}
	return inbox.EmailAddress{Name: addr.Name, Address: addr.Address}
}
