package outlook

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"github.com/Martian-dev/inbox-categorizer/internal/auth"
	"github.com/Martian-dev/inbox-categorizer/internal/inbox"
)

var messageFields = []string{"id", "subject", "sender", "from", "bodyPreview", "receivedDateTime"}

// Adapter reads a user's Outlook inbox through Microsoft Graph.
type Adapter struct {
	client   *msgraphsdk.GraphServiceClient
	user     string
	pageSize int32
}

// New creates an adapter for user ("me" for delegated tokens).
func New(ctx context.Context, tok *auth.Token, user string, pageSize int32) (*Adapter, error) {
	cred := &staticTokenCredential{token: tok.AccessToken, expiry: tok.Expiry}

	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Graph client: %w", err)
	}

	return &Adapter{
		client:   client,
		user:     user,
		pageSize: pageSize,
	}, nil
}

// FetchInbox returns the newest non-draft messages, one page only.
func (a *Adapter) FetchInbox(ctx context.Context) ([]inbox.RawMessage, error) {
	requestConfig := &users.ItemMessagesRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.ItemMessagesRequestBuilderGetQueryParameters{
			Top:     Int32Ptr(a.pageSize),
			Filter:  StringPtr("isDraft eq false"),
			Orderby: []string{"receivedDateTime desc"},
			Select:  messageFields,
		},
	}

	result, err := a.client.Users().ByUserId(a.user).Messages().Get(ctx, requestConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	values := result.GetValue()
	msgs := make([]inbox.RawMessage, 0, len(values))
	for _, m := range values {
		if m == nil {
			continue
		}
		msgs = append(msgs, normalizeOutlook(m))
	}
	return msgs, nil
}

// normalizeOutlook converts a Graph message to a RawMessage. The sender
// falls back to from when Graph omits it.
func normalizeOutlook(m models.Messageable) inbox.RawMessage {
	var msg inbox.RawMessage

	if id := m.GetId(); id != nil {
		msg.ID = *id
	}

	if subject := m.GetSubject(); subject != nil {
		msg.Subject = *subject
	}

	if preview := m.GetBodyPreview(); preview != nil {
		msg.BodyPreview = *preview
	}

	if rcvd := m.GetReceivedDateTime(); rcvd != nil {
		msg.ReceivedDateTime = rcvd.UTC().Format(time.RFC3339)
	}

	from := m.GetSender()
	if from == nil || from.GetEmailAddress() == nil {
		from = m.GetFrom()
	}
	if from != nil {
		if emailAddr := from.GetEmailAddress(); emailAddr != nil {
			if name := emailAddr.GetName(); name != nil {
				msg.Sender.EmailAddress.Name = *name
			}
			if addr := emailAddr.GetAddress(); addr != nil {
				msg.Sender.EmailAddress.Address = *addr
			}
		}
	}

	return msg
}

// staticTokenCredential implements Azure credential interface
type staticTokenCredential struct {
	token  string
	expiry time.Time
}

func (c *staticTokenCredential) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	expiry := c.expiry
	if expiry.IsZero() {
		expiry = time.Now().Add(1 * time.Hour)
	}
	return azcore.AccessToken{
		Token:     c.token,
		ExpiresOn: expiry,
	}, nil
}

// Int32Ptr returns a pointer to an int32
func Int32Ptr(i int32) *int32 {
	return &i
}

// StringPtr returns a pointer to a string
func StringPtr(s string) *string {
	return &s
}
