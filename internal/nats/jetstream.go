package natsjs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	// StreamName holds inbox classification events for all users.
	StreamName = "INBOX_EVENTS"
	// SubjectPattern matches every per-user inbox subject.
	SubjectPattern = "user.*.inbox.>"

	defaultPublishTimeout = 5 * time.Second
)

// Publisher publishes run summaries to JetStream.
type Publisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	timeout time.Duration
}

// NewPublisher connects to url and opens a JetStream context. Connection
// state changes are logged; publishes wait at most publishTimeout for an ack.
func NewPublisher(url string, publishTimeout time.Duration, log *zap.Logger) (*Publisher, error) {
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	nc, err := nats.Connect(url,
		nats.Name("inbox-categorizer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}

	js, err := nc.JetStream(nats.MaxWait(publishTimeout))
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	return &Publisher{nc: nc, js: js, timeout: publishTimeout}, nil
}

// StreamConfig describes the inbox event stream. Duplicate msg ids inside the
// window are dropped, which makes outbox retries idempotent.
func StreamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{SubjectPattern},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		Duplicates: 10 * time.Minute,
		MaxAge:     7 * 24 * time.Hour,
	}
}

// EnsureStream creates the stream, or updates it when it exists with a
// different subject set.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	want := StreamConfig()

	info, err := p.js.StreamInfo(StreamName, nats.Context(ctx))
	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		if _, err := p.js.AddStream(want, nats.Context(ctx)); err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return fmt.Errorf("create stream %s: %w", StreamName, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("stream info %s: %w", StreamName, err)
	}

	if sameSubjects(info.Config.Subjects, want.Subjects) {
		return nil
	}
	if _, err := p.js.UpdateStream(want, nats.Context(ctx)); err != nil {
		return fmt.Errorf("update stream %s: %w", StreamName, err)
	}
	return nil
}

func sameSubjects(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Publish sends payload with msgID as the dedup key and waits for the ack.
func (p *Publisher) Publish(subject string, payload []byte, msgID string) error {
	if _, err := p.js.Publish(subject, payload, nats.MsgId(msgID), nats.AckWait(p.timeout)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close closes the connection. Unacked events stay in the outbox.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
