package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Martian-dev/inbox-categorizer/internal/auth"
	"github.com/Martian-dev/inbox-categorizer/internal/inbox"
)

// Request identifies who the inbox belongs to.
type Request struct {
	UserID  string
	UserJWT string
}

// Result is one complete fetch, classify and group pass.
type Result struct {
	RunID    string
	Messages []inbox.ClassifiedMessage
	Groups   []inbox.CategoryGroup
}

// Options configures a Service. Journal is optional.
type Options struct {
	Provider     ProviderName
	Tokens       auth.TokenProvider
	Fetchers     FetcherFactory
	FetchTimeout time.Duration
	Journal      Journal
	Logger       *zap.Logger
}

// Service runs the inbox classification pipeline.
type Service struct {
	provider ProviderName
	tokens   auth.TokenProvider
	fetchers FetcherFactory
	timeout  time.Duration
	journal  Journal
	log      *zap.Logger
	validate *validator.Validate
}

func NewService(opts Options) (*Service, error) {
	if opts.Tokens == nil || opts.Fetchers == nil {
		return nil, fmt.Errorf("token provider and fetcher factory are required")
	}
	if _, err := opts.Provider.AuthProvider(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		provider: opts.Provider,
		tokens:   opts.Tokens,
		fetchers: opts.Fetchers,
		timeout:  opts.FetchTimeout,
		journal:  opts.Journal,
		log:      log,
		validate: validator.New(),
	}, nil
}

// Run fetches the user's inbox and classifies every message. Any failure
// aborts the whole batch; no partial result is returned.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	log := s.log.With(
		zap.String("run_id", runID),
		zap.String("user_id", req.UserID),
		zap.String("provider", string(s.provider)),
	)
	started := time.Now()

	raw, err := s.fetch(ctx, req)
	if err != nil {
		log.Error("inbox fetch failed", zap.Error(err))
		return nil, err
	}

	for i := range raw {
		if err := s.validate.Struct(raw[i]); err != nil {
			err = fail(ErrMalformedInput, err, fmt.Sprintf("message %d", i))
			log.Error("inbox message rejected", zap.Error(err))
			return nil, err
		}
	}

	classified := inbox.ClassifyAll(raw)
	groups := inbox.Group(classified)

	log.Info("inbox classified",
		zap.Int("messages", len(classified)),
		zap.Int("groups", len(groups)),
		zap.Duration("took", time.Since(started)),
	)

	if s.journal != nil {
		summary := Summary{
			RunID:        runID,
			UserID:       req.UserID,
			Provider:     s.provider,
			Timestamp:    started,
			MessageCount: len(classified),
			Counts:       inbox.Counts(groups),
		}
		if err := s.journal.Record(ctx, summary); err != nil {
			log.Warn("journal record failed", zap.Error(err))
		}
	}

	return &Result{
		RunID:    runID,
		Messages: classified,
		Groups:   groups,
	}, nil
}

func (s *Service) fetch(ctx context.Context, req Request) ([]inbox.RawMessage, error) {
	authProvider, _ := s.provider.AuthProvider()

	// the timeout covers token acquisition as well as the fetch
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tok, err := s.tokens.GetToken(ctx, req.UserJWT, authProvider)
	if err != nil {
		return nil, fail(ErrUpstreamAuth, err, "get token")
	}

	fetcher, err := s.fetchers(ctx, tok)
	if err != nil {
		return nil, fail(ErrUpstreamFetch, err, "create fetcher")
	}

	raw, err := fetcher.FetchInbox(ctx)
	if err != nil {
		return nil, fail(ErrUpstreamFetch, err, "fetch inbox")
	}
	return raw, nil
}
