package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Martian-dev/inbox-categorizer/internal/api"
	"github.com/Martian-dev/inbox-categorizer/internal/auth"
	"github.com/Martian-dev/inbox-categorizer/internal/config"
	"github.com/Martian-dev/inbox-categorizer/internal/eventstore/sqlite"
	"github.com/Martian-dev/inbox-categorizer/internal/logger"
	natsjs "github.com/Martian-dev/inbox-categorizer/internal/nats"
	"github.com/Martian-dev/inbox-categorizer/internal/pipeline"
	"github.com/Martian-dev/inbox-categorizer/internal/providers/gmail"
	"github.com/Martian-dev/inbox-categorizer/internal/providers/outlook"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}

	logg, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Logger initialization failed: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logg *zap.Logger) error {
	provider, err := pipeline.ParseProvider(cfg.AppConfig.MailProvider)
	if err != nil {
		return err
	}

	var verifier api.Verifier
	if cfg.AuthConfig.JWKSURL != "" {
		v, err := auth.NewJWTVerifier(ctx, cfg.AuthConfig.JWKSURL, auth.VerifierOptions{
			Issuer:   cfg.AuthConfig.JWTIssuer,
			Audience: cfg.AuthConfig.JWTAudience,
		})
		if err != nil {
			return err
		}
		verifier = v
	}

	journal, closeJournal, err := setupJournal(ctx, cfg.JournalConfig, logg)
	if err != nil {
		return err
	}
	defer closeJournal()

	svc, err := pipeline.NewService(pipeline.Options{
		Provider:     provider,
		Tokens:       tokenProvider(cfg.AuthConfig),
		Fetchers:     fetcherFactory(provider, cfg.AppConfig),
		FetchTimeout: cfg.AppConfig.FetchTimeout,
		Journal:      journal,
		Logger:       logg,
	})
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	api.RegisterRoutes(r, svc, verifier, logg)
	if history, ok := journal.(api.History); ok {
		api.RegisterHistoryRoutes(r, history, verifier)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppConfig.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("listening", zap.String("addr", srv.Addr), zap.String("provider", string(provider)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func tokenProvider(cfg *config.AuthConfig) auth.TokenProvider {
	switch cfg.Mode {
	case "client_credentials":
		return auth.NewClientCredentialsProvider(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, cfg.TokenURL)
	case "static":
		return auth.StaticProvider{AccessToken: cfg.StaticAccessToken}
	default:
		return auth.NewBetterAuthClient(cfg.BetterAuthURL)
	}
}

func fetcherFactory(provider pipeline.ProviderName, cfg *config.AppConfig) pipeline.FetcherFactory {
	return func(ctx context.Context, tok *auth.Token) (pipeline.MailFetcher, error) {
		if provider == pipeline.ProviderGoogle {
			return gmail.New(ctx, tok, cfg.MailboxUser, cfg.PageSize)
		}
		return outlook.New(ctx, tok, cfg.MailboxUser, cfg.PageSize)
	}
}

// setupJournal opens the run journal and, with NATS configured, starts the
// outbox dispatcher. The returned func releases both.
func setupJournal(ctx context.Context, cfg *config.JournalConfig, logg *zap.Logger) (pipeline.Journal, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}

	store, err := sqlite.Open(filepath.Join(cfg.DataRoot, "journal.db"))
	if err != nil {
		return nil, nil, err
	}

	if cfg.NatsURL == "" {
		return &pipeline.StoreJournal{Store: store}, func() { store.Close() }, nil
	}

	pub, err := natsjs.NewPublisher(cfg.NatsURL, 0, logg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	if err := pub.EnsureStream(ctx); err != nil {
		pub.Close()
		store.Close()
		return nil, nil, err
	}

	dispatchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		pipeline.NewDispatcher(store, pub, logg).Run(dispatchCtx)
	}()

	closeFn := func() {
		cancel()
		<-done
		pub.Close()
		store.Close()
	}
	return &pipeline.StoreJournal{Store: store, Publish: true}, closeFn, nil
}
