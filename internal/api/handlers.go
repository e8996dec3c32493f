package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Martian-dev/inbox-categorizer/internal/auth"
	"github.com/Martian-dev/inbox-categorizer/internal/pipeline"
)

// Runner executes one classification pass.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Verifier authenticates inbound requests.
type Verifier interface {
	UserFromRequest(r *http.Request) (*auth.User, error)
}

// RegisterRoutes sets up all API endpoints. verifier may be nil, in which
// case requests are not authenticated.
func RegisterRoutes(r *gin.Engine, runner Runner, verifier Verifier, log *zap.Logger) {
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &messagesHandler{runner: runner, log: log}

	messages := r.Group("/messages")
	messages.Use(Authenticate(verifier))
	{
		messages.GET("", h.list)
		messages.GET("/groups", h.groups)
	}
}

type messagesHandler struct {
	runner Runner
	log    *zap.Logger
}

func (h *messagesHandler) list(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res.Messages)
}

func (h *messagesHandler) groups(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res.Groups)
}

func (h *messagesHandler) run(c *gin.Context) (*pipeline.Result, bool) {
	req := pipeline.Request{
		UserID:  c.GetString(ctxUserID),
		UserJWT: auth.BearerToken(c.Request),
	}

	res, err := h.runner.Run(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return nil, false
	}
	return res, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrUpstreamAuth), errors.Is(err, pipeline.ErrUpstreamFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
