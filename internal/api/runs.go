package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Martian-dev/inbox-categorizer/internal/pipeline"
)

const defaultRunsLimit = 20

// History lists recorded run summaries.
type History interface {
	Recent(ctx context.Context, userID string, limit int) ([]pipeline.Summary, error)
}

type runsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// RegisterHistoryRoutes exposes GET /runs for the caller's recent runs.
func RegisterHistoryRoutes(r *gin.Engine, history History, verifier Verifier) {
	r.GET("/runs", Authenticate(verifier), func(c *gin.Context) {
		var q runsQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if q.Limit == 0 {
			q.Limit = defaultRunsLimit
		}

		runs, err := history.Recent(c.Request.Context(), c.GetString(ctxUserID), q.Limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, runs)
	})
}
