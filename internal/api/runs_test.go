package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Martian-dev/inbox-categorizer/internal/auth"
	"github.com/Martian-dev/inbox-categorizer/internal/inbox"
	"github.com/Martian-dev/inbox-categorizer/internal/pipeline"
)

type fakeHistory struct {
	runs []pipeline.Summary
	err  error

	gotUser  string
	gotLimit int
}

func (f *fakeHistory) Recent(ctx context.Context, userID string, limit int) ([]pipeline.Summary, error) {
	f.gotUser = userID
	f.gotLimit = limit
	return f.runs, f.err
}

func newHistoryRouter(h History, verifier Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHistoryRoutes(r, h, verifier)
	return r
}

func TestRuns(t *testing.T) {
	h := &fakeHistory{runs: []pipeline.Summary{{
		RunID:        "r1",
		UserID:       "u1",
		Provider:     pipeline.ProviderMicrosoft,
		Timestamp:    time.Unix(1700000000, 0).UTC(),
		MessageCount: 3,
		Counts:       map[inbox.Category]int{inbox.CategoryInvoice: 3},
	}}}
	r := newHistoryRouter(h, &fakeVerifier{user: &auth.User{ID: "u1"}})

	w := do(r, "/runs", "jwt")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", h.gotUser)
	assert.Equal(t, defaultRunsLimit, h.gotLimit)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "r1", body[0]["runId"])
	assert.Equal(t, "MICROSOFT", body[0]["provider"])
	assert.Equal(t, float64(3), body[0]["messageCount"])
	assert.Equal(t, map[string]any{"Invoice": float64(3)}, body[0]["categories"])
}

func TestRuns_Limit(t *testing.T) {
	h := &fakeHistory{}
	r := newHistoryRouter(h, nil)

	w := do(r, "/runs?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, h.gotLimit)

	for _, q := range []string{"-1", "101", "abc"} {
		w = do(r, "/runs?limit="+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", q)
	}
}

func TestRuns_Errors(t *testing.T) {
	r := newHistoryRouter(&fakeHistory{err: errors.New("disk gone")}, nil)
	assert.Equal(t, http.StatusInternalServerError, do(r, "/runs", "").Code)

	r = newHistoryRouter(&fakeHistory{}, &fakeVerifier{err: errors.New("bad jwt")})
	assert.Equal(t, http.StatusUnauthorized, do(r, "/runs", "x").Code)
}
