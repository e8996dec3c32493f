package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Martian-dev/inbox-categorizer/internal/auth"
	"github.com/Martian-dev/inbox-categorizer/internal/inbox"
	"github.com/Martian-dev/inbox-categorizer/internal/pipeline"
)

type fakeRunner struct {
	res *pipeline.Result
	err error
	got pipeline.Request
}

func (f *fakeRunner) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.got = req
	return f.res, f.err
}

type fakeVerifier struct {
	user *auth.User
	err  error
}

func (f *fakeVerifier) UserFromRequest(r *http.Request) (*auth.User, error) {
	return f.user, f.err
}

func newRouter(runner Runner, verifier Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, runner, verifier, zap.NewNop())
	return r
}

func do(r http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleResult() *pipeline.Result {
	msgs := inbox.ClassifyAll([]inbox.RawMessage{
		{
			ID:               "1",
			Sender:           inbox.Sender{EmailAddress: inbox.EmailAddress{Name: "Acme", Address: "billing@acme.test"}},
			Subject:          "Invoice and Supplier update",
			BodyPreview:      "supplier invoice supplier",
			ReceivedDateTime: "2024-03-01T09:30:00Z",
		},
		{ID: "2", Subject: "Let's catch up", BodyPreview: "How are you doing?"},
	})
	return &pipeline.Result{RunID: "run", Messages: msgs, Groups: inbox.Group(msgs)}
}

func TestHealth(t *testing.T) {
	w := do(newRouter(&fakeRunner{}, nil), "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListMessages(t *testing.T) {
	runner := &fakeRunner{res: sampleResult()}
	w := do(newRouter(runner, nil), "/messages", "user-jwt")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-jwt", runner.got.UserJWT)
	assert.JSONEq(t, `[
		{"id":"1","category":"Supplier","confidence":0.6,"receivedDateTime":"2024-03-01T09:30:00Z",
		 "subject":"Invoice and Supplier update","bodyPreview":"supplier invoice supplier",
		 "senderName":"Acme","senderAddress":"billing@acme.test"},
		{"id":"2","category":"Other","confidence":0,"receivedDateTime":"",
		 "subject":"Let's catch up","bodyPreview":"How are you doing?",
		 "senderName":"","senderAddress":""}
	]`, w.Body.String())
}

func TestListMessages_Empty(t *testing.T) {
	runner := &fakeRunner{res: &pipeline.Result{Messages: inbox.ClassifyAll(nil), Groups: inbox.Group(nil)}}

	w := do(newRouter(runner, nil), "/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(newRouter(runner, nil), "/messages/groups", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGroups(t *testing.T) {
	w := do(newRouter(&fakeRunner{res: sampleResult()}, nil), "/messages/groups", "")
	require.Equal(t, http.StatusOK, w.Code)

	var groups []struct {
		Category string `json:"category"`
		Count    int    `json:"count"`
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "Supplier", groups[0].Category)
	assert.Equal(t, 1, groups[0].Count)
	assert.Equal(t, "1", groups[0].Messages[0].ID)
	assert.Equal(t, "Other", groups[1].Category)
}

func TestMessages_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"auth", &pipeline.Error{Kind: pipeline.ErrUpstreamAuth, Err: errors.New("x")}, http.StatusBadGateway},
		{"fetch", &pipeline.Error{Kind: pipeline.ErrUpstreamFetch, Err: errors.New("x")}, http.StatusBadGateway},
		{"malformed", &pipeline.Error{Kind: pipeline.ErrMalformedInput, Err: errors.New("x")}, http.StatusInternalServerError},
		{"other", errors.New("x"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := do(newRouter(&fakeRunner{err: tc.err}, nil), "/messages", "")
			assert.Equal(t, tc.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMessages_Authentication(t *testing.T) {
	runner := &fakeRunner{res: sampleResult()}

	w := do(newRouter(runner, &fakeVerifier{err: errors.New("bad")}), "/messages", "x")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(newRouter(runner, &fakeVerifier{user: &auth.User{ID: "u1"}}), "/messages", "x")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", runner.got.UserID)
	assert.Equal(t, "x", runner.got.UserJWT)

	// health stays public
	w = do(newRouter(runner, &fakeVerifier{err: errors.New("bad")}), "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
