package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/dialog"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/handlers"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/metrics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/topics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	p, err := modules.New(modules.Dependencies{})
	require.NoError(t, err)
	catalogue, err := topics.NewManager()
	require.NoError(t, err)

	m := metrics.New("test")
	sys, err := dialog.New(p.Services(),
		dialog.WithStore(sessionstore.New(sessionstore.WithReclaimInterval(0))),
		dialog.WithTopics(catalogue),
		dialog.WithMetrics(m),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })

	return New(sys, m, WithTranscripts(p.Transcript), WithTurnRate(100))
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServer_Turns(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/sessions/alice/start", `{"seed":{"user_utterance":""}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(s, http.MethodPost, "/sessions/alice/turns", `{"seed":{"user_utterance":"hello"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		TurnID string         `json:"turn_id"`
		UserID string         `json:"user_id"`
		Values map[string]any `json:"values"`
		Errors []string       `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TurnID)
	assert.Equal(t, "alice", resp.UserID)
	assert.Equal(t, []any{"Hi!"}, resp.Values["sys_utterance"])
	assert.Empty(t, resp.Errors)

	rec = doRequest(s, http.MethodGet, "/sessions/alice/transcript", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"text":"hello"`)

	rec = doRequest(s, http.MethodDelete, "/sessions/alice", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(s, http.MethodGet, "/sessions/alice/transcript", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestServer_TurnValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing seed", `{}`, "validation_failed"},
		{"empty seed", `{"seed":{}}`, "validation_failed"},
		{"malformed json", `{"seed":`, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/sessions/bob/turns", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestServer_Pipeline(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/pipeline", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.PipelineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Findings)
	require.NotEmpty(t, resp.Handlers)
	assert.Equal(t, "nlu.extract", resp.Handlers[0].Name)

	rec = doRequest(s, http.MethodGet, "/pipeline/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "digraph")

	rec = doRequest(s, http.MethodGet, "/pipeline/graph?format=table", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_utterance")

	rec = doRequest(s, http.MethodGet, "/pipeline/graph?format=svg", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, http.MethodPost, "/sessions/carol/turns", `{"seed":{"user_utterance":"hi"}}`)

	rec := doRequest(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_turns_total")
}
