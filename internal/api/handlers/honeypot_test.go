package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap-lab/internal/agent"
	"honeytrap-lab/internal/callback"
	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/internal/session"
	"honeytrap-lab/pkg/logger"
)

func newTestAPI(t *testing.T) (http.Handler, *callback.Dispatcher) {
	t.Helper()
	log := logger.NewDefault()

	callbackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(callbackSrv.Close)

	scorer := services.NewScamScorer(40, 5, log)
	extractor := services.NewIntelligenceExtractor(log)
	store := session.NewStore(session.NewMemoryRepository(), 8, 15, log)
	ag := agent.New(agent.NewLLMClient(agent.LLMConfig{}, log), log)
	dispatcher := callback.NewDispatcher(callback.Config{
		URL:            callbackSrv.URL,
		MaxAttempts:    1,
		BaseDelay:      5 * time.Millisecond,
		AttemptTimeout: 2 * time.Second,
		Workers:        1,
		QueueSize:      8,
	}, log)
	engine := services.NewEngine(scorer, extractor, store, ag, dispatcher, nil, log)

	h := NewHoneypotHandler(engine, store, nil, log)

	r := chi.NewRouter()
	r.Post("/message", h.Message)
	r.Get("/sessions/{id}", h.GetSession)
	r.Delete("/sessions/{id}", h.DeleteSession)
	r.Post("/sessions/{id}/report", h.TriggerReport)
	r.Get("/sessions/{id}/reports", h.ListReports)
	return r, dispatcher
}

func TestMessageEndpoint(t *testing.T) {
	api, dispatcher := newTestAPI(t)
	defer dispatcher.Stop()

	body := `{"sessionId": "s1", "message": "your account is blocked, share otp urgent"}`
	req := httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.Reply)
}

func TestMessageEndpointRejectsBadRequests(t *testing.T) {
	api, dispatcher := newTestAPI(t)
	defer dispatcher.Stop()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{oops`},
		{"missing session id", `{"message": "hi"}`},
		{"missing message", `{"sessionId": "s1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			api.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetSessionEndpoint(t *testing.T) {
	api, dispatcher := newTestAPI(t)
	defer dispatcher.Stop()

	body := `{"sessionId": "s1", "message": "transfer to 123456789012"}`
	req := httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(body))
	api.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var sess session.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, 2, sess.MessageCount)
	assert.Equal(t, []string{"123456789012"}, sess.Intelligence.BankAccounts)
}

func TestGetSessionNotFound(t *testing.T) {
	api, dispatcher := newTestAPI(t)
	defer dispatcher.Stop()

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSessionEndpoint(t *testing.T) {
	api, dispatcher := newTestAPI(t)
	defer dispatcher.Stop()

	body := `{"sessionId": "s1", "message": "hello"}`
	api.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(body)))

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/s1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/s1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerReportEndpoint(t *testing.T) {
	api, dispatcher := newTestAPI(t)
	defer dispatcher.Stop()

	body := `{"sessionId": "s1", "message": "your account is blocked, share otp urgent"}`
	api.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(body)))

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/s1/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "report_triggered", resp["status"])
	assert.Equal(t, "s1", resp["sessionId"])

	// The reported flag is one-way; a second trigger conflicts.
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/s1/report", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTriggerReportNotFound(t *testing.T) {
	api, dispatcher := newTestAPI(t)
	defer dispatcher.Stop()

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/nope/report", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReportsWithoutArchive(t *testing.T) {
	api, dispatcher := newTestAPI(t)
	defer dispatcher.Stop()

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/s1/reports", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
