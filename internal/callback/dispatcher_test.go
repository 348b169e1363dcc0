package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/session"
	"honeytrap-lab/pkg/logger"
)

func testSession() *session.Session {
	return &session.Session{
		ID:           "sess-1",
		CreatedAt:    time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		MessageCount: 9,
		ScamDetected: true,
		ScamScore:    85,
		Tactics:      []string{"Bank: SBI", "urgency_tactics"},
		Intelligence: models.ExtractedIntelligence{
			BankAccounts: []string{"123456789012"},
			PhoneNumbers: []string{"+91 9876543210"},
		},
	}
}

func testDispatcher(url string, observers ...Observer) *Dispatcher {
	return NewDispatcher(Config{
		URL:            url,
		MaxAttempts:    3,
		BaseDelay:      5 * time.Millisecond,
		AttemptTimeout: 2 * time.Second,
		Workers:        1,
		QueueSize:      4,
	}, logger.NewDefault(), observers...)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (o *recordingObserver) DeliveryFinished(_ context.Context, _ *models.CallbackPayload, outcome Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) last() (Outcome, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.outcomes) == 0 {
		return Outcome{}, false
	}
	return o.outcomes[len(o.outcomes)-1], true
}

func TestSendSucceedsFirstAttempt(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload models.CallbackPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "sess-1", payload.SessionID)
		assert.True(t, payload.ScamDetected)
		assert.Equal(t, 9, payload.TotalMessagesExchanged)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := testDispatcher(srv.URL)
	defer d.Stop()

	ok := d.Send(context.Background(), testSession())
	assert.True(t, ok)
	assert.Equal(t, int32(1), hits.Load())

	delivered, failed := d.Stats()
	assert.Equal(t, int64(1), delivered)
	assert.Equal(t, int64(0), failed)
}

func TestSendAcceptedCountsAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := testDispatcher(srv.URL)
	defer d.Stop()

	assert.True(t, d.Send(context.Background(), testSession()))
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	d := testDispatcher(srv.URL, obs)
	defer d.Stop()

	ok := d.Send(context.Background(), testSession())
	assert.True(t, ok)
	assert.Equal(t, int32(3), hits.Load())

	outcome, found := obs.last()
	require.True(t, found)
	assert.True(t, outcome.Success)
	assert.Equal(t, 3, outcome.Attempts)
}

func TestSendExhaustsAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	d := testDispatcher(srv.URL, obs)
	defer d.Stop()

	ok := d.Send(context.Background(), testSession())
	assert.False(t, ok)
	assert.Equal(t, int32(3), hits.Load())

	_, failed := d.Stats()
	assert.Equal(t, int64(1), failed)

	outcome, found := obs.last()
	require.True(t, found)
	assert.False(t, outcome.Success)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Contains(t, outcome.Error, "HTTP 500")
}

func TestSendUnreachableEndpoint(t *testing.T) {
	d := testDispatcher("http://127.0.0.1:1/callback")
	defer d.Stop()

	assert.False(t, d.Send(context.Background(), testSession()))
}

func TestDispatchDeliversAsynchronously(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer srv.Close()

	d := testDispatcher(srv.URL)
	defer d.Stop()

	d.Dispatch(testSession())

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("queued report was never delivered")
	}
}
