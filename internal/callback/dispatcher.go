package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/session"
	"honeytrap-lab/pkg/logger"
)

// Outcome describes a finished delivery, for observers.
type Outcome struct {
	DeliveryID string
	SessionID  string
	Success    bool
	Attempts   int
	Error      string
}

// Observer is notified after a delivery finishes, win or lose. Used to
// publish events and archive dossiers; must not block for long.
type Observer interface {
	DeliveryFinished(ctx context.Context, payload *models.CallbackPayload, outcome Outcome)
}

// Config contains dispatcher settings.
type Config struct {
	URL            string
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
	Workers        int
	QueueSize      int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		AttemptTimeout: 30 * time.Second,
		Workers:        4,
		QueueSize:      256,
	}
}

type deliveryJob struct {
	deliveryID string
	payload    *models.CallbackPayload
}

// Dispatcher delivers one final report per closed session to the
// configured evaluator endpoint. Delivery is queued and runs detached
// from the triggering request; failures after all attempts are logged
// and surfaced to observers only.
type Dispatcher struct {
	cfg        Config
	httpClient *http.Client
	queue      chan *deliveryJob
	observers  []Observer
	logger     *logger.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}

	delivered atomic.Int64
	failed    atomic.Int64
}

// NewDispatcher creates a dispatcher and starts its delivery workers.
func NewDispatcher(cfg Config, log *logger.Logger, observers ...Observer) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	d := &Dispatcher{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.AttemptTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		queue:     make(chan *deliveryJob, cfg.QueueSize),
		observers: observers,
		logger:    log.WithComponent("callback-dispatcher"),
		stopCh:    make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.deliveryWorker(i)
	}
	d.logger.Info().Int("workers", cfg.Workers).Msg("callback delivery workers started")

	return d
}

// Stop stops the delivery workers. Queued jobs are abandoned.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
	d.logger.Info().Msg("callback dispatcher stopped")
}

// Dispatch queues the session's final report for delivery and returns
// immediately. The caller must already hold the won reported flag.
func (d *Dispatcher) Dispatch(sess *session.Session) {
	job := &deliveryJob{
		deliveryID: uuid.New().String(),
		payload:    BuildPayload(sess),
	}

	select {
	case d.queue <- job:
		d.logger.Debug().
			Str("session_id", sess.ID).
			Str("delivery_id", job.deliveryID).
			Msg("report delivery queued")
	default:
		d.failed.Add(1)
		d.logger.Error().
			Str("session_id", sess.ID).
			Msg("delivery queue full, report dropped")
	}
}

// Send builds and delivers the session's report synchronously, running
// the full retry schedule. Returns whether any attempt succeeded.
func (d *Dispatcher) Send(ctx context.Context, sess *session.Session) bool {
	return d.deliver(ctx, uuid.New().String(), BuildPayload(sess))
}

// Stats returns delivered and failed report counts since start.
func (d *Dispatcher) Stats() (delivered, failed int64) {
	return d.delivered.Load(), d.failed.Load()
}

func (d *Dispatcher) deliveryWorker(id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			d.logger.Debug().Int("worker", id).Msg("callback worker stopping")
			return
		case job := <-d.queue:
			d.deliver(context.Background(), job.deliveryID, job.payload)
		}
	}
}

// deliver runs the bounded retry loop: up to MaxAttempts POSTs, linear
// backoff of attempt*BaseDelay between attempts, no delay after the
// last. 200/201/202 terminate immediately as success.
func (d *Dispatcher) deliver(ctx context.Context, deliveryID string, payload *models.CallbackPayload) bool {
	log := d.logger.WithSessionID(payload.SessionID)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal callback payload")
		d.finish(ctx, payload, Outcome{DeliveryID: deliveryID, SessionID: payload.SessionID, Error: err.Error()})
		return false
	}

	log.Info().
		Str("delivery_id", deliveryID).
		Int("messages", payload.TotalMessagesExchanged).
		Bool("scam_detected", payload.ScamDetected).
		Msg("sending final report")

	var lastErr string
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		ok, errMsg := d.attempt(ctx, body)
		if ok {
			d.delivered.Add(1)
			log.Info().
				Str("delivery_id", deliveryID).
				Int("attempt", attempt).
				Msg("report delivered")
			d.finish(ctx, payload, Outcome{
				DeliveryID: deliveryID,
				SessionID:  payload.SessionID,
				Success:    true,
				Attempts:   attempt,
			})
			return true
		}

		lastErr = errMsg
		log.Warn().
			Str("delivery_id", deliveryID).
			Int("attempt", attempt).
			Str("error", errMsg).
			Msg("report delivery attempt failed")

		if attempt < d.cfg.MaxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * d.cfg.BaseDelay):
			case <-d.stopCh:
				return false
			case <-ctx.Done():
				return false
			}
		}
	}

	d.failed.Add(1)
	log.Error().
		Str("delivery_id", deliveryID).
		Int("attempts", d.cfg.MaxAttempts).
		Msg("all report delivery attempts failed")
	d.finish(ctx, payload, Outcome{
		DeliveryID: deliveryID,
		SessionID:  payload.SessionID,
		Attempts:   d.cfg.MaxAttempts,
		Error:      lastErr,
	})
	return false
}

// attempt performs a single POST. Success is 200, 201 or 202.
func (d *Dispatcher) attempt(ctx context.Context, body []byte) (bool, string) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, d.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return false, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "HoneytrapLab/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, err.Error()
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return true, ""
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
}

func (d *Dispatcher) finish(ctx context.Context, payload *models.CallbackPayload, outcome Outcome) {
	for _, obs := range d.observers {
		obs.DeliveryFinished(ctx, payload, outcome)
	}
}
