package streaming

import (
	"context"

	"honeytrap-lab/internal/callback"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// DeliveryEvents publishes report delivery outcomes to the stream.
// Implements callback.Observer.
type DeliveryEvents struct {
	pub    *NATSPublisher
	logger *logger.Logger
}

// NewDeliveryEvents creates the observer.
func NewDeliveryEvents(pub *NATSPublisher, log *logger.Logger) *DeliveryEvents {
	return &DeliveryEvents{
		pub:    pub,
		logger: log.WithComponent("delivery-events"),
	}
}

// DeliveryFinished publishes report.delivered or report.failed.
func (d *DeliveryEvents) DeliveryFinished(ctx context.Context, payload *models.CallbackPayload, outcome callback.Outcome) {
	eventType := EventReportDelivered
	if !outcome.Success {
		eventType = EventReportFailed
	}

	err := d.pub.Publish(ctx, eventType, outcome.SessionID, ReportOutcomeData{
		DeliveryID: outcome.DeliveryID,
		Attempts:   outcome.Attempts,
		Error:      outcome.Error,
	})
	if err != nil {
		d.logger.Warn().Err(err).Str("session_id", outcome.SessionID).Msg("failed to publish delivery event")
	}
}
