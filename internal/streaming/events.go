package streaming

import "time"

// EventType identifies a honeypot lifecycle event.
type EventType string

const (
	EventScamDetected    EventType = "scam.detected"
	EventReportDelivered EventType = "report.delivered"
	EventReportFailed    EventType = "report.failed"
)

// Event is the envelope published to the stream.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// ScamDetectedData carries details of a freshly flagged session.
type ScamDetectedData struct {
	ScamScore    int      `json:"scamScore"`
	MessageCount int      `json:"messageCount"`
	Tactics      []string `json:"tactics,omitempty"`
}

// ReportOutcomeData carries the result of a finished report delivery.
type ReportOutcomeData struct {
	DeliveryID string `json:"deliveryId"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
}
