package services

import (
	"context"

	"honeytrap-lab/internal/agent"
	"honeytrap-lab/internal/callback"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/session"
	"honeytrap-lab/internal/streaming"
	"honeytrap-lab/pkg/logger"
)

// EventPublisher publishes honeypot lifecycle events. Optional; a nil
// publisher disables events.
type EventPublisher interface {
	Publish(ctx context.Context, eventType streaming.EventType, sessionID string, data any) error
}

// Engine orchestrates one message through the honeypot pipeline:
// score, extract, update session, generate the engagement reply, and
// fire the one-time report when the session has produced enough
// evidence.
type Engine struct {
	scorer     *ScamScorer
	extractor  *IntelligenceExtractor
	store      *session.Store
	agent      *agent.Agent
	dispatcher *callback.Dispatcher
	events     EventPublisher
	logger     *logger.Logger
}

// NewEngine wires the honeypot pipeline. events may be nil.
func NewEngine(
	scorer *ScamScorer,
	extractor *IntelligenceExtractor,
	store *session.Store,
	ag *agent.Agent,
	dispatcher *callback.Dispatcher,
	events EventPublisher,
	log *logger.Logger,
) *Engine {
	return &Engine{
		scorer:     scorer,
		extractor:  extractor,
		store:      store,
		agent:      ag,
		dispatcher: dispatcher,
		events:     events,
		logger:     log.WithComponent("engine"),
	}
}

// Process handles one inbound attacker message and returns the
// engagement reply. The reply generation runs outside the session's
// critical section; only the append re-enters it.
func (e *Engine) Process(ctx context.Context, sessionID string, msg models.Message, history []models.Message) (string, error) {
	result := e.scorer.Analyze(msg, history)

	intel := e.extractor.Extract(msg)
	if len(history) > 0 {
		intel = intel.Merge(e.extractor.ExtractFromHistory(history))
	}

	tactics := deriveTactics(result)

	sess, newlyFlagged := e.store.Update(sessionID, msg, intel, result.IsScam, result.ConfidenceScore, tactics)

	if newlyFlagged && e.events != nil {
		go func(sess *session.Session) {
			if err := e.events.Publish(context.Background(), streaming.EventScamDetected, sess.ID, streaming.ScamDetectedData{
				ScamScore:    sess.ScamScore,
				MessageCount: sess.MessageCount,
				Tactics:      sess.Tactics,
			}); err != nil {
				e.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to publish scam detected event")
			}
		}(sess)
	}

	reply := e.agent.GenerateReply(ctx, msg, sess)
	e.store.AppendAgentReply(sessionID, reply)

	e.maybeReport(sessionID)

	return reply, nil
}

// TriggerReport forces the report for a session, honoring the same
// one-way reported flag as the automatic path.
func (e *Engine) TriggerReport(sessionID string) (*session.Session, error) {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Reported {
		return nil, session.ErrAlreadyReported
	}
	if !e.store.MarkReported(sessionID) {
		return nil, session.ErrAlreadyReported
	}

	// Re-read so the dispatched dossier carries the closed state.
	sess, err = e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	e.dispatcher.Dispatch(sess)
	return sess, nil
}

// maybeReport runs the trigger check and, if this call wins the
// open -> closed transition, queues the one-time report.
func (e *Engine) maybeReport(sessionID string) {
	if !e.store.ShouldTriggerReport(sessionID) {
		return
	}
	if !e.store.MarkReported(sessionID) {
		return
	}

	sess, err := e.store.Get(sessionID)
	if err != nil {
		e.logger.Error().Err(err).Str("session_id", sessionID).Msg("session vanished after winning report transition")
		return
	}

	e.logger.Info().
		Str("session_id", sessionID).
		Int("messages", sess.MessageCount).
		Int("scam_score", sess.ScamScore).
		Msg("triggering final report")

	e.dispatcher.Dispatch(sess)
}

// Stats aggregates the per-process engine counters.
type Stats struct {
	ActiveSessions   int   `json:"activeSessions"`
	MessagesAnalyzed int64 `json:"messagesAnalyzed"`
	ScamsFlagged     int64 `json:"scamsFlagged"`
	ReportsDelivered int64 `json:"reportsDelivered"`
	ReportsFailed    int64 `json:"reportsFailed"`
}

// Stats returns the engine counters.
func (e *Engine) Stats() Stats {
	analyzed, flagged := e.scorer.Stats()
	delivered, failed := e.dispatcher.Stats()
	return Stats{
		ActiveSessions:   e.store.Count(),
		MessagesAnalyzed: analyzed,
		ScamsFlagged:     flagged,
		ReportsDelivered: delivered,
		ReportsFailed:    failed,
	}
}

// deriveTactics folds the detection result into the session's tactic
// set: impersonation hits verbatim, plus sentinel markers for threat
// and urgency signals.
func deriveTactics(result models.ScamDetectionResult) []string {
	var tactics []string
	tactics = append(tactics, result.ImpersonationIndicators...)
	if len(result.ThreatIndicators) > 0 {
		tactics = append(tactics, "threat_detected")
	}
	if len(result.UrgencyIndicators) > 0 {
		tactics = append(tactics, "urgency_tactics")
	}
	return tactics
}
