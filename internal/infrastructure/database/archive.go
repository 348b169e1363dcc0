package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"honeytrap-lab/internal/callback"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// ReportArchive persists dispatched dossiers for operator audit. It
// records delivery outcomes only; it is not a session store and plays
// no part in the trigger or retry logic.
type ReportArchive struct {
	db     *PostgresDB
	logger *logger.Logger
}

// NewReportArchive creates the archive and ensures its table exists.
func NewReportArchive(ctx context.Context, db *PostgresDB, log *logger.Logger) (*ReportArchive, error) {
	a := &ReportArchive{
		db:     db,
		logger: log.WithComponent("report-archive"),
	}
	if err := a.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate report archive: %w", err)
	}
	return a, nil
}

func (a *ReportArchive) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS report_archive (
	id           BIGSERIAL PRIMARY KEY,
	delivery_id  TEXT NOT NULL,
	session_id   TEXT NOT NULL,
	payload      JSONB NOT NULL,
	success      BOOLEAN NOT NULL,
	attempts     INT NOT NULL,
	error        TEXT,
	archived_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_report_archive_session ON report_archive (session_id);`
	return a.db.Exec(ctx, ddl)
}

// ArchivedReport is one archived delivery outcome.
type ArchivedReport struct {
	DeliveryID string                 `json:"deliveryId"`
	SessionID  string                 `json:"sessionId"`
	Payload    models.CallbackPayload `json:"payload"`
	Success    bool                   `json:"success"`
	Attempts   int                    `json:"attempts"`
	Error      string                 `json:"error,omitempty"`
	ArchivedAt time.Time              `json:"archivedAt"`
}

// Store archives one finished delivery.
func (a *ReportArchive) Store(ctx context.Context, rep *ArchivedReport) error {
	payload, err := json.Marshal(rep.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal archived payload: %w", err)
	}

	const query = `
INSERT INTO report_archive (delivery_id, session_id, payload, success, attempts, error)
VALUES ($1, $2, $3, $4, $5, $6)`
	if err := a.db.Exec(ctx, query, rep.DeliveryID, rep.SessionID, payload, rep.Success, rep.Attempts, rep.Error); err != nil {
		return fmt.Errorf("failed to archive report: %w", err)
	}

	a.logger.Debug().
		Str("session_id", rep.SessionID).
		Bool("success", rep.Success).
		Msg("report archived")
	return nil
}

// DeliveryFinished archives the finished delivery. Implements
// callback.Observer; archive errors are logged, never propagated into
// the delivery path.
func (a *ReportArchive) DeliveryFinished(ctx context.Context, payload *models.CallbackPayload, outcome callback.Outcome) {
	rep := &ArchivedReport{
		DeliveryID: outcome.DeliveryID,
		SessionID:  outcome.SessionID,
		Payload:    *payload,
		Success:    outcome.Success,
		Attempts:   outcome.Attempts,
		Error:      outcome.Error,
	}
	if err := a.Store(ctx, rep); err != nil {
		a.logger.Warn().Err(err).Str("session_id", outcome.SessionID).Msg("failed to archive report")
	}
}

// BySession returns archived reports for one session, newest first.
func (a *ReportArchive) BySession(ctx context.Context, sessionID string) ([]*ArchivedReport, error) {
	const query = `
SELECT delivery_id, session_id, payload, success, attempts, COALESCE(error, ''), archived_at
FROM report_archive
WHERE session_id = $1
ORDER BY archived_at DESC`

	rows, err := a.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query report archive: %w", err)
	}
	defer rows.Close()

	var reports []*ArchivedReport
	for rows.Next() {
		var rep ArchivedReport
		var payload []byte
		if err := rows.Scan(&rep.DeliveryID, &rep.SessionID, &payload, &rep.Success, &rep.Attempts, &rep.Error, &rep.ArchivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archived report: %w", err)
		}
		if err := json.Unmarshal(payload, &rep.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal archived payload: %w", err)
		}
		reports = append(reports, &rep)
	}
	return reports, rows.Err()
}
