package callback

import (
	"fmt"
	"strings"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/session"
)

// Up to this many tactics are named in the agent notes.
const maxNoteTactics = 10

// BuildPayload derives the final dossier from a session snapshot.
func BuildPayload(sess *session.Session) *models.CallbackPayload {
	return &models.CallbackPayload{
		SessionID:              sess.ID,
		ScamDetected:           sess.ScamDetected,
		TotalMessagesExchanged: sess.MessageCount,
		ExtractedIntelligence:  sess.Intelligence,
		AgentNotes:             generateAgentNotes(sess),
	}
}

// generateAgentNotes summarizes the engagement: leading tactics, the
// confidence score, non-empty intelligence category counts, and the
// engagement span.
func generateAgentNotes(sess *session.Session) string {
	var parts []string

	if len(sess.Tactics) > 0 {
		tactics := sess.Tactics
		if len(tactics) > maxNoteTactics {
			tactics = tactics[:maxNoteTactics]
		}
		parts = append(parts, "Detected tactics: "+strings.Join(tactics, ", "))
	}

	parts = append(parts, fmt.Sprintf("Scam confidence score: %d/100", sess.ScamScore))

	intel := sess.Intelligence
	var items []string
	if len(intel.BankAccounts) > 0 {
		items = append(items, fmt.Sprintf("%d bank account(s)", len(intel.BankAccounts)))
	}
	if len(intel.UPIIDs) > 0 {
		items = append(items, fmt.Sprintf("%d UPI ID(s)", len(intel.UPIIDs)))
	}
	if len(intel.PhoneNumbers) > 0 {
		items = append(items, fmt.Sprintf("%d phone number(s)", len(intel.PhoneNumbers)))
	}
	if len(intel.PhishingLinks) > 0 {
		items = append(items, fmt.Sprintf("%d URL(s)", len(intel.PhishingLinks)))
	}
	if len(items) > 0 {
		parts = append(parts, "Extracted: "+strings.Join(items, ", "))
	}

	parts = append(parts, fmt.Sprintf(
		"Engaged over %d messages from %s UTC",
		sess.MessageCount,
		sess.CreatedAt.UTC().Format("2006-01-02 15:04"),
	))

	return strings.Join(parts, ". ")
}
