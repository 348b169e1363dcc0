package callback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/session"
)

func TestBuildPayload(t *testing.T) {
	payload := BuildPayload(testSession())

	assert.Equal(t, "sess-1", payload.SessionID)
	assert.True(t, payload.ScamDetected)
	assert.Equal(t, 9, payload.TotalMessagesExchanged)
	assert.Equal(t, []string{"123456789012"}, payload.ExtractedIntelligence.BankAccounts)
}

func TestAgentNotesFullSession(t *testing.T) {
	payload := BuildPayload(testSession())

	want := "Detected tactics: Bank: SBI, urgency_tactics. " +
		"Scam confidence score: 85/100. " +
		"Extracted: 1 bank account(s), 1 phone number(s). " +
		"Engaged over 9 messages from 2025-03-01 10:30 UTC"
	assert.Equal(t, want, payload.AgentNotes)
}

func TestAgentNotesOmitsEmptySections(t *testing.T) {
	sess := &session.Session{
		ID:           "sess-2",
		CreatedAt:    time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		MessageCount: 3,
		ScamScore:    20,
	}
	payload := BuildPayload(sess)

	want := "Scam confidence score: 20/100. " +
		"Engaged over 3 messages from 2025-03-01 10:30 UTC"
	assert.Equal(t, want, payload.AgentNotes)
}

func TestAgentNotesTruncatesTactics(t *testing.T) {
	tactics := make([]string, 12)
	for i := range tactics {
		tactics[i] = string(rune('a' + i))
	}
	sess := &session.Session{
		ID:           "sess-3",
		CreatedAt:    time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		MessageCount: 5,
		Tactics:      tactics,
	}
	payload := BuildPayload(sess)

	assert.Contains(t, payload.AgentNotes, "Detected tactics: a, b, c, d, e, f, g, h, i, j.")
	assert.NotContains(t, payload.AgentNotes, "k")
}

func TestAgentNotesAllIntelligenceCategories(t *testing.T) {
	sess := &session.Session{
		ID:           "sess-4",
		CreatedAt:    time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		MessageCount: 12,
		ScamScore:    70,
		Intelligence: models.ExtractedIntelligence{
			BankAccounts:  []string{"123456789012", "987654321098"},
			UPIIDs:        []string{"scammer@ybl"},
			PhoneNumbers:  []string{"+91 9876543210"},
			PhishingLinks: []string{"https://bit.ly/x"},
		},
	}
	payload := BuildPayload(sess)

	assert.Contains(t, payload.AgentNotes, "Extracted: 2 bank account(s), 1 UPI ID(s), 1 phone number(s), 1 URL(s)")
}
