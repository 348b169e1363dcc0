package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

func newTestScorer() *ScamScorer {
	return NewScamScorer(40, 5, logger.NewDefault())
}

func TestAnalyzeScamMessage(t *testing.T) {
	s := newTestScorer()

	result := s.Analyze(models.NewAttackerMessage("Your account is blocked, pay now urgent otp verify"), nil)

	// keywords saturate at 30, urgency "urgent" adds 10, threat
	// "blocked" adds 10, no impersonation.
	assert.Equal(t, 50, result.ConfidenceScore)
	assert.True(t, result.IsScam)
	assert.Equal(t, []string{"urgent"}, result.UrgencyIndicators)
	assert.Contains(t, result.ThreatIndicators, "blocked")
	assert.Empty(t, result.ImpersonationIndicators)
	assert.GreaterOrEqual(t, len(result.DetectedKeywords), 6)
}

func TestAnalyzeBenignMessage(t *testing.T) {
	s := newTestScorer()

	result := s.Analyze(models.NewAttackerMessage("Hello, how are you doing?"), nil)

	assert.Equal(t, 0, result.ConfidenceScore)
	assert.False(t, result.IsScam)
	assert.Empty(t, result.DetectedKeywords)
}

func TestAnalyzeImpersonation(t *testing.T) {
	s := newTestScorer()

	result := s.Analyze(models.NewAttackerMessage("This is SBI calling about your account"), nil)
	assert.Contains(t, result.ImpersonationIndicators, "Bank: SBI")

	result = s.Analyze(models.NewAttackerMessage("The police have filed a case against you"), nil)
	assert.Contains(t, result.ImpersonationIndicators, "Authority: POLICE")
}

func TestAnalyzeImpersonationRequiresWholeWords(t *testing.T) {
	s := newTestScorer()

	// "blocked" must not match the short authority token "ed".
	result := s.Analyze(models.NewAttackerMessage("your card is blocked"), nil)
	assert.Empty(t, result.ImpersonationIndicators)
}

func TestAnalyzeCategoryCaps(t *testing.T) {
	s := newTestScorer()

	// Four urgency phrases would be 40 raw points but cap at 20; the
	// same four words score 20 as keywords.
	result := s.Analyze(models.NewAttackerMessage("urgent immediately hurry act fast"), nil)
	assert.Equal(t, 40, result.ConfidenceScore)
	assert.True(t, result.IsScam)
}

func TestAnalyzeScoreBoundedAt100(t *testing.T) {
	s := newTestScorer()

	text := "urgent immediately hurry act fast blocked suspended arrest penalty fine " +
		"sbi icici police rbi otp verify kyc lottery prize click here"
	result := s.Analyze(models.NewAttackerMessage(text), nil)

	assert.Equal(t, 100, result.ConfidenceScore)
	assert.True(t, result.IsScam)
}

func TestAnalyzeUsesHistoryWindow(t *testing.T) {
	s := newTestScorer()

	history := []models.Message{
		models.NewAttackerMessage("your account is blocked, urgent otp verify needed now"),
	}
	result := s.Analyze(models.NewAttackerMessage("ok"), history)
	assert.True(t, result.ConfidenceScore > 0)
}

func TestAnalyzeDiscardsOldHistory(t *testing.T) {
	s := newTestScorer()

	// The scam signal sits 6 messages back, outside the 5-entry window.
	history := []models.Message{
		models.NewAttackerMessage("urgent blocked otp verify account suspended"),
		models.NewAgentMessage("what?"),
		models.NewAttackerMessage("hello"),
		models.NewAgentMessage("who is this"),
		models.NewAttackerMessage("good morning"),
		models.NewAgentMessage("ok"),
	}
	result := s.Analyze(models.NewAttackerMessage("are you there"), history)

	assert.Equal(t, 0, result.ConfidenceScore)
	assert.False(t, result.IsScam)
}

func TestScorerThreshold(t *testing.T) {
	strict := NewScamScorer(90, 5, logger.NewDefault())

	result := strict.Analyze(models.NewAttackerMessage("Your account is blocked, pay now urgent otp verify"), nil)
	assert.Equal(t, 50, result.ConfidenceScore)
	assert.False(t, result.IsScam)
}

func TestScorerStats(t *testing.T) {
	s := newTestScorer()

	s.Analyze(models.NewAttackerMessage("hello"), nil)
	s.Analyze(models.NewAttackerMessage("nice weather"), nil)
	s.Analyze(models.NewAttackerMessage("Your account is blocked, pay now urgent otp verify"), nil)

	analyzed, flagged := s.Stats()
	assert.Equal(t, int64(3), analyzed)
	assert.Equal(t, int64(1), flagged)
}
