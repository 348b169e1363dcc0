package services

import (
	"strings"
	"sync/atomic"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// Category caps for the additive score. Each category saturates
// independently; the total is bounded to 100.
const (
	keywordPoints       = 5
	keywordCap          = 30
	urgencyPoints       = 10
	urgencyCap          = 20
	impersonationPoints = 15
	impersonationCap    = 30
	threatPoints        = 10
	threatCap           = 20

	maxScore = 100
)

// ScamScorer analyzes messages for scam indicators and produces a
// 0-100 confidence score.
type ScamScorer struct {
	threshold     int
	historyWindow int
	logger        *logger.Logger

	analyzed atomic.Int64
	flagged  atomic.Int64
}

// NewScamScorer creates a scorer. threshold is the minimum score
// considered a scam; historyWindow bounds how many trailing history
// messages join the analysis window.
func NewScamScorer(threshold, historyWindow int, log *logger.Logger) *ScamScorer {
	if threshold <= 0 {
		threshold = 40
	}
	if historyWindow <= 0 {
		historyWindow = 5
	}
	return &ScamScorer{
		threshold:     threshold,
		historyWindow: historyWindow,
		logger:        log.WithComponent("scam-scorer"),
	}
}

// Analyze scores one message in the context of the trailing history
// window. Pure over its inputs; side effects are counters and logs.
func (s *ScamScorer) Analyze(msg models.Message, history []models.Message) models.ScamDetectionResult {
	window := s.buildWindow(msg, history)

	keywords := detectSubstrings(window, scamKeywords)
	urgency := detectSubstrings(window, urgencyKeywords)
	impersonation := s.detectImpersonation(window)
	threats := detectSubstrings(window, threatKeywords)

	score := calculateScore(len(keywords), len(urgency), len(impersonation), len(threats))

	result := models.ScamDetectionResult{
		IsScam:                  score >= s.threshold,
		ConfidenceScore:         score,
		DetectedKeywords:        keywords,
		UrgencyIndicators:       urgency,
		ImpersonationIndicators: impersonation,
		ThreatIndicators:        threats,
	}

	s.analyzed.Add(1)
	if result.IsScam {
		s.flagged.Add(1)
	}

	s.logger.Debug().
		Bool("is_scam", result.IsScam).
		Int("score", score).
		Int("keywords", len(keywords)).
		Msg("scam detection result")

	return result
}

// Stats returns the number of messages analyzed and flagged since start.
func (s *ScamScorer) Stats() (analyzed, flagged int64) {
	return s.analyzed.Load(), s.flagged.Load()
}

// buildWindow lowercases the message and appends the lowercased text of
// the last historyWindow entries. Older context is discarded.
func (s *ScamScorer) buildWindow(msg models.Message, history []models.Message) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(msg.Text))

	start := len(history) - s.historyWindow
	if start < 0 {
		start = 0
	}
	for _, m := range history[start:] {
		b.WriteString(" ")
		b.WriteString(strings.ToLower(m.Text))
	}
	return b.String()
}

// detectImpersonation finds bank and authority names, tagging each hit
// with its category ("Bank: SBI", "Authority: POLICE").
func (s *ScamScorer) detectImpersonation(window string) []string {
	var found []string
	for i, pat := range bankNamePatterns {
		if pat.MatchString(window) {
			found = append(found, "Bank: "+strings.ToUpper(bankNames[i]))
		}
	}
	for i, pat := range authorityNamePatterns {
		if pat.MatchString(window) {
			found = append(found, "Authority: "+strings.ToUpper(authorityNames[i]))
		}
	}
	return dedupStrings(found)
}

func detectSubstrings(window string, terms []string) []string {
	var found []string
	for _, term := range terms {
		if strings.Contains(window, term) {
			found = append(found, term)
		}
	}
	return dedupStrings(found)
}

// calculateScore is the capped additive heuristic: no single category
// can dominate past its cap, and the total is bounded to 100.
func calculateScore(keywords, urgency, impersonation, threats int) int {
	score := 0
	score += capped(keywords*keywordPoints, keywordCap)
	score += capped(urgency*urgencyPoints, urgencyCap)
	score += capped(impersonation*impersonationPoints, impersonationCap)
	score += capped(threats*threatPoints, threatCap)
	if score > maxScore {
		score = maxScore
	}
	return score
}

func capped(v, max int) int {
	if v > max {
		return max
	}
	return v
}
