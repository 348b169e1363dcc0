package services

import (
	"strings"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// IntelligenceExtractor turns message text into typed bundles of
// candidate identifiers, filtering common false positives.
type IntelligenceExtractor struct {
	logger *logger.Logger
}

// NewIntelligenceExtractor creates an extractor.
func NewIntelligenceExtractor(log *logger.Logger) *IntelligenceExtractor {
	return &IntelligenceExtractor{
		logger: log.WithComponent("intelligence-extractor"),
	}
}

// Extract pulls all intelligence categories from a single message.
// Total function: empty or malformed input yields empty sets.
func (e *IntelligenceExtractor) Extract(msg models.Message) models.ExtractedIntelligence {
	text := msg.Text

	intel := models.ExtractedIntelligence{
		BankAccounts:       e.extractBankAccounts(text),
		UPIIDs:             e.extractUPIIDs(text),
		PhoneNumbers:       e.extractPhoneNumbers(text),
		PhishingLinks:      e.extractURLs(text),
		SuspiciousKeywords: e.extractKeywords(text),
	}

	e.logger.Debug().
		Int("bank_accounts", len(intel.BankAccounts)).
		Int("upi_ids", len(intel.UPIIDs)).
		Int("phones", len(intel.PhoneNumbers)).
		Int("urls", len(intel.PhishingLinks)).
		Int("keywords", len(intel.SuspiciousKeywords)).
		Msg("extracted intelligence")

	return intel
}

// ExtractFromHistory folds Extract over a message list, merging the
// per-message bundles. Order-independent since merge is a set union.
func (e *IntelligenceExtractor) ExtractFromHistory(messages []models.Message) models.ExtractedIntelligence {
	var combined models.ExtractedIntelligence
	for _, msg := range messages {
		combined = combined.Merge(e.Extract(msg))
	}
	return combined
}

// extractBankAccounts finds digit runs of 9-18 characters. A 10-digit
// run starting 6-9 is mobile-number shaped and skipped.
func (e *IntelligenceExtractor) extractBankAccounts(text string) []string {
	matches := bankAccountPattern.FindAllString(text, -1)

	var accounts []string
	for _, m := range matches {
		if len(m) == 10 && m[0] >= '6' && m[0] <= '9' {
			continue
		}
		accounts = append(accounts, m)
	}
	return dedupStrings(accounts)
}

// extractUPIIDs finds token@handle shapes. Handles matching a known
// payment provider or at least 2 characters long are accepted, unless
// the handle contains an email-provider domain.
func (e *IntelligenceExtractor) extractUPIIDs(text string) []string {
	matches := upiIDPattern.FindAllString(text, -1)

	var upis []string
	for _, m := range matches {
		at := strings.Index(m, "@")
		if at < 0 {
			continue
		}
		handle := strings.ToLower(m[at+1:])
		if !containsAnySubstring(handle, knownUPIHandles) && len(handle) < 2 {
			continue
		}
		if containsAnySubstring(handle, emailProviderDomains) {
			continue
		}
		upis = append(upis, m)
	}
	return dedupStrings(upis)
}

// extractPhoneNumbers finds Indian mobile numbers and normalizes them
// to "+91 <digits>" regardless of how they appeared in the source.
func (e *IntelligenceExtractor) extractPhoneNumbers(text string) []string {
	matches := phonePattern.FindAllStringSubmatch(text, -1)

	var phones []string
	for _, m := range matches {
		digits := m[1]
		if len(digits) == 10 && digits[0] >= '6' && digits[0] <= '9' {
			phones = append(phones, "+91 "+digits)
		}
	}
	return dedupStrings(phones)
}

// extractURLs finds full URLs plus schemeless shortener links, the
// latter prefixed with "https://".
func (e *IntelligenceExtractor) extractURLs(text string) []string {
	urls := urlPattern.FindAllString(text, -1)

	for _, short := range shortenedURLPattern.FindAllString(text, -1) {
		if !strings.HasPrefix(strings.ToLower(short), "http") {
			urls = append(urls, "https://"+short)
		} else {
			urls = append(urls, short)
		}
	}
	return dedupStrings(urls)
}

// extractKeywords matches the scam keyword list case-insensitively,
// emitting the list casing rather than the input casing.
func (e *IntelligenceExtractor) extractKeywords(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, kw := range scamKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return dedupStrings(found)
}

func containsAnySubstring(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func dedupStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
