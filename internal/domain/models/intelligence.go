package models

// ExtractedIntelligence holds the identifiers harvested from attacker
// messages. Each field is a deduplicated set kept as a slice; dedup is
// exact-string, not case-normalized. Sets only grow under Merge.
type ExtractedIntelligence struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	PhishingLinks      []string `json:"phishingLinks"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// Merge returns the per-field deduplicated union of both bundles.
// Commutative and idempotent; neither receiver nor argument is modified.
func (e ExtractedIntelligence) Merge(other ExtractedIntelligence) ExtractedIntelligence {
	return ExtractedIntelligence{
		BankAccounts:       unionStrings(e.BankAccounts, other.BankAccounts),
		UPIIDs:             unionStrings(e.UPIIDs, other.UPIIDs),
		PhoneNumbers:       unionStrings(e.PhoneNumbers, other.PhoneNumbers),
		PhishingLinks:      unionStrings(e.PhishingLinks, other.PhishingLinks),
		SuspiciousKeywords: unionStrings(e.SuspiciousKeywords, other.SuspiciousKeywords),
	}
}

// HasKeyIntelligence reports whether both a payment identifier (bank
// account or UPI id) and a contact channel (phone number or link) have
// been collected.
func (e ExtractedIntelligence) HasKeyIntelligence() bool {
	hasPayment := len(e.BankAccounts) > 0 || len(e.UPIIDs) > 0
	hasContact := len(e.PhoneNumbers) > 0 || len(e.PhishingLinks) > 0
	return hasPayment && hasContact
}

// IsEmpty reports whether no intelligence has been collected at all.
func (e ExtractedIntelligence) IsEmpty() bool {
	return len(e.BankAccounts) == 0 && len(e.UPIIDs) == 0 &&
		len(e.PhoneNumbers) == 0 && len(e.PhishingLinks) == 0 &&
		len(e.SuspiciousKeywords) == 0
}

// Clone returns a deep copy of the bundle.
func (e ExtractedIntelligence) Clone() ExtractedIntelligence {
	return ExtractedIntelligence{
		BankAccounts:       copyStrings(e.BankAccounts),
		UPIIDs:             copyStrings(e.UPIIDs),
		PhoneNumbers:       copyStrings(e.PhoneNumbers),
		PhishingLinks:      copyStrings(e.PhishingLinks),
		SuspiciousKeywords: copyStrings(e.SuspiciousKeywords),
	}
}

func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
