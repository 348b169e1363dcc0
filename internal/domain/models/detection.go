package models

// ScamDetectionResult is the outcome of analyzing a single message in
// its conversation context. Pure function of the input text; never
// persisted.
type ScamDetectionResult struct {
	IsScam                   bool     `json:"isScam"`
	ConfidenceScore          int      `json:"confidenceScore"`
	DetectedKeywords         []string `json:"detectedKeywords"`
	UrgencyIndicators        []string `json:"urgencyIndicators"`
	ImpersonationIndicators  []string `json:"impersonationIndicators"`
	ThreatIndicators         []string `json:"threatIndicators"`
}

// CallbackPayload is the final dossier posted to the external evaluator
// once per conversation. Derived from session state, not stored.
type CallbackPayload struct {
	SessionID              string                `json:"sessionId"`
	ScamDetected           bool                  `json:"scamDetected"`
	TotalMessagesExchanged int                   `json:"totalMessagesExchanged"`
	ExtractedIntelligence  ExtractedIntelligence `json:"extractedIntelligence"`
	AgentNotes             string                `json:"agentNotes"`
}
