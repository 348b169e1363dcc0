package services

import "regexp"

// Pattern tables used by the extractor and the scorer. Read-only after
// init; safe for concurrent use.

var (
	// Indian bank account numbers: contiguous runs of 9-18 digits.
	bankAccountPattern = regexp.MustCompile(`\b(\d{9,18})\b`)

	// UPI ids: username@handle (user@paytm, name@ybl, john@sbi).
	upiIDPattern = regexp.MustCompile(`\b([a-zA-Z0-9._-]+@[a-zA-Z]{2,})\b`)

	// Indian mobile numbers: optional +91/91 prefix, 10 digits starting 6-9.
	phonePattern = regexp.MustCompile(`(?:\+91[\s-]?|91[\s-]?)?([6-9]\d{9})\b`)

	urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

	// Known link shorteners, with or without a scheme.
	shortenedURLPattern = regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|is\.gd|buff\.ly|ow\.ly|rebrand\.ly)/\S+`)
)

var scamKeywords = []string{
	// Urgency
	"urgent", "immediately", "right now", "within 24 hours", "act fast",
	"hurry", "limited time", "expires today", "last chance",

	// Account related
	"blocked", "suspended", "verify", "verification", "update",
	"expired", "deactivated", "locked", "restricted",

	// Banking/Financial
	"otp", "bank", "upi", "account", "transaction", "transfer",
	"payment", "refund", "credit", "debit", "balance",

	// Scam indicators
	"prize", "lottery", "winner", "won", "congratulations", "selected",
	"lucky", "reward", "cash prize", "free gift",

	// KYC/Documentation
	"kyc", "pan card", "aadhar", "aadhaar", "documents", "identity",

	// Government/Authority
	"rbi", "income tax", "customs", "police", "court", "legal",
	"government", "ministry", "department",

	// Threats
	"arrest", "fine", "penalty", "legal action", "case filed",
	"fir", "complaint", "investigate", "fraud",

	// Instructions
	"click here", "click the link", "download", "install",
	"share otp", "send money", "pay now",
}

var bankNames = []string{
	"sbi", "state bank", "hdfc", "icici", "axis", "kotak",
	"pnb", "punjab national", "bob", "bank of baroda",
	"canara", "union bank", "idbi", "yes bank", "indusind",
	"paytm", "phonepe", "gpay", "google pay", "amazon pay",
}

var authorityNames = []string{
	"rbi", "reserve bank", "income tax", "it department",
	"customs", "police", "cyber cell", "cbi", "ed",
	"enforcement directorate", "sebi", "trai",
	"telecom", "airtel", "jio", "vodafone", "bsnl",
}

var threatKeywords = []string{
	"blocked", "suspended", "arrest", "legal action",
	"case filed", "fir", "complaint", "penalty", "fine",
	"terminate", "cancel", "disconnect", "seize",
}

var urgencyKeywords = []string{
	"urgent", "immediately", "right now", "within 24 hours",
	"within 2 hours", "today only", "expires", "last warning",
	"final notice", "act fast", "hurry", "don't delay",
}

// Handle substrings accepted as payment providers.
var knownUPIHandles = []string{
	"paytm", "ybl", "sbi", "okicici", "okhdfcbank",
	"okaxis", "oksbi", "upi", "apl", "axisbank",
	"ibl", "icici", "kotak", "indus", "hsbc",
}

// Email providers rejected so personal addresses are not mistaken for
// payment handles.
var emailProviderDomains = []string{
	"gmail", "yahoo", "hotmail", "outlook", "mail",
}

// Impersonation names match on word boundaries. Short tokens like "ed"
// or "bob" would otherwise fire inside ordinary words ("blocked").
var (
	bankNamePatterns      = compileNamePatterns(bankNames)
	authorityNamePatterns = compileNamePatterns(authorityNames)
)

func compileNamePatterns(names []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(names))
	for i, name := range names {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	}
	return patterns
}
