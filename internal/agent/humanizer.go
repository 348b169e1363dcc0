package agent

import (
	"math/rand"
	"strings"
)

// Typo substitution tables for the humanizer.
var typoWords = map[string][]string{
	"problem":       {"probem", "problm", "probelm"},
	"account":       {"acconut", "accont", "acount"},
	"transfer":      {"tranfer", "trasnfer", "trasfer"},
	"payment":       {"payemnt", "paymnt", "paymet"},
	"please":        {"plese", "pls", "plz"},
	"understand":    {"understnad", "undrestand", "undrstand"},
	"message":       {"messge", "mesage", "msg"},
	"verification":  {"verfication", "verifcation", "verificaton"},
	"immediately":   {"immediatly", "immedately", "immidiately"},
}

var hesitationPhrases = []string{
	"Hmm...", "Wait...", "Let me think...", "But...",
	"I'm not sure...", "Actually...", "One moment...",
	"Let me see...", "Okay but...",
}

const (
	hesitationChance = 0.2
	typoChance       = 0.15
)

// humanizer mutates generated replies with hesitations and typos so
// they read less machine-perfect. Seedable for deterministic tests.
type humanizer struct {
	rng *rand.Rand
}

func newHumanizer(rng *rand.Rand) *humanizer {
	return &humanizer{rng: rng}
}

// apply prepends a hesitation phrase some of the time and swaps
// eligible words for common misspellings.
func (h *humanizer) apply(text string) string {
	if h.rng.Float64() < hesitationChance {
		text = hesitationPhrases[h.rng.Intn(len(hesitationPhrases))] + " " + text
	}

	words := strings.Split(text, " ")
	for i, word := range words {
		key := strings.ToLower(strings.Trim(word, ".,!?"))
		typos, ok := typoWords[key]
		if !ok || h.rng.Float64() >= typoChance {
			continue
		}
		typo := typos[h.rng.Intn(len(typos))]
		words[i] = strings.Replace(word, key, typo, 1)
	}
	return strings.Join(words, " ")
}
