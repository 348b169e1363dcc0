package agent

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/session"
	"honeytrap-lab/pkg/logger"
)

// How many trailing history messages join the LLM prompt.
const promptHistoryWindow = 10

// Agent generates the honeypot's human-like replies. It prefers the
// LLM when credentials are configured and falls back to canned
// templates otherwise. Its output is only ever appended to history,
// never analyzed.
type Agent struct {
	llm       *LLMClient
	humanizer *humanizer
	rng       *rand.Rand
	logger    *logger.Logger
}

// New creates an agent around the given LLM client.
func New(llm *LLMClient, log *logger.Logger) *Agent {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Agent{
		llm:       llm,
		humanizer: newHumanizer(rng),
		rng:       rng,
		logger:    log.WithComponent("engagement-agent"),
	}
}

// NewWithSource creates an agent with a fixed random source, for tests.
func NewWithSource(llm *LLMClient, src rand.Source, log *logger.Logger) *Agent {
	rng := rand.New(src)
	return &Agent{
		llm:       llm,
		humanizer: newHumanizer(rng),
		rng:       rng,
		logger:    log.WithComponent("engagement-agent"),
	}
}

// GenerateReply produces the next engagement reply for the scammer's
// latest message. Never fails: any LLM error degrades to templates.
func (a *Agent) GenerateReply(ctx context.Context, msg models.Message, sess *session.Session) string {
	if a.llm == nil || !a.llm.Available() {
		return a.fallbackReply(msg, sess)
	}

	reply, err := a.llm.Chat(ctx, a.buildMessages(msg, sess))
	if err != nil {
		a.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("LLM call failed, using fallback reply")
		return a.fallbackReply(msg, sess)
	}

	reply = a.humanizer.apply(reply)
	a.logger.Debug().Str("session_id", sess.ID).Msg("generated LLM reply")
	return reply
}

// buildMessages assembles the chat prompt: persona, the trailing
// history window, then the current message.
func (a *Agent) buildMessages(msg models.Message, sess *session.Session) []ChatMessage {
	messages := []ChatMessage{{Role: "system", Content: systemPrompt}}

	history := sess.History
	if len(history) > promptHistoryWindow {
		history = history[len(history)-promptHistoryWindow:]
	}
	for _, m := range history {
		role := "user"
		if m.Sender == models.SenderAgent {
			role = "assistant"
		}
		messages = append(messages, ChatMessage{Role: role, Content: m.Text})
	}

	return append(messages, ChatMessage{Role: "user", Content: msg.Text})
}

// fallbackReply picks a template keyed on conversation stage and
// message content, then humanizes it.
func (a *Agent) fallbackReply(msg models.Message, sess *session.Session) string {
	text := strings.ToLower(msg.Text)

	var pool []string
	switch {
	case sess.MessageCount <= 2:
		pool = earlyStageResponses
	case containsAny(text, otpTriggers):
		pool = otpResponses
	case containsAny(text, paymentTriggers):
		pool = paymentResponses
	case containsAny(text, linkTriggers):
		pool = linkResponses
	case containsAny(text, threatTriggers):
		pool = threatResponses
	default:
		pool = genericResponses
	}

	reply := pool[a.rng.Intn(len(pool))]
	return a.humanizer.apply(reply)
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
