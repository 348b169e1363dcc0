package models

import "time"

// Sender identifies who authored a conversation message.
type Sender string

const (
	SenderAttacker Sender = "attacker"
	SenderAgent    Sender = "agent"
)

// Message is a single conversation turn. Immutable once created.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewAttackerMessage creates an attacker-authored message stamped now.
func NewAttackerMessage(text string) Message {
	return Message{Sender: SenderAttacker, Text: text, Timestamp: time.Now().UTC()}
}

// NewAgentMessage creates an agent-authored message stamped now.
func NewAgentMessage(text string) Message {
	return Message{Sender: SenderAgent, Text: text, Timestamp: time.Now().UTC()}
}
