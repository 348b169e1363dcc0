package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"honeytrap-lab/internal/domain/models"
)

// Inbound request shapes vary across callers: the message arrives as a
// plain string or an object, and field names differ between variants.
// Normalization happens entirely here; the engine only ever sees the
// canonical {sessionId, Message, history} tuple.

type rawMessageRequest struct {
	SessionID      string            `json:"sessionId"`
	SessionIDSnake string            `json:"session_id"`
	ConversationID string            `json:"conversationId"`
	Message        json.RawMessage   `json:"message"`
	Text           string            `json:"text"`
	Body           string            `json:"body"`
	History        []json.RawMessage `json:"conversationHistory"`
	HistoryAlt     []json.RawMessage `json:"history"`
	Metadata       map[string]any    `json:"metadata"`
}

type rawMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Body      string `json:"body"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// normalizeMessageRequest parses any accepted request variant into the
// canonical tuple.
func normalizeMessageRequest(data []byte) (sessionID string, msg models.Message, history []models.Message, err error) {
	var raw rawMessageRequest
	if err = json.Unmarshal(data, &raw); err != nil {
		return "", models.Message{}, nil, fmt.Errorf("invalid request body: %w", err)
	}

	sessionID = raw.SessionID
	if sessionID == "" {
		sessionID = raw.SessionIDSnake
	}
	if sessionID == "" {
		sessionID = raw.ConversationID
	}
	if sessionID == "" {
		return "", models.Message{}, nil, fmt.Errorf("missing session id")
	}

	msg, err = normalizeMessage(raw.Message, raw.Text, raw.Body)
	if err != nil {
		return "", models.Message{}, nil, err
	}

	rawHistory := raw.History
	if len(rawHistory) == 0 {
		rawHistory = raw.HistoryAlt
	}
	for _, rm := range rawHistory {
		hm, herr := normalizeMessage(rm, "", "")
		if herr != nil {
			continue // tolerate junk history entries
		}
		history = append(history, hm)
	}

	return sessionID, msg, history, nil
}

// normalizeMessage accepts a JSON string, a message object, or the
// top-level text/body fallbacks.
func normalizeMessage(raw json.RawMessage, textAlt, bodyAlt string) (models.Message, error) {
	if len(raw) > 0 {
		var asString string
		if err := json.Unmarshal(raw, &asString); err == nil {
			return models.NewAttackerMessage(asString), nil
		}

		var asObject rawMessage
		if err := json.Unmarshal(raw, &asObject); err == nil {
			text := asObject.Text
			if text == "" {
				text = asObject.Body
			}
			if text == "" {
				text = asObject.Content
			}
			if text != "" {
				msg := models.Message{
					Sender:    normalizeSender(asObject.Sender),
					Text:      text,
					Timestamp: parseTimestamp(asObject.Timestamp),
				}
				return msg, nil
			}
		}
	}

	if textAlt != "" {
		return models.NewAttackerMessage(textAlt), nil
	}
	if bodyAlt != "" {
		return models.NewAttackerMessage(bodyAlt), nil
	}

	return models.Message{}, fmt.Errorf("missing message text")
}

func normalizeSender(sender string) models.Sender {
	if sender == string(models.SenderAgent) {
		return models.SenderAgent
	}
	return models.SenderAttacker
}

func parseTimestamp(ts string) time.Time {
	if ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
