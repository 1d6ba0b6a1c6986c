// internal/models/chat.go
package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// ChatPayloadKind tags the recognized inbound chat payload shapes.
type ChatPayloadKind string

const (
	// ChatPayloadUnstructured is the chat-widget shape:
	// {"messages": [{"type": "unstructured", "unstructured": {"id", "text"}}]}
	ChatPayloadUnstructured ChatPayloadKind = "unstructured"
	// ChatPayloadPlain is the flat shape: {"sessionId", "message"}
	ChatPayloadPlain ChatPayloadKind = "plain"
)

// ErrUnrecognizedChatPayload is returned when the inbound body matches none
// of the recognized shapes.
var ErrUnrecognizedChatPayload = errors.New("unrecognized chat payload shape")

// ChatMessage is the normalized result of mapping an inbound chat payload.
type ChatMessage struct {
	Kind      ChatPayloadKind
	Text      string
	SessionID string
}

type chatEnvelope struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Messages  []struct {
		Type         string `json:"type"`
		Unstructured struct {
			ID        string `json:"id"`
			Text      string `json:"text"`
			Timestamp string `json:"timestamp"`
		} `json:"unstructured"`
	} `json:"messages"`
}

// ParseChatMessage maps an inbound chat payload to (text, sessionId). Each
// recognized shape maps deterministically; anything else fails with
// ErrUnrecognizedChatPayload rather than being probed further.
func ParseChatMessage(body []byte) (*ChatMessage, error) {
	var envelope chatEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, ErrUnrecognizedChatPayload
	}

	if len(envelope.Messages) > 0 {
		first := envelope.Messages[0]
		if strings.TrimSpace(first.Unstructured.Text) == "" {
			return nil, ErrUnrecognizedChatPayload
		}
		sessionID := envelope.SessionID
		if sessionID == "" {
			sessionID = first.Unstructured.ID
		}
		return &ChatMessage{
			Kind:      ChatPayloadUnstructured,
			Text:      first.Unstructured.Text,
			SessionID: sessionID,
		}, nil
	}

	if strings.TrimSpace(envelope.Message) != "" {
		return &ChatMessage{
			Kind:      ChatPayloadPlain,
			Text:      envelope.Message,
			SessionID: envelope.SessionID,
		}, nil
	}

	return nil, ErrUnrecognizedChatPayload
}
