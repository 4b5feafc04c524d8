package ws

import (
	"time"

	"github.com/avolkov/relay/internal/models"
)

// Action is the client-to-server envelope on a chat socket. Unknown action
// tags are ignored.
type Action struct {
	Action         string `json:"action"`
	Message        string `json:"message,omitempty"`
	Media          string `json:"media,omitempty"`
	MessageID      int    `json:"message_id,omitempty"`
	UpdatedContent string `json:"updated_content,omitempty"`
}

const (
	ActionSend   = "send"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

type messageEvent struct {
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	User      string  `json:"user"`
	Timestamp string  `json:"timestamp"`
	Media     *string `json:"media"`
}

type editEvent struct {
	Type           string `json:"type"`
	MessageID      int    `json:"message_id"`
	UpdatedContent string `json:"updated_content"`
}

type deleteEvent struct {
	Type      string `json:"type"`
	MessageID int    `json:"message_id"`
}

func newMessageEvent(msg *models.Message, username string) messageEvent {
	var media *string
	if msg.Media != "" {
		media = &msg.Media
	}
	return messageEvent{
		Type:      "message",
		Message:   msg.Content,
		User:      username,
		Timestamp: msg.CreatedAt.Format(time.RFC3339),
		Media:     media,
	}
}
