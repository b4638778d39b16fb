package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which side of the conversation produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session transcript. The transcript is
// append-only; CreatedAt is capture time and only used for display.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// New stamps a message with a fresh ID and the current UTC time.
func New(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
