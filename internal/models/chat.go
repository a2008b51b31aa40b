package models

import "time"

const (
	// ChatRoleUser marks a turn authored by the user.
	ChatRoleUser = "user"
	// ChatRoleAssistant marks a turn authored by the assistant.
	ChatRoleAssistant = "assistant"
)

// ChatTurn is one message in a chat session. Turns are append-only and
// ordered by timestamp within a session.
type ChatTurn struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
