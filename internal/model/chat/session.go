package chat

import "time"

// State is the externally visible phase of a conversation.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingResponse State = "awaiting_response"
	StateErrorShown       State = "error_shown"
)

// Session captures a transient anonymous conversation as exposed to clients.
type Session struct {
	ID         string    `json:"id"`
	State      State     `json:"state"`
	Messages   []Message `json:"messages"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
}
