package conversation

import "github.com/zhouzirui/scam-shield/backend/internal/model/chat"

// Event is a sealed interface for transcript changes reported while a
// submission is processed.
type Event interface {
	event()
}

// EventUserMessage reports the accepted user message.
type EventUserMessage struct {
	Message chat.Message
}

func (EventUserMessage) event() {}

// EventPlaceholder reports the empty assistant message created for the reply.
type EventPlaceholder struct {
	Message chat.Message
}

func (EventPlaceholder) event() {}

// EventFragment reports one fragment folded into the placeholder. Text is the
// running concatenation.
type EventFragment struct {
	MessageID string
	Delta     string
	Text      string
}

func (EventFragment) event() {}

// EventCompleted reports the finished assistant reply.
type EventCompleted struct {
	Message chat.Message
}

func (EventCompleted) event() {}

// EventFailed reports the error-flagged apology appended after a failure.
type EventFailed struct {
	Message chat.Message
	Err     error
}

func (EventFailed) event() {}

// Interface compliance checks.
var (
	_ Event = EventUserMessage{}
	_ Event = EventPlaceholder{}
	_ Event = EventFragment{}
	_ Event = EventCompleted{}
	_ Event = EventFailed{}
)
