package stream

import (
	"github.com/zhouzirui/scam-shield/backend/internal/analysis/redflag"
	"github.com/zhouzirui/scam-shield/backend/internal/model/chat"
	"github.com/zhouzirui/scam-shield/backend/internal/render"
	"github.com/zhouzirui/scam-shield/backend/internal/service/conversation"
)

// Event names shared by the SSE and WebSocket transports.
const (
	EventUser        = "user"
	EventPlaceholder = "placeholder"
	EventFragment    = "fragment"
	EventCompleted   = "completed"
	EventFailed      = "failed"
	EventWarning     = "warning"
	EventEnd         = "end"
)

// MessagePayload carries one transcript entry.
type MessagePayload struct {
	Message chat.Message `json:"message"`
	HTML    string       `json:"html,omitempty"`
}

// FragmentPayload carries one streamed fragment.
type FragmentPayload struct {
	MessageID string `json:"messageId"`
	Delta     string `json:"delta"`
	Text      string `json:"text"`
}

// EndPayload closes a turn.
type EndPayload struct {
	State chat.State `json:"state"`
}

// WarningPayload mirrors redflag.Report.
type WarningPayload = redflag.Report

// Frame maps a controller event to a wire event name and payload. When html is
// set the completed reply is also rendered from markdown.
func Frame(e conversation.Event, html bool) (string, any) {
	switch ev := e.(type) {
	case conversation.EventUserMessage:
		return EventUser, MessagePayload{Message: ev.Message}
	case conversation.EventPlaceholder:
		return EventPlaceholder, MessagePayload{Message: ev.Message}
	case conversation.EventFragment:
		return EventFragment, FragmentPayload{MessageID: ev.MessageID, Delta: ev.Delta, Text: ev.Text}
	case conversation.EventCompleted:
		p := MessagePayload{Message: ev.Message}
		if html {
			// markdown conversion of model text does not fail in practice
			p.HTML, _ = render.HTML(ev.Message.Text)
		}
		return EventCompleted, p
	case conversation.EventFailed:
		return EventFailed, MessagePayload{Message: ev.Message}
	default:
		return "", nil
	}
}
