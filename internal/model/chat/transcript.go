package chat

import "errors"

// ErrMessageNotFound is returned when Extend targets an unknown message.
var ErrMessageNotFound = errors.New("message not found")

// ErrShrink is returned when Extend would replace text with something that is
// not an extension of it.
var ErrShrink = errors.New("streaming text may only grow")

// Transcript is the ordered history of one conversation. Insertion order is
// display order. It is not safe for concurrent use; the owning controller
// serialises access.
type Transcript struct {
	messages []Message
}

// NewTranscript returns a transcript seeded with the given messages.
func NewTranscript(seed ...Message) *Transcript {
	t := &Transcript{messages: make([]Message, 0, 16)}
	t.messages = append(t.messages, seed...)
	return t
}

// Append adds msg at the end.
func (t *Transcript) Append(msg Message) {
	t.messages = append(t.messages, msg)
}

// Extend replaces the text of message id with text, which must start with the
// current text.
func (t *Transcript) Extend(id, text string) error {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].ID != id {
			continue
		}
		cur := t.messages[i].Text
		if len(text) < len(cur) || text[:len(cur)] != cur {
			return ErrShrink
		}
		t.messages[i].Text = text
		return nil
	}
	return ErrMessageNotFound
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.messages) }

// Last returns the newest message.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Messages returns a copy of the history.
func (t *Transcript) Messages() []Message {
	copied := make([]Message, len(t.messages))
	copy(copied, t.messages)
	return copied
}
