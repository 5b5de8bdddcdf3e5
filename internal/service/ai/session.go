// Package ai adapts remote generative models to the two capabilities the
// service needs: a stateful streaming chat session and one-shot image
// assessment.
package ai

import (
	"context"
	"errors"
)

// DefaultTemperature is the sampling temperature used for chat sessions.
const DefaultTemperature float32 = 0.7

// SessionConfig seeds a chat session. Everything a backend needs is passed
// here; backends never read the environment.
type SessionConfig struct {
	APIKey            string
	Model             string // empty = backend default
	SystemInstruction string
	Temperature       float32
}

// SessionClient opens chat sessions against a remote conversational model.
type SessionClient interface {
	// Open prepares a session handle. No network I/O happens until the first
	// Send.
	Open(ctx context.Context, cfg SessionConfig) (Handle, error)
}

// Handle is one stateful conversation with the remote model. Only one Send
// may be in flight at a time.
type Handle interface {
	Send(ctx context.Context, text string) Stream
}

// Stream is a finite, ordered, non-restartable sequence of outcomes. Next
// blocks until the next fragment arrives. After a terminal outcome
// (Completed or Failed) every further call returns that same outcome.
type Stream interface {
	Next() Outcome
	Close() error
}

// Outcome is a sealed interface for the result of one Stream.Next call.
type Outcome interface {
	outcome()
}

// Fragment carries the next piece of model output.
type Fragment struct {
	Text string
}

func (Fragment) outcome() {}

// Completed marks the successful end of the reply.
type Completed struct{}

func (Completed) outcome() {}

// Failed marks an abnormal end. Err is a *fault.TransportError whose Partial
// field holds the text delivered before the failure.
type Failed struct {
	Err error
}

func (Failed) outcome() {}

// Evaluator assesses a single image against fraud indicators.
type Evaluator interface {
	// Evaluate sends raw image bytes (already stripped of any data-URI
	// envelope) together with an instruction and returns the model's full
	// markdown verdict.
	Evaluate(ctx context.Context, image []byte, mimeType, instruction string) (string, error)
}

// Sentinel errors for stream failures.
var (
	// ErrStreamClosed indicates Next was called after Close.
	ErrStreamClosed = errors.New("stream closed")

	// ErrTruncated indicates the remote stream ended without a terminal
	// marker.
	ErrTruncated = errors.New("stream ended without a finish marker")
)

// NoTextVerdict is returned by evaluators when the model produced no text.
const NoTextVerdict = "Не удалось получить текстовый ответ."

// Interface compliance checks.
var (
	_ Outcome = Fragment{}
	_ Outcome = Completed{}
	_ Outcome = Failed{}
)
