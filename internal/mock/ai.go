// Package mock provides test doubles for service interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/zhouzirui/scam-shield/backend/internal/service/ai"
)

// Interface compliance checks.
var (
	_ ai.SessionClient = (*SessionClient)(nil)
	_ ai.Handle        = (*Handle)(nil)
	_ ai.Stream        = (*Stream)(nil)
	_ ai.Evaluator     = (*Evaluator)(nil)
)

// SessionClient is a test double for ai.SessionClient.
type SessionClient struct {
	OpenFn func(ctx context.Context, cfg ai.SessionConfig) (ai.Handle, error)
}

// Open delegates to OpenFn.
func (c *SessionClient) Open(ctx context.Context, cfg ai.SessionConfig) (ai.Handle, error) {
	return c.OpenFn(ctx, cfg)
}

// Handle is a test double for ai.Handle.
type Handle struct {
	SendFn func(ctx context.Context, text string) ai.Stream
}

// Send delegates to SendFn.
func (h *Handle) Send(ctx context.Context, text string) ai.Stream {
	return h.SendFn(ctx, text)
}

// Stream is a test double for ai.Stream. NextFn panics when nil to catch
// missing setup; CloseFn is nil-safe.
type Stream struct {
	NextFn  func() ai.Outcome
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() ai.Outcome {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Script returns a Stream that yields outcomes in order and then repeats the
// last one, which should be terminal.
func Script(outcomes ...ai.Outcome) *Stream {
	i := 0
	return &Stream{
		NextFn: func() ai.Outcome {
			if i >= len(outcomes) {
				return outcomes[len(outcomes)-1]
			}
			o := outcomes[i]
			i++
			return o
		},
	}
}

// Fragments is shorthand for a successful scripted reply.
func Fragments(texts ...string) *Stream {
	outcomes := make([]ai.Outcome, 0, len(texts)+1)
	for _, t := range texts {
		outcomes = append(outcomes, ai.Fragment{Text: t})
	}
	return Script(append(outcomes, ai.Completed{})...)
}

// Evaluator is a test double for ai.Evaluator.
type Evaluator struct {
	EvaluateFn func(ctx context.Context, image []byte, mimeType, instruction string) (string, error)
}

// Evaluate delegates to EvaluateFn.
func (e *Evaluator) Evaluate(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	return e.EvaluateFn(ctx, image, mimeType, instruction)
}
