package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
)

// Interface compliance checks.
var (
	_ SessionClient = (*EinoClient)(nil)
	_ Evaluator     = (*EinoEvaluator)(nil)
	_ Stream        = (*einoStream)(nil)
)

// ModelFactory builds an eino chat model for a session.
type ModelFactory func(ctx context.Context, cfg SessionConfig) (model.ChatModel, error)

// historyLimit caps the messages replayed to the model on each turn.
const historyLimit = 10

// EinoClient implements SessionClient for any eino chat model. Eino models
// are stateless, so the handle keeps the conversation history itself.
type EinoClient struct {
	newModel ModelFactory
}

// NewEino returns an EinoClient that builds models with factory.
func NewEino(factory ModelFactory) *EinoClient {
	return &EinoClient{newModel: factory}
}

// Open builds the model and compiles the prompt chain; eino models connect
// lazily.
func (c *EinoClient) Open(ctx context.Context, cfg SessionConfig) (Handle, error) {
	cm, err := c.newModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("eino: build chat model: %w", err)
	}

	templates := make([]schema.MessagesTemplate, 0, 3)
	if cfg.SystemInstruction != "" {
		templates = append(templates, schema.SystemMessage("{system}"))
	}
	templates = append(templates,
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)
	promptTemplate := prompt.FromMessages(schema.FString, templates...)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(cm)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("eino: compile chat chain: %w", err)
	}

	return &einoHandle{
		chain:       runnable,
		system:      cfg.SystemInstruction,
		temperature: cfg.Temperature,
	}, nil
}

type einoHandle struct {
	chain       compose.Runnable[map[string]any, *schema.Message]
	system      string
	temperature float32

	mu      sync.Mutex
	history []*schema.Message
}

func (h *einoHandle) Send(ctx context.Context, text string) Stream {
	h.mu.Lock()
	history := append([]*schema.Message(nil), h.history...)
	h.mu.Unlock()

	input := map[string]any{
		"system":  h.system,
		"history": history,
		"query":   text,
	}
	reader, err := h.chain.Stream(ctx, input, compose.WithChatModelOption(model.WithTemperature(h.temperature)))
	if err != nil {
		return &einoStream{terminal: Failed{Err: fault.Transport("eino: stream", err)}}
	}

	return &einoStream{
		reader: reader,
		onComplete: func(reply string) {
			h.record(schema.UserMessage(text), schema.AssistantMessage(reply, nil))
		},
	}
}

// record appends a finished turn and keeps the newest historyLimit messages.
func (h *einoHandle) record(turn ...*schema.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = append(h.history, turn...)
	if over := len(h.history) - historyLimit; over > 0 {
		h.history = append([]*schema.Message(nil), h.history[over:]...)
	}
}

// einoStream adapts schema.StreamReader to Stream. A turn is added to the
// handle's history only when the reader reaches io.EOF.
type einoStream struct {
	reader     *schema.StreamReader[*schema.Message]
	onComplete func(reply string)
	partial    strings.Builder
	terminal   Outcome
}

func (s *einoStream) Next() Outcome {
	if s.terminal != nil {
		return s.terminal
	}
	for {
		chunk, err := s.reader.Recv()
		if errors.Is(err, io.EOF) {
			if s.onComplete != nil {
				s.onComplete(s.partial.String())
			}
			s.terminal = Completed{}
			return s.terminal
		}
		if err != nil {
			s.terminal = Failed{Err: &fault.TransportError{Op: "eino: stream", Partial: s.partial.String(), Err: err}}
			return s.terminal
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		s.partial.WriteString(chunk.Content)
		return Fragment{Text: chunk.Content}
	}
}

func (s *einoStream) Close() error {
	if s.terminal == nil {
		s.terminal = Failed{Err: &fault.TransportError{Op: "eino: stream", Partial: s.partial.String(), Err: ErrStreamClosed}}
	}
	if s.reader != nil {
		s.reader.Close()
	}
	return nil
}

// EinoEvaluator implements Evaluator with a multimodal Generate call.
type EinoEvaluator struct {
	model             model.ChatModel
	systemInstruction string
}

// NewEinoEvaluator wraps cm.
func NewEinoEvaluator(cm model.ChatModel, systemInstruction string) *EinoEvaluator {
	return &EinoEvaluator{model: cm, systemInstruction: systemInstruction}
}

// Evaluate re-encodes the image as a data URL, which is how eino carries
// inline images.
func (e *EinoEvaluator) Evaluate(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	input := make([]*schema.Message, 0, 2)
	if e.systemInstruction != "" {
		input = append(input, schema.SystemMessage(e.systemInstruction))
	}
	input = append(input, &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: dataURL}},
			{Type: schema.ChatMessagePartTypeText, Text: instruction},
		},
	})

	resp, err := e.model.Generate(ctx, input)
	if err != nil {
		return "", fault.Transport("eino: generate", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return NoTextVerdict, nil
	}
	return resp.Content, nil
}
