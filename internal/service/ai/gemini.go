package ai

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
)

// DefaultGeminiModel is used when SessionConfig.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// Interface compliance checks.
var (
	_ SessionClient = (*GeminiClient)(nil)
	_ Evaluator     = (*GeminiEvaluator)(nil)
	_ Stream        = (*geminiStream)(nil)
)

// GeminiClient implements SessionClient on top of genai chat sessions.
type GeminiClient struct {
	backend genai.Backend
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithBackend selects the genai backend. Default is the Gemini Developer API.
func WithBackend(b genai.Backend) GeminiOption {
	return func(c *GeminiClient) { c.backend = b }
}

// NewGemini returns a GeminiClient.
func NewGemini(opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{backend: genai.BackendGeminiAPI}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open builds a genai client and chat session. Neither performs network I/O.
func (c *GeminiClient) Open(ctx context.Context, cfg SessionConfig) (Handle, error) {
	gc, err := newGenaiClient(ctx, cfg.APIKey, c.backend)
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	temp := cfg.Temperature
	config := &genai.GenerateContentConfig{Temperature: &temp}
	if cfg.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}

	session, err := gc.Chats.Create(ctx, model, config, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat: %w", err)
	}
	return &geminiHandle{chat: session}, nil
}

func newGenaiClient(ctx context.Context, apiKey string, backend genai.Backend) (*genai.Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: backend,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return gc, nil
}

type geminiHandle struct {
	chat *genai.Chat
}

// Send streams the reply to text. The chat records the turn in its history
// once the stream has been fully drained.
func (h *geminiHandle) Send(ctx context.Context, text string) Stream {
	return NewGeminiStream(h.chat.SendMessageStream(ctx, genai.Part{Text: text}))
}

// geminiStream adapts the genai push iterator to the pull-based Stream.
type geminiStream struct {
	pull     func() (*genai.GenerateContentResponse, error, bool)
	stop     func()
	partial  strings.Builder
	finished bool
	terminal Outcome
}

// NewGeminiStream wraps a genai streaming iterator. Exported for testing.
func NewGeminiStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) Stream {
	next, stop := iter.Pull2(seq)
	return &geminiStream{pull: next, stop: stop}
}

func (s *geminiStream) Next() Outcome {
	if s.terminal != nil {
		return s.terminal
	}
	for {
		resp, err, ok := s.pull()
		if !ok {
			if !s.finished {
				return s.fail(ErrTruncated)
			}
			s.terminal = Completed{}
			return s.terminal
		}
		if err != nil {
			return s.fail(err)
		}
		if resp == nil {
			continue
		}
		for _, cand := range resp.Candidates {
			if cand != nil && cand.FinishReason != "" {
				s.finished = true
			}
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		s.partial.WriteString(text)
		return Fragment{Text: text}
	}
}

func (s *geminiStream) fail(err error) Outcome {
	s.terminal = Failed{Err: &fault.TransportError{Op: "gemini: stream", Partial: s.partial.String(), Err: err}}
	return s.terminal
}

func (s *geminiStream) Close() error {
	if s.terminal == nil {
		s.terminal = Failed{Err: &fault.TransportError{Op: "gemini: stream", Partial: s.partial.String(), Err: ErrStreamClosed}}
	}
	s.stop()
	return nil
}

// contentGenerator is the subset of genai.Models used by GeminiEvaluator.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiEvaluator implements Evaluator with a single GenerateContent call.
type GeminiEvaluator struct {
	models            contentGenerator
	model             string
	systemInstruction string
}

// NewGeminiEvaluator creates an evaluator authenticated with apiKey.
func NewGeminiEvaluator(ctx context.Context, apiKey, model, systemInstruction string) (*GeminiEvaluator, error) {
	gc, err := newGenaiClient(ctx, apiKey, genai.BackendGeminiAPI)
	if err != nil {
		return nil, err
	}
	return newGeminiEvaluator(gc.Models, model, systemInstruction), nil
}

func newGeminiEvaluator(models contentGenerator, model, systemInstruction string) *GeminiEvaluator {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiEvaluator{models: models, model: model, systemInstruction: systemInstruction}
}

// Evaluate sends the image inline together with the instruction.
func (e *GeminiEvaluator) Evaluate(ctx context.Context, image []byte, mimeType, instruction string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}

	var config *genai.GenerateContentConfig
	if e.systemInstruction != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(e.systemInstruction, genai.RoleUser),
		}
	}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		return "", fault.Transport("gemini: generate content", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return NoTextVerdict, nil
	}
	return text, nil
}
