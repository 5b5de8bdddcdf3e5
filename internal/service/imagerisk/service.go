package imagerisk

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
	"github.com/zhouzirui/scam-shield/backend/internal/metrics"
	"github.com/zhouzirui/scam-shield/backend/internal/service/ai"
)

// Verdict is the evaluator's markdown answer for one image.
type Verdict struct {
	Markdown string `json:"markdown"`
	MIMEType string `json:"mimeType"`
	Bytes    int    `json:"bytes"`
}

// Service runs guarded image analysis. It holds no per-request state.
type Service struct {
	evaluator   ai.Evaluator
	guard       *Guard
	instruction string
	logger      zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMaxBytes sets the upload limit.
func WithMaxBytes(n int64) Option {
	return func(s *Service) { s.guard = NewGuard(n) }
}

// WithInstruction overrides the prompt sent along with every image.
func WithInstruction(text string) Option {
	return func(s *Service) { s.instruction = text }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires an evaluator behind the guard.
func NewService(evaluator ai.Evaluator, opts ...Option) *Service {
	s := &Service{
		evaluator:   evaluator,
		guard:       NewGuard(DefaultMaxBytes),
		instruction: ai.DefaultImageInstruction,
		logger:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Guard exposes the upload guard so transports can reject early.
func (s *Service) Guard() *Guard { return s.guard }

// Analyze validates raw bytes and evaluates them.
func (s *Service) Analyze(ctx context.Context, data []byte, declaredType string) (Verdict, error) {
	img, err := s.guard.Prepare(data, declaredType)
	if err != nil {
		return Verdict{}, s.reject(err)
	}
	return s.evaluate(ctx, img)
}

// AnalyzeDataURI decodes a data URI (or bare base64) and evaluates it.
func (s *Service) AnalyzeDataURI(ctx context.Context, uri string) (Verdict, error) {
	img, err := s.guard.PrepareDataURI(uri)
	if err != nil {
		return Verdict{}, s.reject(err)
	}
	return s.evaluate(ctx, img)
}

func (s *Service) reject(err error) error {
	metrics.ImageAnalyses.WithLabelValues("rejected").Inc()
	s.logger.Debug().Err(err).Msg("image rejected")
	return err
}

func (s *Service) evaluate(ctx context.Context, img Image) (Verdict, error) {
	text, err := s.evaluator.Evaluate(ctx, img.Data, img.MIMEType, s.instruction)
	if err != nil {
		metrics.ImageAnalyses.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Str("mime", img.MIMEType).Int("bytes", len(img.Data)).Msg("image analysis failed")
		return Verdict{}, fault.Transport("evaluate image", err)
	}

	metrics.ImageAnalyses.WithLabelValues("ok").Inc()
	return Verdict{Markdown: text, MIMEType: img.MIMEType, Bytes: len(img.Data)}, nil
}
