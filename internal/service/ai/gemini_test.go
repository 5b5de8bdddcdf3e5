package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
	"github.com/zhouzirui/scam-shield/backend/internal/service/ai"
)

// mockChunks returns a genai-style streaming iterator from pre-built chunks,
// optionally failing after them.
func mockChunks(chunks []*genai.GenerateContentResponse, tail error) func(func(*genai.GenerateContentResponse, error) bool) {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		if tail != nil {
			yield(nil, tail)
		}
	}
}

func textChunk(text string, finish genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
			FinishReason: finish,
		}},
	}
}

func drain(s ai.Stream) ([]string, ai.Outcome) {
	var texts []string
	for {
		switch o := s.Next().(type) {
		case ai.Fragment:
			texts = append(texts, o.Text)
		default:
			return texts, o
		}
	}
}

func TestGeminiStream_FragmentsInOrder(t *testing.T) {
	t.Parallel()
	s := ai.NewGeminiStream(mockChunks([]*genai.GenerateContentResponse{
		textChunk("Yes", ""),
		textChunk(", it is.", genai.FinishReasonStop),
	}, nil))
	defer s.Close()

	texts, last := drain(s)
	assert.Equal(t, []string{"Yes", ", it is."}, texts)
	assert.Equal(t, ai.Completed{}, last)
	assert.Equal(t, ai.Completed{}, s.Next(), "terminal outcome repeats")
}

func TestGeminiStream_ZeroFragments(t *testing.T) {
	t.Parallel()
	s := ai.NewGeminiStream(mockChunks([]*genai.GenerateContentResponse{
		textChunk("", genai.FinishReasonStop),
	}, nil))
	defer s.Close()

	texts, last := drain(s)
	assert.Empty(t, texts)
	assert.Equal(t, ai.Completed{}, last)
}

func TestGeminiStream_FailureCarriesPartialText(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")
	s := ai.NewGeminiStream(mockChunks([]*genai.GenerateContentResponse{
		textChunk("Похоже", ""),
		textChunk(" на", ""),
	}, boom))
	defer s.Close()

	texts, last := drain(s)
	assert.Equal(t, []string{"Похоже", " на"}, texts)

	failed, ok := last.(ai.Failed)
	require.True(t, ok)
	var te *fault.TransportError
	require.ErrorAs(t, failed.Err, &te)
	assert.Equal(t, "Похоже на", te.Partial)
	assert.ErrorIs(t, failed.Err, boom)
}

func TestGeminiStream_MissingFinishMarkerFails(t *testing.T) {
	t.Parallel()
	s := ai.NewGeminiStream(mockChunks([]*genai.GenerateContentResponse{
		textChunk("cut", ""),
	}, nil))
	defer s.Close()

	_, last := drain(s)
	failed, ok := last.(ai.Failed)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Err, ai.ErrTruncated)
}

func TestGeminiStream_NextAfterClose(t *testing.T) {
	t.Parallel()
	s := ai.NewGeminiStream(mockChunks([]*genai.GenerateContentResponse{
		textChunk("a", ""),
		textChunk("b", genai.FinishReasonStop),
	}, nil))
	_, ok := s.Next().(ai.Fragment)
	require.True(t, ok)
	require.NoError(t, s.Close())

	failed, ok := s.Next().(ai.Failed)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Err, ai.ErrStreamClosed)
}

func TestGeminiClient_OpenDoesNotDial(t *testing.T) {
	t.Parallel()
	h, err := ai.NewGemini().Open(context.Background(), ai.SessionConfig{
		APIKey:            "gk-test",
		SystemInstruction: ai.SystemInstruction,
		Temperature:       ai.DefaultTemperature,
	})
	require.NoError(t, err)
	assert.NotNil(t, h)
}

type fakeGenerator struct {
	gotModel    string
	gotContents []*genai.Content
	gotConfig   *genai.GenerateContentConfig
	resp        *genai.GenerateContentResponse
	err         error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotContents = contents
	f.gotConfig = config
	return f.resp, f.err
}

func TestGeminiEvaluator_SendsImageAndInstruction(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{resp: textChunk("## Высокий риск", genai.FinishReasonStop)}
	e := ai.NewGeminiEvaluatorForTest(gen, "", "sys")

	verdict, err := e.Evaluate(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png", "что тут?")
	require.NoError(t, err)
	assert.Equal(t, "## Высокий риск", verdict)

	assert.Equal(t, ai.DefaultGeminiModel, gen.gotModel)
	require.Len(t, gen.gotContents, 1)
	parts := gen.gotContents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, parts[0].InlineData.Data)
	assert.Equal(t, "что тут?", parts[1].Text)
	require.NotNil(t, gen.gotConfig)
	assert.Equal(t, "sys", gen.gotConfig.SystemInstruction.Parts[0].Text)
}

func TestGeminiEvaluator_EmptyTextFallsBack(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{resp: textChunk("", genai.FinishReasonStop)}
	e := ai.NewGeminiEvaluatorForTest(gen, "m", "")

	verdict, err := e.Evaluate(context.Background(), []byte("x"), "image/jpeg", "?")
	require.NoError(t, err)
	assert.Equal(t, ai.NoTextVerdict, verdict)
	assert.Nil(t, gen.gotConfig)
}

func TestGeminiEvaluator_TransportError(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{err: errors.New("503")}
	e := ai.NewGeminiEvaluatorForTest(gen, "m", "")

	_, err := e.Evaluate(context.Background(), []byte("x"), "image/jpeg", "?")
	assert.True(t, fault.IsTransport(err))
}
