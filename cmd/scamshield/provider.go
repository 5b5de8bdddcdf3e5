package main

import (
	"context"
	"fmt"

	"github.com/zhouzirui/scam-shield/backend/internal/config"
	"github.com/zhouzirui/scam-shield/backend/internal/service/ai"
)

// backends holds the model adapters for the configured provider.
type backends struct {
	name      string
	sessions  ai.SessionClient
	evaluator ai.Evaluator
}

// resolveBackends constructs the session client and image evaluator. The
// environment has already been read into cfg.
func resolveBackends(ctx context.Context, cfg config.AIConfig) (*backends, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		evaluator, err := ai.NewGeminiEvaluator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, ai.SystemInstruction)
		if err != nil {
			return nil, err
		}
		return &backends{
			name:      cfg.Provider,
			sessions:  ai.NewGemini(),
			evaluator: evaluator,
		}, nil
	case config.ProviderArk:
		cm, err := ai.NewArkModel(ctx, cfg.Ark)
		if err != nil {
			return nil, fmt.Errorf("ark: %w", err)
		}
		return &backends{
			name:      cfg.Provider,
			sessions:  ai.NewEino(ai.ArkFactory(cfg.Ark)),
			evaluator: ai.NewEinoEvaluator(cm, ai.SystemInstruction),
		}, nil
	case "":
		return nil, fmt.Errorf("no AI provider configured: set GEMINI_API_KEY (or API_KEY) or ARK_API_KEY + Model")
	default:
		return nil, fmt.Errorf("unknown provider %q: must be \"gemini\" or \"ark\"", cfg.Provider)
	}
}
