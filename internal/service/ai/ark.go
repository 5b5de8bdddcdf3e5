package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// ArkConfig carries the Volcengine Ark endpoint settings that are not part of
// SessionConfig.
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// Enabled reports whether a model and some credential were supplied.
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// ArkFactory returns a ModelFactory for Ark. SessionConfig values override the
// base configuration when set.
func ArkFactory(base ArkConfig) ModelFactory {
	return func(ctx context.Context, cfg SessionConfig) (model.ChatModel, error) {
		c := base
		if cfg.APIKey != "" {
			c.APIKey = cfg.APIKey
		}
		if cfg.Model != "" {
			c.Model = cfg.Model
		}
		temp := cfg.Temperature
		return newArkModel(ctx, c, &temp)
	}
}

// NewArkModel builds a chat model with the endpoint's default temperature.
func NewArkModel(ctx context.Context, c ArkConfig) (model.ChatModel, error) {
	return newArkModel(ctx, c, nil)
}

func newArkModel(ctx context.Context, c ArkConfig, temperature *float32) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark: credentials or model missing, provide ARK_API_KEY + Model or an AK/SK pair")
	}
	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		Temperature: temperature,
	})
}
