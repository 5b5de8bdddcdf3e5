package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
	"github.com/zhouzirui/scam-shield/backend/internal/service/ai"
	"github.com/zhouzirui/scam-shield/backend/internal/service/imagerisk"
)

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Chat   ChatConfig
	Upload UploadConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	aiCfg, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	upload, err := loadUploadConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: aiCfg, Chat: chat, Upload: upload}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr        string
	Env         string
	CORSOrigins []string
}

// IsDevelopment reports whether the service runs in development mode.
func (c ServerConfig) IsDevelopment() bool {
	return c.Env != "production"
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := getEnvOrDefault("PORT", "8080")

	var addr string
	switch {
	case strings.Contains(port, " "):
		return ServerConfig{}, &fault.ConfigurationError{Key: "PORT", Reason: fmt.Sprintf("invalid value %q", port)}
	case strings.Contains(port, ":"):
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		addr = port
	default:
		addr = ":" + port
	}

	env := getEnvOrDefault("APP_ENV", "development")
	if env != "development" && env != "production" {
		return ServerConfig{}, &fault.ConfigurationError{Key: "APP_ENV", Reason: fmt.Sprintf("unknown environment %q", env)}
	}

	return ServerConfig{
		Addr:        addr,
		Env:         env,
		CORSOrigins: parseListEnv("CORS_ORIGINS"),
	}, nil
}

// AIConfig 描述大模型相关配置。Provider 为空表示未配置任何模型。
type AIConfig struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	Ark          ai.ArkConfig
	Temperature  float32
}

// Enabled reports whether a provider was resolved.
func (c AIConfig) Enabled() bool { return c.Provider != "" }

// Model returns the model name of the active provider.
func (c AIConfig) Model() string {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiModel
	case ProviderArk:
		return c.Ark.Model
	}
	return ""
}

// SessionConfig builds the per-session settings for the active provider.
func (c AIConfig) SessionConfig() ai.SessionConfig {
	cfg := ai.SessionConfig{
		SystemInstruction: ai.SystemInstruction,
		Temperature:       c.Temperature,
	}
	if c.Provider == ProviderGemini {
		cfg.APIKey = c.GeminiAPIKey
		cfg.Model = c.GeminiModel
	}
	return cfg
}

func loadAIConfig() (AIConfig, error) {
	temperature := ai.DefaultTemperature
	if t, err := parseOptionalFloatEnv("AI_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if t != nil {
		if *t < 0 || *t > 2 {
			return AIConfig{}, &fault.ConfigurationError{Key: "AI_TEMPERATURE", Reason: "must be within [0, 2]"}
		}
		temperature = float32(*t)
	}

	geminiKey := getEnvOrDefault("GEMINI_API_KEY", strings.TrimSpace(os.Getenv("API_KEY")))

	cfg := AIConfig{
		GeminiAPIKey: geminiKey,
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", ai.DefaultGeminiModel),
		Ark: ai.ArkConfig{
			APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
			AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
			Model:     strings.TrimSpace(os.Getenv("Model")),
			BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
		},
		Temperature: temperature,
	}

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER")))
	switch provider {
	case "":
		// 未显式指定时按已提供的凭证自动选择，Gemini 优先。
		switch {
		case cfg.GeminiAPIKey != "":
			cfg.Provider = ProviderGemini
		case cfg.Ark.Enabled():
			cfg.Provider = ProviderArk
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return AIConfig{}, &fault.ConfigurationError{Key: "GEMINI_API_KEY", Reason: "required when AI_PROVIDER=gemini"}
		}
		cfg.Provider = ProviderGemini
	case ProviderArk:
		if !cfg.Ark.Enabled() {
			return AIConfig{}, &fault.ConfigurationError{Key: "ARK_API_KEY", Reason: "ARK_API_KEY + Model or an AK/SK pair required when AI_PROVIDER=ark"}
		}
		cfg.Provider = ProviderArk
	default:
		return AIConfig{}, &fault.ConfigurationError{Key: "AI_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}

	return cfg, nil
}

// ChatConfig 描述会话生命周期配置。
type ChatConfig struct {
	Timeout    time.Duration // 0 = none
	SessionTTL time.Duration
}

func loadChatConfig() (ChatConfig, error) {
	timeout, err := parseDurationEnv("CHAT_TIMEOUT", 0)
	if err != nil {
		return ChatConfig{}, err
	}
	ttl, err := parseDurationEnv("SESSION_TTL", 30*time.Minute)
	if err != nil {
		return ChatConfig{}, err
	}
	if ttl <= 0 {
		return ChatConfig{}, &fault.ConfigurationError{Key: "SESSION_TTL", Reason: "must be positive"}
	}
	return ChatConfig{Timeout: timeout, SessionTTL: ttl}, nil
}

// UploadConfig 描述截图上传限制。
type UploadConfig struct {
	MaxBytes int64
}

func loadUploadConfig() (UploadConfig, error) {
	maxBytes := imagerisk.DefaultMaxBytes
	if v, err := parseOptionalIntEnv("UPLOAD_MAX_BYTES"); err != nil {
		return UploadConfig{}, err
	} else if v != nil {
		if *v <= 0 {
			return UploadConfig{}, &fault.ConfigurationError{Key: "UPLOAD_MAX_BYTES", Reason: "must be positive"}
		}
		maxBytes = int64(*v)
	}
	return UploadConfig{MaxBytes: maxBytes}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &fault.ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid duration %q", raw)}
	}
	if val < 0 {
		return 0, &fault.ConfigurationError{Key: key, Reason: "must not be negative"}
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, &fault.ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid value %q", value)}
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, &fault.ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid value %q", value)}
	}
	return &val, nil
}
