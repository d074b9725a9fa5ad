package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harun/toolplan/internal/observability"
	"github.com/harun/toolplan/internal/tracing"
)

// LLMProvider is an interface for LLM API providers
type LLMProvider interface {
	// Call makes an LLM API call
	Call(ctx context.Context, request LLMRequest) (*LLMResponse, error)

	// Provider returns the provider name
	Provider() string
}

// LLMRequest contains the request parameters for LLM call
type LLMRequest struct {
	Model        string
	Messages     []Message
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// LLMResponse contains the response from LLM
type LLMResponse struct {
	Content string
	Usage   *TokenUsage
}

// ProviderFactory creates LLM providers
type ProviderFactory struct{}

// NewProvider creates the provider named in cfg.
func (f *ProviderFactory) NewProvider(ctx context.Context, cfg ProviderConfig) (LLMProvider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL), nil
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL), nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg.APIKey)
	case "ollama":
		return NewOllamaProvider(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// NewProvider is shorthand for (&ProviderFactory{}).NewProvider wrapped with Instrument.
func NewProvider(ctx context.Context, cfg ProviderConfig) (LLMProvider, error) {
	p, err := (&ProviderFactory{}).NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Instrument(p), nil
}

type instrumentedProvider struct {
	inner LLMProvider
}

// Instrument wraps p so every call is traced, timed and counted.
func Instrument(p LLMProvider) LLMProvider {
	if _, ok := p.(*instrumentedProvider); ok {
		return p
	}
	return &instrumentedProvider{inner: p}
}

func (p *instrumentedProvider) Provider() string {
	return p.inner.Provider()
}

func (p *instrumentedProvider) Call(ctx context.Context, request LLMRequest) (*LLMResponse, error) {
	name := p.inner.Provider()
	ctx, span := tracing.StartSpan(ctx, "agent", "llm.call",
		attribute.String("provider", name),
		attribute.String("model", request.Model),
	)

	start := time.Now()
	resp, err := p.inner.Call(ctx, request)
	duration := time.Since(start)

	observability.RecordLLMCall(name, duration, err == nil)
	tracing.EndSpan(span, err)

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	if err != nil {
		logger.Error().Err(err).Str("provider", name).Dur("duration", duration).Msg("LLM call failed")
		return nil, fmt.Errorf("%s call: %w", name, err)
	}

	ev := logger.Debug().Str("provider", name).Dur("duration", duration).Int("chars", len(resp.Content))
	if resp.Usage != nil {
		ev = ev.Int("input_tokens", resp.Usage.InputTokens).Int("output_tokens", resp.Usage.OutputTokens)
	}
	ev.Msg("LLM call completed")

	return resp, nil
}
