package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

// Provider names accepted by New.
const (
	ProviderMock      = "mock"
	ProviderVertex    = "vertex"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Options carries the settings any provider may need.
type Options struct {
	Provider        string
	Model           string
	APIKey          string
	BaseURL         string
	GCPProject      string
	GCPLocation     string
	MaxOutputTokens int
}

// New builds the LLMClient named by opts.Provider.
func New(ctx context.Context, opts Options) (domain.LLMClient, error) {
	switch opts.Provider {
	case ProviderMock, "":
		return NewMockLLM(), nil
	case ProviderVertex:
		return NewGenAIClient(ctx, GenAIConfig{
			Backend:         BackendVertex,
			Project:         opts.GCPProject,
			Location:        opts.GCPLocation,
			Model:           opts.Model,
			MaxOutputTokens: int32(opts.MaxOutputTokens),
		})
	case ProviderGemini:
		return NewGenAIClient(ctx, GenAIConfig{
			Backend:         BackendGemini,
			APIKey:          opts.APIKey,
			Model:           opts.Model,
			MaxOutputTokens: int32(opts.MaxOutputTokens),
		})
	case ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:          opts.APIKey,
			BaseURL:         opts.BaseURL,
			Model:           opts.Model,
			MaxOutputTokens: int64(opts.MaxOutputTokens),
		})
	case ProviderAnthropic:
		return NewAnthropicClient(AnthropicConfig{
			APIKey:    opts.APIKey,
			BaseURL:   opts.BaseURL,
			Model:     opts.Model,
			MaxTokens: int64(opts.MaxOutputTokens),
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}
