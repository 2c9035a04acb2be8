package agent

import (
	"context"
	"fmt"

	"github.com/HendryAvila/taskchat/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatModel is the slice of llms.Model the tool loop uses. Every
// langchaingo provider satisfies it.
type ChatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// NewModel creates the configured provider's chat model. A missing
// credential yields ErrConfiguration.
func NewModel(cfg *config.Config) (ChatModel, error) {
	if !cfg.HasCredential() {
		return nil, fmt.Errorf("%w: %s missing in env", ErrConfiguration, cfg.CredentialEnv())
	}

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err := ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return model, nil

	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.Model),
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return model, nil

	case config.ProviderAnthropic:
		model, err := anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return model, nil

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", ErrConfiguration, cfg.LLMProvider)
	}
}
