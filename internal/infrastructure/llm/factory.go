// Package llm selects and builds the chat client for the configured provider.
package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/llm/langchain"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/llm/openaicompat"
)

const (
	ProviderOpenAI      = "openai"
	ProviderAzureOpenAI = "azure_openai"
	ProviderDeepSeek    = "deepseek"
	ProviderOpenRouter  = "openrouter"
	ProviderGemini      = "gemini"
	ProviderAnthropic   = "anthropic"
	ProviderOllama      = "ollama"
)

// provider describes where a provider lives and which model it falls back
// to when the configured model belongs to another provider's default.
type provider struct {
	baseURL      string
	defaultModel string
	needsKey     bool
}

var providers = map[string]provider{
	ProviderOpenAI:      {baseURL: "https://api.openai.com/v1", defaultModel: "gpt-4o", needsKey: true},
	ProviderAzureOpenAI: {defaultModel: "gpt-4o", needsKey: true},
	ProviderDeepSeek:    {baseURL: "https://api.deepseek.com/v1", defaultModel: "deepseek-chat", needsKey: true},
	ProviderOpenRouter:  {baseURL: "https://openrouter.ai/api/v1", defaultModel: "openai/gpt-4o", needsKey: true},
	ProviderGemini:      {baseURL: "https://generativelanguage.googleapis.com/v1beta/openai/", defaultModel: "gemini-2.0-flash", needsKey: true},
	ProviderAnthropic:   {defaultModel: "claude-3-5-sonnet-20241022", needsKey: true},
	ProviderOllama:      {baseURL: "http://localhost:11434", defaultModel: "qwen2.5:7b"},
}

var _ output.LLMFactory = (*Factory)(nil)

type Factory struct {
	logger output.LoggerPort
}

func NewFactory(logger output.LoggerPort) *Factory {
	return &Factory{logger: logger}
}

// Providers lists the supported provider names in sorted order.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(name string) (string, bool) {
	p, ok := providers[strings.ToLower(name)]
	return p.defaultModel, ok
}

func (f *Factory) NewLLM(settings entity.AgentSettings, creds entity.ProviderCredentials) (output.LLMPort, error) {
	name := strings.ToLower(strings.TrimSpace(settings.Provider))
	p, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", entity.ErrUnsupportedProvider, settings.Provider, strings.Join(Providers(), ", "))
	}

	model := f.modelFor(name, p, settings.ModelName)
	key, endpoint := credentialsFor(name, creds)
	if p.needsKey && key == "" {
		return nil, fmt.Errorf("missing API key for provider %q", name)
	}
	if endpoint == "" {
		endpoint = p.baseURL
	}

	log := f.logger.WithFields(map[string]any{"provider": name, "model": model})
	log.Info("Creating LLM client", "endpoint", endpoint)

	switch name {
	case ProviderAnthropic:
		return langchain.NewAnthropic(key, model, endpoint, log)
	case ProviderOllama:
		return langchain.NewOllama(model, endpoint, log)
	case ProviderAzureOpenAI:
		if endpoint == "" {
			return nil, fmt.Errorf("missing endpoint for provider %q", name)
		}
		return openaicompat.New(openaicompat.Config{
			APIKey:     key,
			Model:      model,
			BaseURL:    endpoint,
			Azure:      true,
			APIVersion: creds.AzureAPIVersion,
			Logger:     log,
		}), nil
	default:
		return openaicompat.New(openaicompat.Config{
			APIKey:  key,
			Model:   model,
			BaseURL: endpoint,
			Logger:  log,
		}), nil
	}
}

// modelFor keeps an explicit model but swaps the global default model for
// the provider's own default when another provider is selected.
func (f *Factory) modelFor(name string, p provider, configured string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return p.defaultModel
	}
	if name != ProviderAnthropic && configured == providers[ProviderAnthropic].defaultModel {
		f.logger.Warn("Configured model belongs to another provider, using provider default",
			"provider", name, "configured", configured, "model", p.defaultModel)
		return p.defaultModel
	}
	return configured
}

func credentialsFor(name string, c entity.ProviderCredentials) (key, endpoint string) {
	switch name {
	case ProviderOpenAI:
		return c.OpenAIAPIKey, c.OpenAIEndpoint
	case ProviderAzureOpenAI:
		return c.AzureAPIKey, c.AzureEndpoint
	case ProviderDeepSeek:
		return c.DeepSeekAPIKey, c.DeepSeekEndpoint
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey, ""
	case ProviderGemini:
		return c.GoogleAPIKey, ""
	case ProviderAnthropic:
		return c.AnthropicAPIKey, c.AnthropicEndpoint
	case ProviderOllama:
		return "", c.OllamaEndpoint
	}
	return "", ""
}
