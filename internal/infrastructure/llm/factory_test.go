package llm

import (
	"testing"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/llm/langchain"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/llm/openaicompat"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func allCreds() entity.ProviderCredentials {
	return entity.ProviderCredentials{
		AnthropicAPIKey:  "a",
		OpenAIAPIKey:     "o",
		DeepSeekAPIKey:   "d",
		GoogleAPIKey:     "g",
		AzureAPIKey:      "z",
		AzureEndpoint:    "https://example.openai.azure.com",
		OpenRouterAPIKey: "r",
	}
}

func TestFactory_NewLLM(t *testing.T) {
	f := NewFactory(logger.NewNop())

	tests := []struct {
		provider string
		wantType any
	}{
		{"openai", &openaicompat.Adapter{}},
		{"OpenAI", &openaicompat.Adapter{}},
		{"deepseek", &openaicompat.Adapter{}},
		{"openrouter", &openaicompat.Adapter{}},
		{"gemini", &openaicompat.Adapter{}},
		{"azure_openai", &openaicompat.Adapter{}},
		{"anthropic", &langchain.Adapter{}},
		{"ollama", &langchain.Adapter{}},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			llm, err := f.NewLLM(entity.AgentSettings{Provider: tt.provider}, allCreds())
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, llm)
		})
	}
}

func TestFactory_UnsupportedProvider(t *testing.T) {
	f := NewFactory(logger.NewNop())

	_, err := f.NewLLM(entity.AgentSettings{Provider: "mistral"}, allCreds())

	assert.ErrorIs(t, err, entity.ErrUnsupportedProvider)
	assert.Contains(t, err.Error(), "anthropic, azure_openai, deepseek, gemini, ollama, openai, openrouter")
}

func TestFactory_MissingKey(t *testing.T) {
	f := NewFactory(logger.NewNop())

	_, err := f.NewLLM(entity.AgentSettings{Provider: "openai"}, entity.ProviderCredentials{})
	assert.ErrorContains(t, err, "missing API key")

	_, err = f.NewLLM(entity.AgentSettings{Provider: "ollama"}, entity.ProviderCredentials{})
	assert.NoError(t, err, "ollama needs no key")

	_, err = f.NewLLM(entity.AgentSettings{Provider: "azure_openai"}, entity.ProviderCredentials{AzureAPIKey: "z"})
	assert.ErrorContains(t, err, "missing endpoint")
}

func TestFactory_ModelFor(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := NewFactory(logger.FromZap(zap.New(core)))

	assert.Equal(t, "gpt-4o", f.modelFor("openai", providers["openai"], ""))
	assert.Equal(t, "gpt-4o-mini", f.modelFor("openai", providers["openai"], "gpt-4o-mini"))
	assert.Equal(t, "claude-3-5-sonnet-20241022", f.modelFor("anthropic", providers["anthropic"], "claude-3-5-sonnet-20241022"))
	assert.Empty(t, logs.All())

	assert.Equal(t, "deepseek-chat", f.modelFor("deepseek", providers["deepseek"], "claude-3-5-sonnet-20241022"))
	assert.Equal(t, 1, logs.Len())
}

func TestDefaultModel(t *testing.T) {
	m, ok := DefaultModel("Gemini")
	assert.True(t, ok)
	assert.Equal(t, "gemini-2.0-flash", m)

	_, ok = DefaultModel("nope")
	assert.False(t, ok)
}
