// Package langchain adapts langchaingo models (Anthropic, Ollama) to the
// chat port.
package langchain

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
)

var _ output.LLMPort = (*Adapter)(nil)

type Adapter struct {
	model  llms.Model
	name   string
	logger output.LoggerPort
}

func New(model llms.Model, name string, logger output.LoggerPort) *Adapter {
	return &Adapter{model: model, name: name, logger: logger}
}

func NewAnthropic(apiKey, model, baseURL string, logger output.LoggerPort) (*Adapter, error) {
	opts := []anthropic.Option{anthropic.WithToken(apiKey), anthropic.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	llm, err := anthropic.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create anthropic client: %w", err)
	}
	return New(llm, model, logger), nil
}

func NewOllama(model, serverURL string, logger output.LoggerPort) (*Adapter, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return New(llm, model, logger), nil
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	content, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}

	if a.logger != nil {
		a.logger.Debug("Generating content", "model", a.name, "messagesCount", len(content), "jsonMode", req.JSONMode)
	}

	resp, err := a.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate content failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &output.ChatResponse{
		Message: entity.TextMessage(entity.RoleAssistant, resp.Choices[0].Content),
	}, nil
}

func convertMessages(messages []entity.Message) ([]llms.MessageContent, error) {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		mc := llms.MessageContent{Role: chatRole(msg.Role)}

		if len(msg.ContentBlocks) == 0 {
			mc.Parts = []llms.ContentPart{llms.TextPart(msg.Content)}
			result = append(result, mc)
			continue
		}

		for _, block := range msg.ContentBlocks {
			switch block.Type {
			case entity.ContentTypeText:
				mc.Parts = append(mc.Parts, llms.TextPart(block.Text))
			case entity.ContentTypeImageURL:
				part, err := imagePart(block.ImageURL)
				if err != nil {
					return nil, err
				}
				mc.Parts = append(mc.Parts, part)
			}
		}
		result = append(result, mc)
	}
	return result, nil
}

func chatRole(role entity.MessageRole) llms.ChatMessageType {
	switch role {
	case entity.RoleSystem:
		return llms.ChatMessageTypeSystem
	case entity.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// imagePart inlines base64 data URLs as binary parts, which every
// langchaingo provider accepts. Other URLs are passed by reference.
func imagePart(url string) (llms.ContentPart, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return llms.ImageURLPart(url), nil
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("data url is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return llms.BinaryPart(mime, data), nil
}
