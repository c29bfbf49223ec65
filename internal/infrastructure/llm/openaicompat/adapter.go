// Package openaicompat talks to any OpenAI-compatible chat completions API:
// OpenAI, Azure OpenAI, DeepSeek, OpenRouter and Gemini's OpenAI endpoint.
package openaicompat

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
)

var _ output.LLMPort = (*Adapter)(nil)

type Adapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Azure switches to Azure OpenAI auth and URL layout; Model is the deployment.
	Azure      bool
	APIVersion string
	Logger     output.LoggerPort
	HTTPClient *http.Client
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()
	t.logger.Debug("HTTP Request",
		"method", req.Method,
		"url", req.URL.String(),
		"bytes", req.ContentLength,
	)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("HTTP Request failed", "url", req.URL.String(), "error", err)
		return nil, err
	}

	t.logger.Debug("HTTP Response",
		"status", resp.Status,
		"statusCode", resp.StatusCode,
		"duration", time.Since(started),
	)
	return resp, nil
}

func New(cfg Config) *Adapter {
	var config openai.ClientConfig
	if cfg.Azure {
		config = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			config.APIVersion = cfg.APIVersion
		}
	} else {
		config = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Logger != nil {
		base := client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *client
		wrapped.Transport = &loggingTransport{base: base, logger: cfg.Logger}
		client = &wrapped
	}
	config.HTTPClient = client

	return &Adapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    convertMessages(req.Messages),
		Temperature: float32(req.Temperature),
	}
	if req.JSONMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	if a.logger != nil {
		a.logger.Debug("Creating chat completion",
			"model", a.model,
			"messagesCount", len(request.Messages),
			"jsonMode", req.JSONMode)
	}

	resp, err := a.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	if a.logger != nil {
		a.logger.Debug("Chat completion received",
			"promptTokens", resp.Usage.PromptTokens,
			"completionTokens", resp.Usage.CompletionTokens,
			"finishReason", resp.Choices[0].FinishReason)
	}

	return &output.ChatResponse{
		Message: convertResponseMessage(resp.Choices[0].Message),
	}, nil
}

// convertMessages sends text-only messages as plain content and messages
// with images as multi-part content.
func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{Role: string(msg.Role)}

		if !msg.HasImage() {
			oaiMsg.Content = msg.Text()
			result = append(result, oaiMsg)
			continue
		}

		for _, block := range msg.ContentBlocks {
			switch block.Type {
			case entity.ContentTypeText:
				oaiMsg.MultiContent = append(oaiMsg.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: block.Text,
				})
			case entity.ContentTypeImageURL:
				oaiMsg.MultiContent = append(oaiMsg.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    block.ImageURL,
						Detail: openai.ImageURLDetailAuto,
					},
				})
			}
		}
		result = append(result, oaiMsg)
	}
	return result
}

func convertResponseMessage(msg openai.ChatCompletionMessage) entity.Message {
	content := msg.Content
	if content == "" && len(msg.MultiContent) > 0 {
		for _, part := range msg.MultiContent {
			if part.Type == openai.ChatMessagePartTypeText {
				content += part.Text
			}
		}
	}
	return entity.TextMessage(entity.RoleAssistant, content)
}
