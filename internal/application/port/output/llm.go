package output

import (
	"context"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Temperature float64
	JSONMode    bool
}

type ChatResponse struct {
	Message entity.Message
}
