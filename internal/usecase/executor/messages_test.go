package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/logger"
	"github.com/JovaniPink/mcp-browser-use/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(m *messageManager, steps int) {
	for i := 1; i <= steps; i++ {
		m.Commit(entity.TextMessage(entity.RoleUser, fmt.Sprintf("state %d", i)), fmt.Sprintf("reply %d", i))
	}
}

func TestMessageManager_CommitStripsImages(t *testing.T) {
	m := newMessageManager("sys", 10, testutil.NewFakeLLM(), 0, logger.NewNop())
	state := entity.Message{Role: entity.RoleUser, ContentBlocks: []entity.ContentBlock{
		{Type: entity.ContentTypeText, Text: "page"},
		{Type: entity.ContentTypeImageURL, ImageURL: "data:image/png;base64,x"},
	}}

	msgs := m.Messages(state)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].HasImage())

	m.Commit(state, "{}")
	msgs = m.Messages(entity.TextMessage(entity.RoleUser, "next"))
	require.Len(t, msgs, 4)
	assert.Equal(t, entity.RoleSystem, msgs[0].Role)
	assert.False(t, msgs[1].HasImage())
	assert.Equal(t, "page", msgs[1].Text())
	assert.Equal(t, entity.RoleAssistant, msgs[2].Role)
	assert.Equal(t, 3, m.Len())
}

func TestMessageManager_CompactSummarizes(t *testing.T) {
	llm := testutil.NewFakeLLM("visited the shop and found $10")
	m := newMessageManager("sys", 6, llm, 0.2, logger.NewNop())
	fill(m, 4)

	m.Compact(context.Background())

	assert.LessOrEqual(t, m.Len(), 6)
	msgs := m.Messages(entity.TextMessage(entity.RoleUser, "now"))
	assert.Equal(t, "sys", msgs[0].Content)
	assert.Equal(t, "Summary of previous steps:\nvisited the shop and found $10", msgs[1].Text())
	for i := 1; i < len(msgs); i++ {
		want := entity.RoleUser
		if i%2 == 0 {
			want = entity.RoleAssistant
		}
		assert.Equal(t, want, msgs[i].Role, "message %d", i)
	}
	assert.Equal(t, "reply 4", msgs[len(msgs)-2].Text())

	calls := llm.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, summaryPrompt, calls[0].Messages[0].Content)
	assert.Contains(t, calls[0].Messages[1].Content, "state 1")
	assert.InDelta(t, 0.2, calls[0].Temperature, 1e-9)
}

func TestMessageManager_CompactFallback(t *testing.T) {
	llm := testutil.NewFakeLLM()
	llm.Errs = []error{errors.New("boom")}
	m := newMessageManager("sys", 4, llm, 0, logger.NewNop())
	fill(m, 3)

	m.Compact(context.Background())

	msgs := m.Messages(entity.TextMessage(entity.RoleUser, "now"))
	assert.Contains(t, msgs[1].Text(), "earlier messages omitted")
	assert.LessOrEqual(t, m.Len(), 4)
}

func TestMessageManager_CompactNoopUnderLimit(t *testing.T) {
	llm := testutil.NewFakeLLM("x")
	m := newMessageManager("sys", 10, llm, 0, logger.NewNop())
	fill(m, 2)

	m.Compact(context.Background())

	assert.Equal(t, 5, m.Len())
	assert.Empty(t, llm.Calls())
}
