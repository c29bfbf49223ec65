package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

const summaryPrompt = `Summarize the following browser agent history in a few sentences.
Keep every fact needed to finish the task: visited URLs, values found, forms filled and failures.`

// messageManager keeps the conversation as
// [system, user(state), assistant(output), user(state), ...].
// Only the pending state message may carry an image.
type messageManager struct {
	system      entity.Message
	history     []entity.Message
	maxMessages int
	llm         output.LLMPort
	temperature float64
	logger      output.LoggerPort
}

func newMessageManager(systemPrompt string, maxMessages int, llm output.LLMPort, temperature float64, logger output.LoggerPort) *messageManager {
	return &messageManager{
		system:      entity.TextMessage(entity.RoleSystem, systemPrompt),
		maxMessages: maxMessages,
		llm:         llm,
		temperature: temperature,
		logger:      logger,
	}
}

// Messages returns the full conversation for the next model call, with
// state appended as the newest user message.
func (m *messageManager) Messages(state entity.Message) []entity.Message {
	msgs := make([]entity.Message, 0, len(m.history)+2)
	msgs = append(msgs, m.system)
	msgs = append(msgs, m.history...)
	msgs = append(msgs, state)
	return msgs
}

// Commit records a finished step. The state is stored as text only.
func (m *messageManager) Commit(state entity.Message, reply string) {
	m.history = append(m.history,
		entity.TextMessage(entity.RoleUser, state.Text()),
		entity.TextMessage(entity.RoleAssistant, reply),
	)
}

func (m *messageManager) Len() int {
	return len(m.history) + 1
}

// Compact folds older turns into a summary once the history exceeds the
// limit. The system prompt is never summarized. The folded prefix always has
// odd length so the remaining turns still alternate after the summary.
func (m *messageManager) Compact(ctx context.Context) {
	if m.maxMessages <= 0 || m.Len() <= m.maxMessages {
		return
	}

	keep := m.maxMessages / 2
	if keep < 2 {
		keep = 2
	}
	cut := len(m.history) - keep
	if cut%2 == 0 {
		cut++
	}
	if cut <= 0 {
		return
	}

	prefix := m.history[:cut]
	summary, err := m.summarize(ctx, prefix)
	if err != nil {
		m.logger.Warn("History summarization failed, dropping old turns", "error", err, "dropped", len(prefix))
		summary = fmt.Sprintf("(%d earlier messages omitted)", len(prefix))
	}

	rest := append([]entity.Message(nil), m.history[cut:]...)
	m.history = append([]entity.Message{
		entity.TextMessage(entity.RoleUser, "Summary of previous steps:\n"+summary),
	}, rest...)
	m.logger.Debug("History compacted", "folded", len(prefix), "remaining", m.Len())
}

func (m *messageManager) summarize(ctx context.Context, msgs []entity.Message) (string, error) {
	var sb strings.Builder
	for _, msg := range msgs {
		fmt.Fprintf(&sb, "[%s]\n%s\n\n", msg.Role, msg.Text())
	}

	resp, err := m.llm.Chat(ctx, output.ChatRequest{
		Messages: []entity.Message{
			entity.TextMessage(entity.RoleSystem, summaryPrompt),
			entity.TextMessage(entity.RoleUser, sb.String()),
		},
		Temperature: m.temperature,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Message.Text())
	if text == "" {
		return "", fmt.Errorf("empty summary")
	}
	return text, nil
}
