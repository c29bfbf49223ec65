package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JovaniPink/mcp-browser-use/internal/adapter/tools"
	"github.com/JovaniPink/mcp-browser-use/internal/application/service"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/logger"
	"github.com/JovaniPink/mcp-browser-use/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSignals struct {
	mu        sync.Mutex
	stop      bool
	snapshots []entity.RunSnapshot
}

func (f *fakeSignals) IsStopRequested() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stop
}

func (f *fakeSignals) SetLastValidState(s entity.RunSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, s)
}

func (f *fakeSignals) requestStop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stop = true
}

func testSettings() entity.AgentSettings {
	return entity.AgentSettings{
		Temperature:        0.3,
		MaxSteps:           5,
		UseVision:          true,
		MaxActionsPerStep:  5,
		ToolCallInContent:  true,
		MaxFailures:        3,
		MaxErrorLength:     400,
		MaxHistoryMessages: 24,
		IncludeAttributes:  []string{"aria-label"},
	}
}

func reply(important, completed string, actions ...string) string {
	return fmt.Sprintf(`{"current_state":{"prev_action_evaluation":"Unknown","important_contents":%q,"completed_contents":%q,"thought":"t","summary":"s"},"action":[%s]}`,
		important, completed, strings.Join(actions, ","))
}

type harness struct {
	llm     *testutil.FakeLLM
	session *testutil.FakeSession
	signals *fakeSignals
	engine  *Engine
}

func newHarness(t *testing.T, settings entity.AgentSettings, replies ...string) *harness {
	t.Helper()
	h := &harness{
		llm:     testutil.NewFakeLLM(replies...),
		session: testutil.NewFakeSession(),
		signals: &fakeSignals{},
	}
	h.session.URL = "https://shop.example.com"
	h.session.Elements = []entity.DOMElement{{Index: 0, Tag: "input"}, {Index: 1, Tag: "button", Text: "Search"}}

	registry := service.NewActionRegistry()
	tools.RegisterDefaults(registry, &testutil.FakeClipboard{}, logger.NewNop())

	eng, err := New(h.llm, h.session, registry, h.signals, logger.NewNop(), nil, Config{
		RunID:    "run-1",
		Task:     "find a product price",
		AddInfos: "use the search box",
		Settings: settings,
	})
	require.NoError(t, err)
	h.engine = eng
	return h
}

func TestNew_ValidatesSettings(t *testing.T) {
	s := testSettings()
	s.MaxSteps = 0
	_, err := New(testutil.NewFakeLLM(), testutil.NewFakeSession(), service.NewActionRegistry(), &fakeSignals{}, logger.NewNop(), nil, Config{Settings: s})
	assert.Error(t, err)

	s = testSettings()
	s.MaxActionsPerStep = 0
	_, err = New(testutil.NewFakeLLM(), testutil.NewFakeSession(), service.NewActionRegistry(), &fakeSignals{}, logger.NewNop(), nil, Config{Settings: s})
	assert.Error(t, err)
}

func TestRun_DoneInOneStep(t *testing.T) {
	h := newHarness(t, testSettings(), reply("", "", `{"done":{"text":"$10"}}`))

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, history.IsDone())
	assert.Equal(t, "$10", history.FinalResult())
	require.Len(t, history.Steps, 1)
	assert.Equal(t, "https://shop.example.com", history.Steps[0].URL)

	calls := h.llm.Calls()
	require.Len(t, calls, 1)
	msgs := calls[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "use maximum 5 actions per sequence")
	assert.Contains(t, msgs[0].Content, "paste_from_clipboard")
	assert.Contains(t, msgs[1].Text(), "Step 1/5\n1. Task: find a product price\n2. Hints(Optional):\nuse the search box")
	assert.False(t, calls[0].JSONMode)
	assert.InDelta(t, 0.3, calls[0].Temperature, 1e-9)

	require.Len(t, h.signals.snapshots, 1)
	assert.Equal(t, "run-1", h.signals.snapshots[0].RunID)
	assert.Equal(t, 1, h.signals.snapshots[0].Step)
}

func TestRun_StopFlagBeforeFirstStep(t *testing.T) {
	h := newHarness(t, testSettings(), reply("", "", `{"done":{"text":"x"}}`))
	h.signals.requestStop()

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, history.Steps)
	assert.Empty(t, h.llm.Calls())
}

func TestRun_StopFlagBetweenSteps(t *testing.T) {
	h := newHarness(t, testSettings(), reply("", "", `{"scroll_down":{}}`))
	h.llm.Hook = func(call int) {
		if call == 1 {
			h.signals.requestStop()
		}
	}

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, history.Steps, 2)
	assert.Len(t, h.llm.Calls(), 2)
	assert.Empty(t, history.FinalResult())
}

func TestRun_MaxSteps(t *testing.T) {
	s := testSettings()
	s.MaxSteps = 3
	h := newHarness(t, s, reply("", "", `{"scroll_down":{}}`))

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, history.Steps, 3)
	assert.False(t, history.IsDone())
	assert.Contains(t, h.llm.Calls()[2].Messages[len(h.llm.Calls()[2].Messages)-1].Text(), "Step 3/3")
}

func TestRun_ConsecutiveFailuresEndRun(t *testing.T) {
	h := newHarness(t, testSettings(), "I am not JSON")

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, history.Steps, 3)
	assert.Len(t, h.llm.Calls(), 3)
	for _, e := range history.Errors() {
		assert.Contains(t, e, "invalid model output")
	}
}

func TestRun_ErrorFedIntoNextPrompt(t *testing.T) {
	h := newHarness(t, testSettings(), "garbage", reply("", "", `{"done":{"text":"ok"}}`))

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", history.FinalResult())

	calls := h.llm.Calls()
	require.Len(t, calls, 2)
	last := calls[1].Messages[len(calls[1].Messages)-1].Text()
	assert.Contains(t, last, "Error of action 1/1: ...invalid model output")
	assert.Len(t, calls[1].Messages, 2, "a failed step does not enter the conversation")
}

func TestRun_LLMErrorCountsAsFailure(t *testing.T) {
	h := newHarness(t, testSettings(), reply("", "", `{"done":{"text":"ok"}}`))
	h.llm.Errs = []error{errors.New("rate limited")}

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, history.Steps, 2)
	assert.Contains(t, history.Steps[0].Results[0].Error, "rate limited")
	assert.Equal(t, "ok", history.FinalResult())
}

func TestRun_StateErrorCountsAsFailure(t *testing.T) {
	h := newHarness(t, testSettings(), reply("", "", `{"done":{"text":"ok"}}`))
	h.session.StateErr = errors.New("target closed")

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, history.Steps, 3)
	assert.Empty(t, h.llm.Calls())
	assert.Empty(t, h.signals.snapshots)
}

func TestRun_TruncatesActionsPerStep(t *testing.T) {
	s := testSettings()
	s.MaxActionsPerStep = 2
	h := newHarness(t, s,
		reply("", "", `{"input_text":{"index":0,"text":"laptop"}}`, `{"scroll_down":{}}`, `{"scroll_up":{}}`, `{"click_element":{"index":1}}`),
		reply("", "", `{"done":{"text":"ok"}}`))

	_, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"input 0 laptop", "scroll down"}, h.session.CallLog())
}

func TestRun_URLChangeInterruptsSequence(t *testing.T) {
	h := newHarness(t, testSettings(),
		reply("", "", `{"click_element":{"index":1}}`, `{"input_text":{"index":0,"text":"x"}}`),
		reply("", "", `{"done":{"text":"ok"}}`))
	h.session.ClickChangesURL = true

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"click 1"}, h.session.CallLog())
	assert.Len(t, history.Steps[0].Results, 1)
}

func TestRun_ErrorStopsSequence(t *testing.T) {
	h := newHarness(t, testSettings(),
		reply("", "", `{"click_element":{"index":9}}`, `{"scroll_down":{}}`),
		reply("", "", `{"done":{"text":"ok"}}`))

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"click 9"}, h.session.CallLog())
	assert.Contains(t, history.Steps[0].Results[0].Error, "element not found")
}

func TestRun_MemoryAndProgress(t *testing.T) {
	h := newHarness(t, testSettings(),
		reply("price is $10", "1. Opened shop", `{"scroll_down":{}}`),
		reply("shipping free", "1. Opened shop 2. Scrolled", `{"scroll_down":{}}`),
		reply("", "", `{"done":{"text":"$10"}}`))

	_, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	calls := h.llm.Calls()
	require.Len(t, calls, 3)
	third := calls[2].Messages[len(calls[2].Messages)-1].Text()
	assert.Contains(t, third, "3. Memory:\nprice is $10\nshipping free\n\n4. Task Progress:\n1. Opened shop 2. Scrolled\n")
	assert.Contains(t, third, "Result of action 1/1: Scrolled down")
	assert.Equal(t, "price is $10\n", h.signals.snapshots[1].Memory)
}

func TestRun_VisionAndJSONMode(t *testing.T) {
	s := testSettings()
	s.ToolCallInContent = false
	h := newHarness(t, s, reply("", "", `{"scroll_down":{}}`), reply("", "", `{"done":{"text":"ok"}}`))
	h.session.Screenshot = "SCREEN"

	history, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	calls := h.llm.Calls()
	require.Len(t, calls, 2)
	assert.True(t, calls[0].JSONMode)
	pending := calls[1].Messages[len(calls[1].Messages)-1]
	assert.True(t, pending.HasImage())
	assert.Equal(t, "data:image/jpeg;base64,SCREEN", pending.ContentBlocks[1].ImageURL)
	for _, m := range calls[1].Messages[:len(calls[1].Messages)-1] {
		assert.False(t, m.HasImage(), "only the pending state carries an image")
	}
	assert.Equal(t, []string{"SCREEN", "SCREEN"}, history.Screenshots())
}

func TestRun_NoVisionSkipsScreenshot(t *testing.T) {
	s := testSettings()
	s.UseVision = false
	h := newHarness(t, s, reply("", "", `{"done":{"text":"ok"}}`))
	h.session.Screenshot = "SCREEN"

	_, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, h.llm.Calls()[0].Messages[1].HasImage())
}

func TestRun_ContextCancelled(t *testing.T) {
	h := newHarness(t, testSettings(), reply("", "", `{"done":{"text":"ok"}}`))
	h.llm.Block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	h.llm.Hook = func(int) { cancel() }

	history, err := h.engine.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsContextError(err))
	assert.False(t, history.IsDone())
}

func TestRun_RetryDelayHonorsContext(t *testing.T) {
	s := testSettings()
	s.RetryDelay = time.Hour
	h := newHarness(t, s, "garbage")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := h.engine.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRun_SummarizesLongHistory(t *testing.T) {
	s := testSettings()
	s.MaxSteps = 8
	s.MaxHistoryMessages = 6
	h := newHarness(t, s, reply("", "", `{"scroll_down":{}}`))

	_, err := h.engine.Run(context.Background())
	require.NoError(t, err)

	var summaryCalls int
	for _, c := range h.llm.Calls() {
		require.NotEmpty(t, c.Messages)
		if c.Messages[0].Content == summaryPrompt {
			summaryCalls++
			continue
		}
		assert.Equal(t, entity.RoleSystem, c.Messages[0].Role)
		assert.Contains(t, c.Messages[0].Content, "browser automation agent", "system prompt preserved")
		assert.LessOrEqual(t, len(c.Messages), s.MaxHistoryMessages+1)
	}
	assert.Positive(t, summaryCalls)
}
