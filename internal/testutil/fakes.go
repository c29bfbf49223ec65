// Package testutil holds in-memory fakes of the output ports for unit tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

var (
	_ output.BrowserSession = (*FakeSession)(nil)
	_ output.LLMPort        = (*FakeLLM)(nil)
	_ output.ClipboardPort  = (*FakeClipboard)(nil)
	_ output.SessionFactory = (*FakeSessionFactory)(nil)
)

// FakeSession records every call and serves a configurable page state.
type FakeSession struct {
	mu sync.Mutex

	URL        string
	HTML       string
	Elements   []entity.DOMElement
	Screenshot string

	StartErr error
	StopErr  error
	KillErr  error
	StateErr error
	// StartHook runs inside Start, before StartErr is returned.
	StartHook func(ctx context.Context)
	// ClickChangesURL makes ClickElement move to URL+"#clicked".
	ClickChangesURL bool

	Calls      []string
	Started    bool
	Stopped    int
	Killed     int
	Keys       []string
	StateCalls int
}

func NewFakeSession() *FakeSession {
	return &FakeSession{URL: "about:blank"}
}

func (f *FakeSession) record(call string) {
	f.Calls = append(f.Calls, call)
}

func (f *FakeSession) Start(ctx context.Context) error {
	if f.StartHook != nil {
		f.StartHook(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("start")
	if f.StartErr != nil {
		return f.StartErr
	}
	f.Started = true
	return nil
}

func (f *FakeSession) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop")
	f.Stopped++
	return f.StopErr
}

func (f *FakeSession) Kill() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("kill")
	f.Killed++
	return f.KillErr
}

func (f *FakeSession) State(_ context.Context, withScreenshot bool) (*entity.BrowserState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StateCalls++
	if f.StateErr != nil {
		return nil, f.StateErr
	}
	st := &entity.BrowserState{
		URL:      f.URL,
		Tabs:     []entity.TabInfo{{PageID: 0, URL: f.URL}},
		Elements: append([]entity.DOMElement(nil), f.Elements...),
	}
	if withScreenshot && f.Screenshot != "" {
		st.Screenshot = f.Screenshot
		st.ScreenshotFormat = "jpeg"
	}
	return st, nil
}

func (f *FakeSession) CurrentURL(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.URL, nil
}

func (f *FakeSession) PageHTML(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.HTML, nil
}

func (f *FakeSession) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("navigate " + url)
	f.URL = url
	return nil
}

func (f *FakeSession) GoBack(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("back")
	return nil
}

func (f *FakeSession) ClickElement(_ context.Context, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("click %d", index))
	if !f.hasElement(index) {
		return fmt.Errorf("index %d: %w", index, entity.ErrElementNotFound)
	}
	if f.ClickChangesURL {
		f.URL += "#clicked"
	}
	return nil
}

func (f *FakeSession) InputText(_ context.Context, index int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("input %d %s", index, text))
	if !f.hasElement(index) {
		return fmt.Errorf("index %d: %w", index, entity.ErrElementNotFound)
	}
	return nil
}

func (f *FakeSession) SendKeys(_ context.Context, keys string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("keys " + keys)
	f.Keys = append(f.Keys, keys)
	return nil
}

func (f *FakeSession) Scroll(_ context.Context, down bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if down {
		f.record("scroll down")
	} else {
		f.record("scroll up")
	}
	return nil
}

func (f *FakeSession) OpenTab(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("open " + url)
	f.URL = url
	return nil
}

func (f *FakeSession) SwitchTab(_ context.Context, pageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("switch %d", pageID))
	if pageID != 0 {
		return fmt.Errorf("no tab %d", pageID)
	}
	return nil
}

func (f *FakeSession) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

func (f *FakeSession) hasElement(index int) bool {
	for _, el := range f.Elements {
		if el.Index == index {
			return true
		}
	}
	return false
}

type FakeSessionFactory struct {
	Session *FakeSession
	Err     error
	Configs []entity.BrowserLaunchConfig
}

func (f *FakeSessionFactory) NewSession(cfg entity.BrowserLaunchConfig) (output.BrowserSession, error) {
	f.Configs = append(f.Configs, cfg)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Session, nil
}

// FakeLLM replays scripted replies in order. Once the script is exhausted it
// keeps returning the last reply.
type FakeLLM struct {
	mu       sync.Mutex
	Replies  []string
	Errs     []error
	Requests []output.ChatRequest
	// Block, when non-nil, is waited on before answering (or ctx is done).
	Block chan struct{}
	// Hook runs for each call after the request is recorded.
	Hook func(call int)
}

func NewFakeLLM(replies ...string) *FakeLLM {
	return &FakeLLM{Replies: replies}
}

func (f *FakeLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	call := len(f.Requests) - 1
	block := f.Block
	hook := f.Hook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if call < len(f.Errs) && f.Errs[call] != nil {
		return nil, f.Errs[call]
	}
	if len(f.Replies) == 0 {
		return nil, errors.New("fake llm: no replies scripted")
	}
	i := call
	if i >= len(f.Replies) {
		i = len(f.Replies) - 1
	}
	return &output.ChatResponse{Message: entity.TextMessage(entity.RoleAssistant, f.Replies[i])}, nil
}

func (f *FakeLLM) Calls() []output.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]output.ChatRequest(nil), f.Requests...)
}

type FakeClipboard struct {
	mu       sync.Mutex
	Text     string
	ReadErr  error
	WriteErr error
}

func (f *FakeClipboard) ReadAll() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Text, f.ReadErr
}

func (f *FakeClipboard) WriteAll(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.Text = text
	return nil
}
