package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/JovaniPink/mcp-browser-use/internal/application/service"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/logger"
	"github.com/JovaniPink/mcp-browser-use/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, clip *testutil.FakeClipboard) *service.ActionRegistryImpl {
	t.Helper()
	r := service.NewActionRegistry()
	RegisterDefaults(r, clip, logger.NewNop())
	return r
}

func exec(r *service.ActionRegistryImpl, s *testutil.FakeSession, name, params string) entity.ActionResult {
	return r.Execute(context.Background(), name, json.RawMessage(params), s)
}

func TestRegisterDefaults_Names(t *testing.T) {
	r := newRegistry(t, &testutil.FakeClipboard{})

	var names []string
	for _, a := range r.All() {
		names = append(names, a.Name)
	}

	assert.ElementsMatch(t, []string{
		"done", "go_to_url", "go_back", "click_element", "input_text", "send_keys",
		"scroll_down", "scroll_up", "open_tab", "switch_tab", "extract_page_content",
		"copy_to_clipboard", "paste_from_clipboard",
	}, names)
}

func TestRequiresSessionFlags(t *testing.T) {
	r := newRegistry(t, &testutil.FakeClipboard{})

	for _, a := range r.All() {
		switch a.Name {
		case "done", "copy_to_clipboard":
			assert.False(t, a.RequiresSession, a.Name)
		default:
			assert.True(t, a.RequiresSession, a.Name)
		}
	}
}

func TestDone(t *testing.T) {
	r := newRegistry(t, &testutil.FakeClipboard{})

	res := exec(r, nil, "done", `{"text":"The price is $10"}`)

	assert.True(t, res.IsDone)
	assert.Equal(t, "The price is $10", res.ExtractedContent)
	assert.Empty(t, res.Error)
}

func TestGoToURL(t *testing.T) {
	r := newRegistry(t, &testutil.FakeClipboard{})
	s := testutil.NewFakeSession()

	res := exec(r, s, "go_to_url", `{"url":"example.com/shop"}`)

	assert.Empty(t, res.Error)
	assert.Equal(t, "https://example.com/shop", s.URL)
	assert.Contains(t, res.ExtractedContent, "Navigated to https://example.com/shop")
}

func TestGoToURL_Rejects(t *testing.T) {
	r := newRegistry(t, &testutil.FakeClipboard{})
	s := testutil.NewFakeSession()

	for _, params := range []string{`{"url":""}`, `{"url":"javascript://alert(1)"}`, `{"url":"http://"}`, `{"url":5}`} {
		res := exec(r, s, "go_to_url", params)
		assert.NotEmpty(t, res.Error, params)
	}
	assert.Equal(t, "about:blank", s.URL)
}

func TestClickAndInput(t *testing.T) {
	r := newRegistry(t, &testutil.FakeClipboard{})
	s := testutil.NewFakeSession()
	s.Elements = []entity.DOMElement{{Index: 0, Tag: "input"}, {Index: 1, Tag: "button"}}

	assert.Empty(t, exec(r, s, "input_text", `{"index":0,"text":"laptop"}`).Error)
	assert.Empty(t, exec(r, s, "click_element", `{"index":1}`).Error)

	res := exec(r, s, "click_element", `{"index":7}`)
	assert.Contains(t, res.Error, "element not found")

	res = exec(r, s, "click_element", `{}`)
	assert.Contains(t, res.Error, "index is required")

	assert.Equal(t, []string{"input 0 laptop", "click 1", "click 7"}, s.CallLog())
}

func TestSendKeysScrollTabs(t *testing.T) {
	r := newRegistry(t, &testutil.FakeClipboard{})
	s := testutil.NewFakeSession()

	assert.Empty(t, exec(r, s, "send_keys", `{"keys":"Enter"}`).Error)
	assert.NotEmpty(t, exec(r, s, "send_keys", `{"keys":"  "}`).Error)
	assert.Empty(t, exec(r, s, "scroll_down", `{}`).Error)
	assert.Empty(t, exec(r, s, "scroll_up", ``).Error)
	assert.Empty(t, exec(r, s, "open_tab", `{"url":"https://example.org"}`).Error)
	assert.Empty(t, exec(r, s, "switch_tab", `{"page_id":0}`).Error)
	assert.NotEmpty(t, exec(r, s, "switch_tab", `{"page_id":3}`).Error)
	assert.Empty(t, exec(r, s, "go_back", `{}`).Error)

	assert.Equal(t, []string{
		"keys Enter", "scroll down", "scroll up", "open https://example.org",
		"switch 0", "switch 3", "back",
	}, s.CallLog())
}

func TestExtractPageContent(t *testing.T) {
	r := newRegistry(t, &testutil.FakeClipboard{})
	s := testutil.NewFakeSession()
	s.URL = "https://shop.example.com"
	s.HTML = `<html><body><h1>Laptop</h1><script>x()</script><p>Price: $999</p></body></html>`

	res := exec(r, s, "extract_page_content", `{}`)

	assert.Empty(t, res.Error)
	assert.Equal(t, "Page content of https://shop.example.com:\nLaptop\nPrice: $999", res.ExtractedContent)
}

func TestCopyToClipboard(t *testing.T) {
	clip := &testutil.FakeClipboard{}
	r := newRegistry(t, clip)

	res := exec(r, nil, "copy_to_clipboard", `{"text":"hello"}`)

	assert.Empty(t, res.Error)
	assert.Equal(t, "hello", res.ExtractedContent)
	assert.Equal(t, "hello", clip.Text)
}

func TestCopyToClipboard_Error(t *testing.T) {
	clip := &testutil.FakeClipboard{WriteErr: errors.New("no display")}
	r := newRegistry(t, clip)

	res := exec(r, nil, "copy_to_clipboard", `{"text":"hello"}`)

	assert.Contains(t, res.Error, "no display")
	assert.Empty(t, res.ExtractedContent)
}

func TestPasteFromClipboard(t *testing.T) {
	tests := []struct {
		goos string
		keys string
	}{
		{"darwin", "Meta+v"},
		{"linux", "Control+v"},
		{"windows", "Control+v"},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			clip := &testutil.FakeClipboard{Text: "pasted value"}
			c := NewClipboardActions(clip, logger.NewNop())
			c.goos = tt.goos
			r := service.NewActionRegistry()
			for _, a := range c.Actions() {
				r.Register(a)
			}
			s := testutil.NewFakeSession()

			res := exec(r, s, "paste_from_clipboard", `{}`)

			assert.Empty(t, res.Error)
			assert.Equal(t, "pasted value", res.ExtractedContent)
			require.Len(t, s.Keys, 1)
			assert.Equal(t, tt.keys, s.Keys[0])
		})
	}
}

func TestPasteFromClipboard_ReadError(t *testing.T) {
	clip := &testutil.FakeClipboard{ReadErr: errors.New("clipboard unavailable")}
	r := newRegistry(t, clip)
	s := testutil.NewFakeSession()

	res := exec(r, s, "paste_from_clipboard", `{}`)

	assert.Contains(t, res.Error, "clipboard unavailable")
	assert.Empty(t, s.Keys)
}

func TestPasteFromClipboard_NeedsSession(t *testing.T) {
	r := newRegistry(t, &testutil.FakeClipboard{Text: "x"})

	res := r.Execute(context.Background(), "paste_from_clipboard", nil, nil)

	assert.Contains(t, res.Error, entity.ErrSessionNotStarted.Error())
}

func TestNormalizeURL(t *testing.T) {
	u, err := normalizeURL(" about:blank ")
	require.NoError(t, err)
	assert.Equal(t, "about:blank", u)

	_, err = normalizeURL("ftp://x.org")
	assert.ErrorIs(t, err, entity.ErrInvalidURL)
}
