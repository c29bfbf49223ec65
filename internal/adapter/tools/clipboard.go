package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

type ClipboardActions struct {
	clipboard output.ClipboardPort
	logger    output.LoggerPort
	goos      string
}

func NewClipboardActions(clipboard output.ClipboardPort, logger output.LoggerPort) *ClipboardActions {
	return &ClipboardActions{clipboard: clipboard, logger: logger, goos: runtime.GOOS}
}

// PasteShortcut is the platform paste chord: Meta+v on macOS, Control+v elsewhere.
func (c *ClipboardActions) PasteShortcut() string {
	if c.goos == "darwin" {
		return "Meta+v"
	}
	return "Control+v"
}

func (c *ClipboardActions) Actions() []output.Action {
	return []output.Action{c.copyAction(), c.pasteAction()}
}

func (c *ClipboardActions) copyAction() output.Action {
	return output.Action{
		Name:        "copy_to_clipboard",
		Description: "Copy text to clipboard",
		Parameters:  objectSchema(map[string]any{"text": prop("string", "Text to copy")}, "text"),
		Invoke: func(_ context.Context, params json.RawMessage, _ output.BrowserSession) entity.ActionResult {
			in, err := decode[struct {
				Text string `json:"text"`
			}](params)
			if err != nil {
				return entity.ErrorResult(err)
			}
			if err := c.clipboard.WriteAll(in.Text); err != nil {
				c.logger.Warn("Clipboard write failed", "error", err)
				return entity.ErrorResult(fmt.Errorf("copy to clipboard: %w", err))
			}
			return entity.ActionResult{ExtractedContent: in.Text}
		},
	}
}

func (c *ClipboardActions) pasteAction() output.Action {
	return output.Action{
		Name:            "paste_from_clipboard",
		Description:     "Paste text from clipboard into the focused element",
		Parameters:      objectSchema(map[string]any{}),
		RequiresSession: true,
		Invoke: func(ctx context.Context, _ json.RawMessage, s output.BrowserSession) entity.ActionResult {
			text, err := c.clipboard.ReadAll()
			if err != nil {
				c.logger.Warn("Clipboard read failed", "error", err)
				return entity.ErrorResult(fmt.Errorf("paste from clipboard: %w", err))
			}
			if err := s.SendKeys(ctx, c.PasteShortcut()); err != nil {
				return entity.ErrorResult(fmt.Errorf("paste from clipboard: %w", err))
			}
			return entity.ActionResult{ExtractedContent: text}
		},
	}
}
