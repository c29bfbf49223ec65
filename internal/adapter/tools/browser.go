package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/browser/htmlclean"
)

const maxExtractedText = 20000

func objectSchema(props map[string]any, required ...string) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func decode[T any](params json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(params, &v); err != nil {
		return v, fmt.Errorf("invalid parameters: %w", err)
	}
	return v, nil
}

// BrowserActions builds the session-bound actions and the done action.
func BrowserActions(log output.LoggerPort) []output.Action {
	return []output.Action{
		doneAction(),
		{
			Name:            "go_to_url",
			Description:     "Navigate to URL in the current tab",
			Parameters:      objectSchema(map[string]any{"url": prop("string", "Absolute URL")}, "url"),
			RequiresSession: true,
			Invoke: func(ctx context.Context, params json.RawMessage, s output.BrowserSession) entity.ActionResult {
				in, err := decode[struct {
					URL string `json:"url"`
				}](params)
				if err != nil {
					return entity.ErrorResult(err)
				}
				target, err := normalizeURL(in.URL)
				if err != nil {
					return entity.ErrorResult(err)
				}
				if err := s.Navigate(ctx, target); err != nil {
					return entity.ErrorResult(err)
				}
				log.Debug("Navigated", "url", target)
				return memory(fmt.Sprintf("Navigated to %s", target))
			},
		},
		{
			Name:            "go_back",
			Description:     "Go back to the previous page",
			Parameters:      objectSchema(map[string]any{}),
			RequiresSession: true,
			Invoke: func(ctx context.Context, _ json.RawMessage, s output.BrowserSession) entity.ActionResult {
				if err := s.GoBack(ctx); err != nil {
					return entity.ErrorResult(err)
				}
				return memory("Navigated back")
			},
		},
		{
			Name:            "click_element",
			Description:     "Click the element with the given index",
			Parameters:      objectSchema(map[string]any{"index": prop("integer", "Element index")}, "index"),
			RequiresSession: true,
			Invoke: func(ctx context.Context, params json.RawMessage, s output.BrowserSession) entity.ActionResult {
				in, err := decode[struct {
					Index *int `json:"index"`
				}](params)
				if err != nil {
					return entity.ErrorResult(err)
				}
				if in.Index == nil {
					return entity.ErrorResult(fmt.Errorf("invalid parameters: index is required"))
				}
				if err := s.ClickElement(ctx, *in.Index); err != nil {
					return entity.ErrorResult(err)
				}
				return memory(fmt.Sprintf("Clicked element %d", *in.Index))
			},
		},
		{
			Name:        "input_text",
			Description: "Type text into the input element with the given index",
			Parameters: objectSchema(map[string]any{
				"index": prop("integer", "Element index"),
				"text":  prop("string", "Text to type"),
			}, "index", "text"),
			RequiresSession: true,
			Invoke: func(ctx context.Context, params json.RawMessage, s output.BrowserSession) entity.ActionResult {
				in, err := decode[struct {
					Index *int   `json:"index"`
					Text  string `json:"text"`
				}](params)
				if err != nil {
					return entity.ErrorResult(err)
				}
				if in.Index == nil {
					return entity.ErrorResult(fmt.Errorf("invalid parameters: index is required"))
				}
				if err := s.InputText(ctx, *in.Index, in.Text); err != nil {
					return entity.ErrorResult(err)
				}
				return memory(fmt.Sprintf("Input %q into element %d", in.Text, *in.Index))
			},
		},
		{
			Name:            "send_keys",
			Description:     `Send keyboard keys such as "Enter", "Escape" or "Control+a"`,
			Parameters:      objectSchema(map[string]any{"keys": prop("string", "Key or combination")}, "keys"),
			RequiresSession: true,
			Invoke: func(ctx context.Context, params json.RawMessage, s output.BrowserSession) entity.ActionResult {
				in, err := decode[struct {
					Keys string `json:"keys"`
				}](params)
				if err != nil {
					return entity.ErrorResult(err)
				}
				if strings.TrimSpace(in.Keys) == "" {
					return entity.ErrorResult(fmt.Errorf("invalid parameters: keys is required"))
				}
				if err := s.SendKeys(ctx, in.Keys); err != nil {
					return entity.ErrorResult(err)
				}
				return memory(fmt.Sprintf("Sent keys: %s", in.Keys))
			},
		},
		scrollAction("scroll_down", "Scroll the page down by one screen", true),
		scrollAction("scroll_up", "Scroll the page up by one screen", false),
		{
			Name:            "open_tab",
			Description:     "Open URL in a new tab and switch to it",
			Parameters:      objectSchema(map[string]any{"url": prop("string", "Absolute URL")}, "url"),
			RequiresSession: true,
			Invoke: func(ctx context.Context, params json.RawMessage, s output.BrowserSession) entity.ActionResult {
				in, err := decode[struct {
					URL string `json:"url"`
				}](params)
				if err != nil {
					return entity.ErrorResult(err)
				}
				target, err := normalizeURL(in.URL)
				if err != nil {
					return entity.ErrorResult(err)
				}
				if err := s.OpenTab(ctx, target); err != nil {
					return entity.ErrorResult(err)
				}
				return memory(fmt.Sprintf("Opened new tab with %s", target))
			},
		},
		{
			Name:            "switch_tab",
			Description:     "Switch to the tab with the given page_id",
			Parameters:      objectSchema(map[string]any{"page_id": prop("integer", "Tab id from the tab list")}, "page_id"),
			RequiresSession: true,
			Invoke: func(ctx context.Context, params json.RawMessage, s output.BrowserSession) entity.ActionResult {
				in, err := decode[struct {
					PageID int `json:"page_id"`
				}](params)
				if err != nil {
					return entity.ErrorResult(err)
				}
				if err := s.SwitchTab(ctx, in.PageID); err != nil {
					return entity.ErrorResult(err)
				}
				return memory(fmt.Sprintf("Switched to tab %d", in.PageID))
			},
		},
		{
			Name:            "extract_page_content",
			Description:     "Extract the visible text of the current page",
			Parameters:      objectSchema(map[string]any{}),
			RequiresSession: true,
			Invoke: func(ctx context.Context, _ json.RawMessage, s output.BrowserSession) entity.ActionResult {
				raw, err := s.PageHTML(ctx)
				if err != nil {
					return entity.ErrorResult(err)
				}
				pageURL, _ := s.CurrentURL(ctx)
				text := htmlclean.Text(raw, maxExtractedText)
				return memory(fmt.Sprintf("Page content of %s:\n%s", pageURL, text))
			},
		},
	}
}

func doneAction() output.Action {
	return output.Action{
		Name:        "done",
		Description: "Complete the task and report the final answer",
		Parameters:  objectSchema(map[string]any{"text": prop("string", "Final answer for the user")}, "text"),
		Invoke: func(_ context.Context, params json.RawMessage, _ output.BrowserSession) entity.ActionResult {
			in, err := decode[struct {
				Text string `json:"text"`
			}](params)
			if err != nil {
				return entity.ErrorResult(err)
			}
			return entity.ActionResult{IsDone: true, ExtractedContent: in.Text, IncludeInMemory: true}
		},
	}
}

func scrollAction(name, description string, down bool) output.Action {
	return output.Action{
		Name:            name,
		Description:     description,
		Parameters:      objectSchema(map[string]any{}),
		RequiresSession: true,
		Invoke: func(ctx context.Context, _ json.RawMessage, s output.BrowserSession) entity.ActionResult {
			if err := s.Scroll(ctx, down); err != nil {
				return entity.ErrorResult(err)
			}
			dir := "up"
			if down {
				dir = "down"
			}
			return memory("Scrolled " + dir)
		},
	}
}

func memory(content string) entity.ActionResult {
	return entity.ActionResult{ExtractedContent: content, IncludeInMemory: true}
}

// normalizeURL adds https:// to scheme-less input and rejects anything that
// is not http(s), about: or file:.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", entity.ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "about:") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return "", fmt.Errorf("%w: missing host in %q", entity.ErrInvalidURL, raw)
		}
	case "about", "file":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", entity.ErrInvalidURL, u.Scheme)
	}
	return u.String(), nil
}
