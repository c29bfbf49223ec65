package output

import (
	"context"
	"encoding/json"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

// Action is one capability the model can invoke by name. Session is nil for
// actions that do not require a browser.
type Action struct {
	Name            string
	Description     string
	Parameters      map[string]any
	RequiresSession bool
	Invoke          func(ctx context.Context, params json.RawMessage, session BrowserSession) entity.ActionResult
}

type ActionRegistry interface {
	Register(action Action)
	Get(name string) (Action, bool)
	All() []Action
	Describe() string
	Execute(ctx context.Context, name string, params json.RawMessage, session BrowserSession) entity.ActionResult
}

type ClipboardPort interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}
