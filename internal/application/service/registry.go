package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

var _ output.ActionRegistry = (*ActionRegistryImpl)(nil)

type ActionRegistryImpl struct {
	mu      sync.RWMutex
	actions map[string]output.Action
}

func NewActionRegistry() *ActionRegistryImpl {
	return &ActionRegistryImpl{
		actions: make(map[string]output.Action),
	}
}

// Register adds or replaces the action under its name.
func (r *ActionRegistryImpl) Register(action output.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[action.Name] = action
}

func (r *ActionRegistryImpl) Get(name string) (output.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	return a, ok
}

// All returns the actions sorted by name.
func (r *ActionRegistryImpl) All() []output.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]output.Action, 0, len(r.actions))
	for _, a := range r.actions {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Describe renders one line per action for the system prompt:
// "name: description {param: type, ...}".
func (r *ActionRegistryImpl) Describe() string {
	actions := r.All()
	lines := make([]string, 0, len(actions))
	for _, a := range actions {
		lines = append(lines, fmt.Sprintf("%s: %s %s", a.Name, a.Description, describeParams(a.Parameters)))
	}
	return strings.Join(lines, "\n")
}

// Execute never returns a Go error: failures are reported in the result so
// the model can see them on the next step.
func (r *ActionRegistryImpl) Execute(ctx context.Context, name string, params json.RawMessage, session output.BrowserSession) entity.ActionResult {
	action, ok := r.Get(name)
	if !ok {
		return entity.ErrorResult(fmt.Errorf("%w: %s", entity.ErrUnknownAction, name))
	}
	if action.RequiresSession && session == nil {
		return entity.ErrorResult(fmt.Errorf("action %s: %w", name, entity.ErrSessionNotStarted))
	}
	if len(params) == 0 || string(params) == "null" {
		params = json.RawMessage("{}")
	}
	return action.Invoke(ctx, params, session)
}

func describeParams(schema map[string]any) string {
	props, _ := schema["properties"].(map[string]any)
	if len(props) == 0 {
		return "{}"
	}

	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, n := range names {
		typ := "any"
		if p, ok := props[n].(map[string]any); ok {
			if t, ok := p["type"].(string); ok {
				typ = t
			}
		}
		parts = append(parts, n+": "+typ)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
