package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type AgentSettings struct {
	Provider           string
	ModelName          string
	Temperature        float64
	MaxSteps           int
	UseVision          bool
	MaxActionsPerStep  int
	ToolCallInContent  bool
	MaxFailures        int
	RetryDelay         time.Duration
	MaxErrorLength     int
	MaxHistoryMessages int
	IncludeAttributes  []string
	HistoryGIFPath     string
}

// ProviderCredentials holds endpoints and keys for every supported LLM
// provider. Only the entries for the selected provider are used.
type ProviderCredentials struct {
	AnthropicAPIKey   string
	AnthropicEndpoint string
	OpenAIAPIKey      string
	OpenAIEndpoint    string
	DeepSeekAPIKey    string
	DeepSeekEndpoint  string
	GoogleAPIKey      string
	AzureAPIKey       string
	AzureEndpoint     string
	AzureAPIVersion   string
	OpenRouterAPIKey  string
	OllamaEndpoint    string
}

type ActionResult struct {
	IsDone           bool
	ExtractedContent string
	Error            string
	IncludeInMemory  bool
}

func ErrorResult(err error) ActionResult {
	return ActionResult{Error: err.Error(), IncludeInMemory: true}
}

// AgentBrain is the model's self-reported reasoning for one step.
type AgentBrain struct {
	PrevActionEvaluation string `json:"prev_action_evaluation"`
	ImportantContents    string `json:"important_contents"`
	CompletedContents    string `json:"completed_contents"`
	Thought              string `json:"thought"`
	Summary              string `json:"summary"`
}

// ActionModel is a single {"action_name": {params}} entry.
type ActionModel struct {
	Name   string
	Params json.RawMessage
}

func (a *ActionModel) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("action must have exactly one key, got %d", len(raw))
	}
	for name, params := range raw {
		a.Name = name
		a.Params = params
	}
	return nil
}

func (a ActionModel) MarshalJSON() ([]byte, error) {
	params := a.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	return json.Marshal(map[string]json.RawMessage{a.Name: params})
}

type AgentOutput struct {
	CurrentState AgentBrain    `json:"current_state"`
	Actions      []ActionModel `json:"action"`
}

// StepInfo carries the per-step context rendered into the state message.
type StepInfo struct {
	StepNumber   int
	MaxSteps     int
	Task         string
	AddInfos     string
	Memory       string
	TaskProgress string
}

type HistoryItem struct {
	Step        int
	URL         string
	ModelOutput *AgentOutput
	Results     []ActionResult
	Screenshot  string
	Duration    time.Duration
}

type AgentHistory struct {
	Steps []HistoryItem
}

func (h *AgentHistory) Add(item HistoryItem) {
	h.Steps = append(h.Steps, item)
}

func (h *AgentHistory) IsDone() bool {
	if h == nil || len(h.Steps) == 0 {
		return false
	}
	last := h.Steps[len(h.Steps)-1]
	return len(last.Results) > 0 && last.Results[len(last.Results)-1].IsDone
}

// FinalResult is the content reported by the done action, or "" when the
// run never finished.
func (h *AgentHistory) FinalResult() string {
	if !h.IsDone() {
		return ""
	}
	last := h.Steps[len(h.Steps)-1]
	return last.Results[len(last.Results)-1].ExtractedContent
}

func (h *AgentHistory) Errors() []string {
	if h == nil {
		return nil
	}
	var errs []string
	for _, step := range h.Steps {
		for _, r := range step.Results {
			if r.Error != "" {
				errs = append(errs, r.Error)
			}
		}
	}
	return errs
}

func (h *AgentHistory) Screenshots() []string {
	if h == nil {
		return nil
	}
	var shots []string
	for _, step := range h.Steps {
		if step.Screenshot != "" {
			shots = append(shots, step.Screenshot)
		}
	}
	return shots
}

func (h *AgentHistory) String() string {
	if h == nil || len(h.Steps) == 0 {
		return "AgentHistory(steps=0)"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "AgentHistory(steps=%d)", len(h.Steps))
	for _, step := range h.Steps {
		fmt.Fprintf(&sb, "\n[step %d] url=%s", step.Step, step.URL)
		if step.ModelOutput != nil {
			for _, a := range step.ModelOutput.Actions {
				fmt.Fprintf(&sb, " action=%s", a.Name)
			}
		}
		for _, r := range step.Results {
			switch {
			case r.Error != "":
				fmt.Fprintf(&sb, " error=%q", r.Error)
			case r.ExtractedContent != "":
				fmt.Fprintf(&sb, " result=%q", r.ExtractedContent)
			}
		}
	}
	return sb.String()
}

// RunSnapshot is the last known-good point of a run, kept for diagnostics.
type RunSnapshot struct {
	RunID        string
	Step         int
	URL          string
	Title        string
	Memory       string
	TaskProgress string
	CapturedAt   time.Time
}
