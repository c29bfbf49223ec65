package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed system_prompt.txt
var SystemPromptTemplate string

var systemTmpl = template.Must(template.New("system").Parse(SystemPromptTemplate))

type SystemPromptData struct {
	Now               string
	MaxActionsPerStep int
	Actions           string
}

// GenerateSystemPrompt renders the agent system prompt. actions is the
// registry's one-line-per-action description block.
func GenerateSystemPrompt(maxActionsPerStep int, actions string, now time.Time) (string, error) {
	data := SystemPromptData{
		Now:               now.Format("2006-01-02 15:04"),
		MaxActionsPerStep: maxActionsPerStep,
		Actions:           actions,
	}

	var buf bytes.Buffer
	if err := systemTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return buf.String(), nil
}
