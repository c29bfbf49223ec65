package prompts

import (
	"fmt"
	"strings"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

// RenderStateMessage formats the browser state, the previous step's action
// results and the step context into the user message sent to the model.
// It is pure: identical inputs always produce identical messages.
func RenderStateMessage(
	state *entity.BrowserState,
	results []entity.ActionResult,
	step *entity.StepInfo,
	includeAttributes []string,
	maxErrorLength int,
) entity.Message {
	if state == nil {
		state = &entity.BrowserState{}
	}

	var stepText, task, addInfos, memory, progress string
	if step != nil {
		stepText = fmt.Sprintf("Step %d/%d", step.StepNumber, step.MaxSteps)
		task = step.Task
		addInfos = step.AddInfos
		memory = step.Memory
		progress = step.TaskProgress
	}

	var sb strings.Builder
	sb.WriteString(stepText)
	sb.WriteString("\n1. Task: ")
	sb.WriteString(task)
	sb.WriteString("\n2. Hints(Optional):\n")
	sb.WriteString(addInfos)
	sb.WriteString("\n3. Memory:\n")
	sb.WriteString(memory)
	sb.WriteString("\n4. Task Progress:\n")
	sb.WriteString(progress)
	sb.WriteString("\n5. Current url: ")
	sb.WriteString(state.URL)
	sb.WriteString("\n6. Available tabs:\n")
	sb.WriteString(entity.TabsToString(state.Tabs))
	sb.WriteString("\n7. Interactive elements:\n")
	sb.WriteString(entity.ElementsToString(state.Elements, includeAttributes))
	sb.WriteByte('\n')

	n := len(results)
	for i, r := range results {
		if r.ExtractedContent != "" {
			fmt.Fprintf(&sb, "\nResult of action %d/%d: %s", i+1, n, r.ExtractedContent)
		}
		if r.Error != "" {
			fmt.Fprintf(&sb, "\nError of action %d/%d: ...%s", i+1, n, tail(r.Error, maxErrorLength))
		}
	}

	text := sb.String()
	if !state.HasScreenshot() {
		return entity.TextMessage(entity.RoleUser, text)
	}

	return entity.Message{
		Role: entity.RoleUser,
		ContentBlocks: []entity.ContentBlock{
			{Type: entity.ContentTypeText, Text: text},
			{Type: entity.ContentTypeImageURL, ImageURL: ImageDataURL(state.ScreenshotFormat, state.Screenshot)},
		},
	}
}

// ImageDataURL embeds a base64 payload unmodified in a data: URL.
func ImageDataURL(format, base64Data string) string {
	if format == "" {
		format = "png"
	}
	return "data:image/" + format + ";base64," + base64Data
}

// tail keeps the last max characters (runes) of s. A non-positive max keeps all.
func tail(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[len(r)-max:])
}
