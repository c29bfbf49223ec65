package executor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

var ErrInvalidModelOutput = errors.New("invalid model output")

// ParseAgentOutput extracts the JSON object from a model reply. Markdown
// fences and prose around the object are tolerated.
func ParseAgentOutput(content string) (*entity.AgentOutput, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrInvalidModelOutput)
	}

	var out entity.AgentOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelOutput, err)
	}
	if len(out.Actions) == 0 {
		return nil, fmt.Errorf("%w: no actions", ErrInvalidModelOutput)
	}
	return &out, nil
}

func extractJSONObject(content string) string {
	s := strings.TrimSpace(content)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		s = rest
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
