package output

import "github.com/JovaniPink/mcp-browser-use/internal/domain/entity"

// LLMFactory builds a chat client for the provider named in settings.
type LLMFactory interface {
	NewLLM(settings entity.AgentSettings, creds entity.ProviderCredentials) (LLMPort, error)
}

// HistoryRecorder renders the screenshots of a finished run to disk.
type HistoryRecorder interface {
	WriteGIF(path string, history *entity.AgentHistory) error
}

// EnvSource returns a snapshot of the process environment.
type EnvSource interface {
	Environ() map[string]string
}
