package integration

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
	"github.com/JovaniPink/mcp-browser-use/internal/testutil"

	"github.com/stretchr/testify/require"
)

type scriptedLLMs struct {
	llm       *testutil.FakeLLM
	providers []string
}

func (f *scriptedLLMs) NewLLM(settings entity.AgentSettings, _ entity.ProviderCredentials) (output.LLMPort, error) {
	f.providers = append(f.providers, settings.Provider)
	return f.llm, nil
}

func step(actions ...string) string {
	return fmt.Sprintf(`{"current_state":{"prev_action_evaluation":"Unknown","important_contents":"","completed_contents":"","thought":"t","summary":"s"},"action":[%s]}`,
		strings.Join(actions, ","))
}

// quietEnv pins every variable the resolvers read so the host environment
// cannot leak into the run.
func quietEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MCP_MODEL_PROVIDER", "openai")
	t.Setenv("MCP_USE_VISION", "false")
	t.Setenv("MCP_MAX_STEPS", "6")
	t.Setenv("MCP_HISTORY_GIF", "")
	t.Setenv("BROWSER_USE_HEADLESS", "true")
	t.Setenv("BROWSER_USE_ALLOWED_DOMAINS", "")
	t.Setenv("BROWSER_USE_CDP_URL", "")
	t.Setenv("CHROME_DEBUGGING_PORT", "")
	t.Setenv("CHROME_PERSISTENT_SESSION", "false")
	t.Setenv("BROWSER_USE_PROXY_URL", "")
}

type rpcReply struct {
	ID     json.RawMessage `json:"id"`
	Result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func readReplies(t *testing.T, r io.Reader) map[string]rpcReply {
	t.Helper()
	out := map[string]rpcReply{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var rep rpcReply
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rep), sc.Text())
		out[string(rep.ID)] = rep
	}
	require.NoError(t, sc.Err())
	return out
}
