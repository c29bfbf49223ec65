package env

import (
	"testing"
	"time"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*logger.LoggerAdapter, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

func TestResolveBrowserConfig_Defaults(t *testing.T) {
	log, logs := newObservedLogger()

	cfg := ResolveBrowserConfig(map[string]string{}, log)

	assert.False(t, cfg.Headless)
	assert.False(t, cfg.DisableSecurity)
	assert.Empty(t, cfg.ExecutablePath)
	assert.Nil(t, cfg.ExtraArgs)
	assert.Nil(t, cfg.AllowedDomains)
	assert.Nil(t, cfg.Proxy)
	assert.Empty(t, cfg.RemoteDebuggingURL)
	assert.Empty(t, cfg.PersistentUserDataDir)
	assert.Zero(t, logs.Len())
}

func TestResolveBrowserConfig_AllFields(t *testing.T) {
	log, _ := newObservedLogger()

	cfg := ResolveBrowserConfig(map[string]string{
		KeyHeadless:          "yes",
		KeyDisableSecurity:   "ON",
		KeyChromePath:        "/usr/bin/chromium",
		KeyExtraChromiumArgs: "--window-size=1280,800 , ,--lang=en",
		KeyAllowedDomains:    "example.com, shop.example.com,",
		KeyProxyURL:          "http://proxy:3128",
		KeyNoProxy:           "localhost",
		KeyProxyUsername:     "u",
		KeyProxyPassword:     "p",
		KeyCDPURL:            "ws://127.0.0.1:9222/devtools/browser/abc",
		KeyPersistentSession: "true",
		KeyUserDataDir:       "/tmp/profile",
	}, log)

	assert.True(t, cfg.Headless)
	assert.True(t, cfg.DisableSecurity)
	assert.Equal(t, "/usr/bin/chromium", cfg.ExecutablePath)
	assert.Equal(t, []string{"--window-size=1280", "800", "--lang=en"}, cfg.ExtraArgs)
	assert.Equal(t, []string{"example.com", "shop.example.com"}, cfg.AllowedDomains)
	require.NotNil(t, cfg.Proxy)
	assert.Equal(t, entity.ProxySettings{Server: "http://proxy:3128", Bypass: "localhost", Username: "u", Password: "p"}, *cfg.Proxy)
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/abc", cfg.RemoteDebuggingURL)
	assert.Equal(t, "/tmp/profile", cfg.PersistentUserDataDir)
}

func TestResolveBrowserConfig_DebugURLFromHostPort(t *testing.T) {
	log, _ := newObservedLogger()

	cfg := ResolveBrowserConfig(map[string]string{
		KeyDebuggingHost: "localhost",
		KeyDebuggingPort: "9222",
	}, log)

	assert.Equal(t, "http://localhost:9222", cfg.RemoteDebuggingURL)
}

func TestResolveBrowserConfig_ExplicitCDPWins(t *testing.T) {
	log, _ := newObservedLogger()

	cfg := ResolveBrowserConfig(map[string]string{
		KeyCDPURL:        "http://remote:9333",
		KeyDebuggingHost: "localhost",
		KeyDebuggingPort: "9222",
	}, log)

	assert.Equal(t, "http://remote:9333", cfg.RemoteDebuggingURL)
}

func TestResolveBrowserConfig_HostOrPortAlone(t *testing.T) {
	log, _ := newObservedLogger()

	assert.Empty(t, ResolveBrowserConfig(map[string]string{KeyDebuggingHost: "localhost"}, log).RemoteDebuggingURL)
	assert.Empty(t, ResolveBrowserConfig(map[string]string{KeyDebuggingPort: "9222"}, log).RemoteDebuggingURL)
}

func TestResolveBrowserConfig_MalformedValuesFallBack(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-integer port", map[string]string{KeyDebuggingHost: "localhost", KeyDebuggingPort: "92x2"}},
		{"out of range port", map[string]string{KeyDebuggingHost: "localhost", KeyDebuggingPort: "70000"}},
		{"non-boolean headless", map[string]string{KeyHeadless: "maybe"}},
		{"non-boolean security", map[string]string{KeyDisableSecurity: "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, logs := newObservedLogger()

			var cfg entity.BrowserLaunchConfig
			require.NotPanics(t, func() { cfg = ResolveBrowserConfig(tt.env, log) })

			assert.False(t, cfg.Headless)
			assert.False(t, cfg.DisableSecurity)
			assert.Empty(t, cfg.RemoteDebuggingURL)
			assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
		})
	}
}

func TestResolveBrowserConfig_PersistentWithoutDir(t *testing.T) {
	log, logs := newObservedLogger()

	cfg := ResolveBrowserConfig(map[string]string{KeyPersistentSession: "1"}, log)

	assert.Empty(t, cfg.PersistentUserDataDir)
	assert.Equal(t, 1, logs.FilterMessageSnippet("Persistent session").Len())
}

func TestResolveBrowserConfig_UserDataDirIgnoredWithoutFlag(t *testing.T) {
	log, _ := newObservedLogger()

	cfg := ResolveBrowserConfig(map[string]string{KeyUserDataDir: "/tmp/profile"}, log)

	assert.Empty(t, cfg.PersistentUserDataDir)
}

func TestResolveAgentSettings_Defaults(t *testing.T) {
	log, _ := newObservedLogger()

	s := ResolveAgentSettings(nil, log)

	assert.Equal(t, "anthropic", s.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20241022", s.ModelName)
	assert.InDelta(t, 0.3, s.Temperature, 1e-9)
	assert.Equal(t, 30, s.MaxSteps)
	assert.True(t, s.UseVision)
	assert.Equal(t, 5, s.MaxActionsPerStep)
	assert.True(t, s.ToolCallInContent)
	assert.Equal(t, 3, s.MaxFailures)
	assert.Equal(t, 10*time.Second, s.RetryDelay)
	assert.Equal(t, 400, s.MaxErrorLength)
	assert.Equal(t, DefaultIncludeAttributes, s.IncludeAttributes)
	assert.Empty(t, s.HistoryGIFPath)
}

func TestResolveAgentSettings_Overrides(t *testing.T) {
	log, logs := newObservedLogger()

	s := ResolveAgentSettings(map[string]string{
		KeyModelProvider:     "OpenAI",
		KeyModelName:         "gpt-4o",
		KeyTemperature:       "0.7",
		KeyMaxSteps:          "12",
		KeyUseVision:         "false",
		KeyMaxActionsPerStep: "2",
		KeyToolCallInContent: "off",
		KeyRetryDelay:        "1.5",
		KeyHistoryGIF:        "/tmp/run.gif",
	}, log)

	assert.Equal(t, "openai", s.Provider)
	assert.Equal(t, "gpt-4o", s.ModelName)
	assert.InDelta(t, 0.7, s.Temperature, 1e-9)
	assert.Equal(t, 12, s.MaxSteps)
	assert.False(t, s.UseVision)
	assert.Equal(t, 2, s.MaxActionsPerStep)
	assert.False(t, s.ToolCallInContent)
	assert.Equal(t, 1500*time.Millisecond, s.RetryDelay)
	assert.Equal(t, "/tmp/run.gif", s.HistoryGIFPath)
	assert.Zero(t, logs.Len())
}

func TestResolveAgentSettings_MalformedNumbers(t *testing.T) {
	log, logs := newObservedLogger()

	s := ResolveAgentSettings(map[string]string{
		KeyTemperature:       "hot",
		KeyMaxSteps:          "-1",
		KeyMaxActionsPerStep: "five",
		KeyRetryDelay:        "soon",
	}, log)

	assert.InDelta(t, DefaultTemperature, s.Temperature, 1e-9)
	assert.Equal(t, DefaultMaxSteps, s.MaxSteps)
	assert.Equal(t, DefaultMaxActionsPerStep, s.MaxActionsPerStep)
	assert.Equal(t, DefaultRetryDelay, s.RetryDelay)
	assert.Equal(t, 4, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestResolveProviderCredentials(t *testing.T) {
	creds := ResolveProviderCredentials(map[string]string{
		"OPENAI_API_KEY":        " sk-1 ",
		"AZURE_OPENAI_ENDPOINT": "https://x.openai.azure.com",
	})

	assert.Equal(t, "sk-1", creds.OpenAIAPIKey)
	assert.Equal(t, "https://x.openai.azure.com", creds.AzureEndpoint)
	assert.Empty(t, creds.AnthropicAPIKey)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList(" , ,"))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a,,b "))
}

func TestParseBool(t *testing.T) {
	for _, raw := range []string{"1", "true", "TRUE", "yes", "On"} {
		v, ok := ParseBool(raw)
		assert.True(t, ok, raw)
		assert.True(t, v, raw)
	}
	for _, raw := range []string{"0", "false", "No", "off"} {
		v, ok := ParseBool(raw)
		assert.True(t, ok, raw)
		assert.False(t, v, raw)
	}
	_, ok := ParseBool("y")
	assert.False(t, ok)
}

func TestParseEnviron(t *testing.T) {
	m := ParseEnviron([]string{"A=1", "B=x=y", "broken", "=nokey"})

	assert.Equal(t, map[string]string{"A": "1", "B": "x=y"}, m)
}
