package env

import (
	"strconv"
	"strings"
	"time"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

const (
	KeyHeadless          = "BROWSER_USE_HEADLESS"
	KeyDisableSecurity   = "BROWSER_USE_DISABLE_SECURITY"
	KeyChromePath        = "CHROME_PATH"
	KeyExtraChromiumArgs = "BROWSER_USE_EXTRA_CHROMIUM_ARGS"
	KeyAllowedDomains    = "BROWSER_USE_ALLOWED_DOMAINS"
	KeyProxyURL          = "BROWSER_USE_PROXY_URL"
	KeyNoProxy           = "BROWSER_USE_NO_PROXY"
	KeyProxyUsername     = "BROWSER_USE_PROXY_USERNAME"
	KeyProxyPassword     = "BROWSER_USE_PROXY_PASSWORD"
	KeyCDPURL            = "BROWSER_USE_CDP_URL"
	KeyDebuggingHost     = "CHROME_DEBUGGING_HOST"
	KeyDebuggingPort     = "CHROME_DEBUGGING_PORT"
	KeyPersistentSession = "CHROME_PERSISTENT_SESSION"
	KeyUserDataDir       = "CHROME_USER_DATA"

	KeyModelProvider     = "MCP_MODEL_PROVIDER"
	KeyModelName         = "MCP_MODEL_NAME"
	KeyTemperature       = "MCP_TEMPERATURE"
	KeyMaxSteps          = "MCP_MAX_STEPS"
	KeyUseVision         = "MCP_USE_VISION"
	KeyMaxActionsPerStep = "MCP_MAX_ACTIONS_PER_STEP"
	KeyToolCallInContent = "MCP_TOOL_CALL_IN_CONTENT"
	KeyMaxFailures       = "MCP_MAX_FAILURES"
	KeyRetryDelay        = "MCP_RETRY_DELAY"
	KeyHistoryGIF        = "MCP_HISTORY_GIF"
)

const (
	DefaultProvider          = "anthropic"
	DefaultModelName         = "claude-3-5-sonnet-20241022"
	DefaultTemperature       = 0.3
	DefaultMaxSteps          = 30
	DefaultMaxActionsPerStep = 5
	DefaultMaxFailures       = 3
	DefaultRetryDelay        = 10 * time.Second
	DefaultMaxErrorLength    = 400
	DefaultMaxHistory        = 24
)

var DefaultIncludeAttributes = []string{
	"title", "type", "name", "role", "tabindex",
	"aria-label", "placeholder", "value", "alt", "aria-expanded",
}

// ResolveBrowserConfig never fails: malformed values fall back to defaults
// and are reported through log.
func ResolveBrowserConfig(env map[string]string, log output.LoggerPort) entity.BrowserLaunchConfig {
	r := resolver{env: env, log: log}

	cfg := entity.BrowserLaunchConfig{
		Headless:        r.boolean(KeyHeadless, false),
		DisableSecurity: r.boolean(KeyDisableSecurity, false),
		ExecutablePath:  r.str(KeyChromePath),
		ExtraArgs:       SplitList(r.str(KeyExtraChromiumArgs)),
		AllowedDomains:  SplitList(r.str(KeyAllowedDomains)),
	}

	if server := r.str(KeyProxyURL); server != "" {
		cfg.Proxy = &entity.ProxySettings{
			Server:   server,
			Bypass:   r.str(KeyNoProxy),
			Username: r.str(KeyProxyUsername),
			Password: r.str(KeyProxyPassword),
		}
	}

	cfg.RemoteDebuggingURL = r.str(KeyCDPURL)
	if cfg.RemoteDebuggingURL == "" {
		host := r.str(KeyDebuggingHost)
		port, ok := r.port(KeyDebuggingPort)
		if host != "" && ok {
			cfg.RemoteDebuggingURL = "http://" + host + ":" + strconv.Itoa(port)
		}
	}

	if r.boolean(KeyPersistentSession, false) {
		dir := r.str(KeyUserDataDir)
		if dir == "" {
			log.Warn("Persistent session requested without a user data dir; ignoring",
				"flag", KeyPersistentSession, "missing", KeyUserDataDir)
		}
		cfg.PersistentUserDataDir = dir
	}

	return cfg
}

func ResolveAgentSettings(env map[string]string, log output.LoggerPort) entity.AgentSettings {
	r := resolver{env: env, log: log}

	provider := strings.ToLower(r.str(KeyModelProvider))
	if provider == "" {
		provider = DefaultProvider
	}
	model := r.str(KeyModelName)
	if model == "" {
		model = DefaultModelName
	}

	include := make([]string, len(DefaultIncludeAttributes))
	copy(include, DefaultIncludeAttributes)

	return entity.AgentSettings{
		Provider:           provider,
		ModelName:          model,
		Temperature:        r.float(KeyTemperature, DefaultTemperature),
		MaxSteps:           r.positiveInt(KeyMaxSteps, DefaultMaxSteps),
		UseVision:          r.boolean(KeyUseVision, true),
		MaxActionsPerStep:  r.positiveInt(KeyMaxActionsPerStep, DefaultMaxActionsPerStep),
		ToolCallInContent:  r.boolean(KeyToolCallInContent, true),
		MaxFailures:        r.positiveInt(KeyMaxFailures, DefaultMaxFailures),
		RetryDelay:         r.duration(KeyRetryDelay, DefaultRetryDelay),
		MaxErrorLength:     DefaultMaxErrorLength,
		MaxHistoryMessages: DefaultMaxHistory,
		IncludeAttributes:  include,
		HistoryGIFPath:     r.str(KeyHistoryGIF),
	}
}

func ResolveProviderCredentials(env map[string]string) entity.ProviderCredentials {
	get := func(k string) string { return strings.TrimSpace(env[k]) }
	return entity.ProviderCredentials{
		AnthropicAPIKey:   get("ANTHROPIC_API_KEY"),
		AnthropicEndpoint: get("ANTHROPIC_ENDPOINT"),
		OpenAIAPIKey:      get("OPENAI_API_KEY"),
		OpenAIEndpoint:    get("OPENAI_ENDPOINT"),
		DeepSeekAPIKey:    get("DEEPSEEK_API_KEY"),
		DeepSeekEndpoint:  get("DEEPSEEK_ENDPOINT"),
		GoogleAPIKey:      get("GOOGLE_API_KEY"),
		AzureAPIKey:       get("AZURE_OPENAI_API_KEY"),
		AzureEndpoint:     get("AZURE_OPENAI_ENDPOINT"),
		AzureAPIVersion:   get("AZURE_OPENAI_API_VERSION"),
		OpenRouterAPIKey:  get("OPENROUTER_API_KEY"),
		OllamaEndpoint:    get("OLLAMA_ENDPOINT"),
	}
}

// SplitList parses a comma separated value, trimming entries and dropping
// empty ones. It returns nil when nothing remains.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseBool accepts 1/true/yes/on and 0/false/no/off, case-insensitively.
func ParseBool(raw string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

type resolver struct {
	env map[string]string
	log output.LoggerPort
}

func (r resolver) str(key string) string {
	return strings.TrimSpace(r.env[key])
}

func (r resolver) boolean(key string, def bool) bool {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, ok := ParseBool(raw)
	if !ok {
		r.log.Warn("Invalid boolean in environment, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func (r resolver) positiveInt(key string, def int) int {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		r.log.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func (r resolver) float(key string, def float64) float64 {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		r.log.Warn("Invalid float in environment, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

// duration accepts Go durations ("15s") or a bare number of seconds.
func (r resolver) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	r.log.Warn("Invalid duration in environment, using default", "key", key, "value", raw, "default", def)
	return def
}

func (r resolver) port(key string) (int, bool) {
	raw := r.str(key)
	if raw == "" {
		return 0, false
	}
	p, err := strconv.Atoi(raw)
	if err != nil || p <= 0 || p > 65535 {
		r.log.Warn("Invalid debugging port in environment, ignoring", "key", key, "value", raw)
		return 0, false
	}
	return p, true
}
