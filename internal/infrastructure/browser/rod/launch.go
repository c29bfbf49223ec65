package rod

import (
	"fmt"
	"strings"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// securityFlags relax same-origin checks for DisableSecurity sessions.
var securityFlags = []chromeArg{
	{Name: "disable-web-security"},
	{Name: "disable-site-isolation-trials"},
	{Name: "disable-features", Values: []string{"IsolateOrigins,site-per-process"}},
	{Name: "allow-running-insecure-content"},
}

type chromeArg struct {
	Name   string
	Values []string
}

// parseChromeArg splits "--name=value" into its flag and values. A bare
// "--name" yields no values.
func parseChromeArg(raw string) (chromeArg, error) {
	s := strings.TrimLeft(strings.TrimSpace(raw), "-")
	if s == "" {
		return chromeArg{}, fmt.Errorf("empty chrome argument %q", raw)
	}
	name, value, ok := strings.Cut(s, "=")
	if name == "" {
		return chromeArg{}, fmt.Errorf("malformed chrome argument %q", raw)
	}
	arg := chromeArg{Name: name}
	if ok {
		arg.Values = []string{value}
	}
	return arg, nil
}

// newLauncher maps a launch config onto a rod launcher. Malformed extra
// arguments are returned as warnings rather than failing the launch.
func newLauncher(cfg entity.BrowserLaunchConfig, noSandbox bool) (*launcher.Launcher, []error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(noSandbox)

	if cfg.ExecutablePath != "" {
		l = l.Bin(cfg.ExecutablePath)
	}
	if cfg.PersistentUserDataDir != "" {
		l = l.UserDataDir(cfg.PersistentUserDataDir)
	}
	if cfg.Proxy != nil && cfg.Proxy.Server != "" {
		l = l.Proxy(cfg.Proxy.Server)
		if cfg.Proxy.Bypass != "" {
			l = l.Set("proxy-bypass-list", cfg.Proxy.Bypass)
		}
	}
	if cfg.DisableSecurity {
		for _, a := range securityFlags {
			l = l.Set(flags.Flag(a.Name), a.Values...)
		}
	}

	var warnings []error
	for _, raw := range cfg.ExtraArgs {
		a, err := parseChromeArg(raw)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		l = l.Set(flags.Flag(a.Name), a.Values...)
	}
	return l, warnings
}
