package tools

import "github.com/JovaniPink/mcp-browser-use/internal/application/port/output"

// RegisterDefaults installs the browser actions and the clipboard actions.
func RegisterDefaults(registry output.ActionRegistry, clipboard output.ClipboardPort, log output.LoggerPort) {
	for _, a := range BrowserActions(log) {
		registry.Register(a)
	}
	for _, a := range NewClipboardActions(clipboard, log).Actions() {
		registry.Register(a)
	}
}
