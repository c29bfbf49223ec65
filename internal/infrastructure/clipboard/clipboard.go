// Package clipboard exposes the host system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"

	"github.com/atotto/clipboard"
)

var _ output.ClipboardPort = System{}

var ErrUnavailable = errors.New("system clipboard unavailable")

// System reads and writes the OS clipboard. On Linux it needs xclip, xsel
// or wl-clipboard on PATH.
type System struct{}

func (System) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", ErrUnavailable
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
