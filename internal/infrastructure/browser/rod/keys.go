package rod

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-rod/rod/lib/input"
)

var namedKeys = map[string]input.Key{
	"enter":      input.Enter,
	"return":     input.Enter,
	"escape":     input.Escape,
	"esc":        input.Escape,
	"tab":        input.Tab,
	"backspace":  input.Backspace,
	"delete":     input.Delete,
	"space":      input.Space,
	"arrowup":    input.ArrowUp,
	"arrowdown":  input.ArrowDown,
	"arrowleft":  input.ArrowLeft,
	"arrowright": input.ArrowRight,
	"home":       input.Home,
	"end":        input.End,
	"pageup":     input.PageUp,
	"pagedown":   input.PageDown,
}

var modifierKeys = map[string]input.Key{
	"control": input.ControlLeft,
	"ctrl":    input.ControlLeft,
	"shift":   input.ShiftLeft,
	"alt":     input.AltLeft,
	"option":  input.AltLeft,
	"meta":    input.MetaLeft,
	"cmd":     input.MetaLeft,
	"command": input.MetaLeft,
}

// keyStroke is either a key press with held modifiers or literal text.
type keyStroke struct {
	Modifiers []input.Key
	Key       input.Key
	Text      string
}

// parseKeys understands "Enter", "Control+a", "Meta+Shift+t" and plain text.
// Text with no "+" that is not a named key is typed literally.
func parseKeys(raw string) (keyStroke, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return keyStroke{}, fmt.Errorf("empty key sequence")
	}

	if !strings.Contains(s, "+") || s == "+" {
		if k, ok := lookupKey(s); ok {
			return keyStroke{Key: k}, nil
		}
		return keyStroke{Text: raw}, nil
	}

	parts := strings.Split(s, "+")
	var stroke keyStroke
	for i, p := range parts {
		p = strings.TrimSpace(p)
		last := i == len(parts)-1
		if !last {
			m, ok := modifierKeys[strings.ToLower(p)]
			if !ok {
				return keyStroke{}, fmt.Errorf("unknown modifier %q in %q", p, raw)
			}
			stroke.Modifiers = append(stroke.Modifiers, m)
			continue
		}
		k, ok := lookupKey(p)
		if !ok {
			return keyStroke{}, fmt.Errorf("unknown key %q in %q", p, raw)
		}
		stroke.Key = k
	}
	return stroke, nil
}

func lookupKey(name string) (input.Key, bool) {
	lower := strings.ToLower(name)
	if k, ok := namedKeys[lower]; ok {
		return k, true
	}
	if k, ok := modifierKeys[lower]; ok {
		return k, true
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(lower)
		return input.Key(r), true
	}
	return 0, false
}
