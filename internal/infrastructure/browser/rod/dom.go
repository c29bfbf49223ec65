package rod

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JovaniPink/mcp-browser-use/internal/domain/entity"
)

const (
	indexAttr   = "data-mcp-index"
	maxElements = 500
	maxElemText = 120
)

// indexElementsJS tags every visible interactive element with a fresh
// index and returns them as a JSON string.
var indexElementsJS = fmt.Sprintf(`() => {
	const attr = %q;
	const limit = %d;
	document.querySelectorAll('[' + attr + ']').forEach(el => el.removeAttribute(attr));
	const selector = 'a[href], button, input:not([type=hidden]), select, textarea, summary, ' +
		'[role=button], [role=link], [role=checkbox], [role=tab], [role=menuitem], [role=option], ' +
		'[onclick], [contenteditable=""], [contenteditable=true], [tabindex]:not([tabindex="-1"])';
	const visible = el => {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) return false;
		const s = window.getComputedStyle(el);
		return s.visibility !== 'hidden' && s.display !== 'none' && s.opacity !== '0';
	};
	const out = [];
	for (const el of document.querySelectorAll(selector)) {
		if (out.length >= limit) break;
		if (!visible(el)) continue;
		const index = out.length;
		el.setAttribute(attr, String(index));
		const attributes = {};
		for (const a of el.attributes) {
			if (a.name !== attr) attributes[a.name] = a.value;
		}
		if ('value' in el && typeof el.value === 'string' && el.value !== '') attributes.value = el.value;
		out.push({
			index,
			tag: el.tagName.toLowerCase(),
			text: (el.innerText || el.textContent || '').trim(),
			attributes,
		});
	}
	return JSON.stringify(out);
}`, indexAttr, maxElements)

const scrollJS = `(down) => window.scrollBy(0, (down ? 1 : -1) * window.innerHeight)`

func elementSelector(index int) string {
	return fmt.Sprintf(`[%s="%d"]`, indexAttr, index)
}

type rawElement struct {
	Index      int               `json:"index"`
	Tag        string            `json:"tag"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes"`
}

func decodeElements(payload string) ([]entity.DOMElement, error) {
	if payload == "" {
		return nil, nil
	}
	var raw []rawElement
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}
	out := make([]entity.DOMElement, 0, len(raw))
	for _, r := range raw {
		out = append(out, entity.DOMElement{
			Index:      r.Index,
			Tag:        r.Tag,
			Text:       squash(r.Text, maxElemText),
			Attributes: r.Attributes,
		})
	}
	return out, nil
}

// squash collapses whitespace and cuts s to max runes.
func squash(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
