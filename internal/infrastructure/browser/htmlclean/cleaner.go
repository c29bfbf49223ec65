// Package htmlclean reduces page HTML to what a model needs to read it.
package htmlclean

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Config struct {
	TagsToRemove  []string
	AttrsToRemove []string
	MaxOutputSize int
	// DropAttr, when set, removes any additional attribute it returns true for.
	DropAttr func(attr html.Attribute) bool
}

var DefaultConfig = Config{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title", "template",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
	},
	MaxOutputSize: 130_000,
}

const truncatedMarker = "\n<!-- truncated -->"

// Clean returns the <body> of rawHTML without comments, noise tags, inline
// handlers and data-/aria- attributes. Unparseable input is returned as is.
func Clean(rawHTML string, cfg *Config) string {
	if cfg == nil {
		cfg = &DefaultConfig
	}

	body, ok := parseBody(rawHTML)
	if !ok {
		return rawHTML
	}

	cleanNode(body, cfg)

	return truncate(renderOr(body, rawHTML), cfg.MaxOutputSize, truncatedMarker)
}

// renderOr serialises n, falling back to fallback when the tree cannot be
// rendered.
func renderOr(n *html.Node, fallback string) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return fallback
	}
	return sb.String()
}

// Text returns the visible text of the body, one block element per line,
// with runs of whitespace collapsed.
func Text(rawHTML string, maxSize int) string {
	body, ok := parseBody(rawHTML)
	if !ok {
		return ""
	}
	cleanNode(body, &DefaultConfig)

	var lines []string
	var cur strings.Builder
	flush := func() {
		if s := strings.Join(strings.Fields(cur.String()), " "); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
			return
		case html.ElementNode:
			if isBlock(n.DataAtom) {
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)
	flush()

	return truncate(strings.Join(lines, "\n"), maxSize, "\n...")
}

func parseBody(rawHTML string) (*html.Node, bool) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, false
	}
	body := findBody(doc)
	return body, body != nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg *Config) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && contains(cfg.TagsToRemove, c.Data):
			n.RemoveChild(c)
		case c.Type == html.ElementNode:
			c.Attr = filterAttrs(c.Attr, cfg)
			cleanNode(c, cfg)
		}
		c = next
	}
}

func filterAttrs(attrs []html.Attribute, cfg *Config) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		if dropAttr(a, cfg) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func dropAttr(a html.Attribute, cfg *Config) bool {
	if contains(cfg.AttrsToRemove, a.Key) {
		return true
	}
	if strings.HasPrefix(a.Key, "data-") || strings.HasPrefix(a.Key, "aria-") || strings.HasPrefix(a.Key, "on") {
		return true
	}
	return cfg.DropAttr != nil && cfg.DropAttr(a)
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer, atom.Main, atom.Nav,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Ul, atom.Ol, atom.Tr, atom.Table, atom.Br, atom.Form, atom.Label, atom.Pre, atom.Blockquote:
		return true
	}
	return false
}

func truncate(s string, max int, marker string) string {
	if max > 0 && len(s) > max {
		return s[:max] + marker
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
