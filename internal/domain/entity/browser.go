package entity

import (
	"fmt"
	"sort"
	"strings"
)

type ProxySettings struct {
	Server   string
	Bypass   string
	Username string
	Password string
}

// BrowserLaunchConfig describes how a browser session is launched or attached.
// Zero values mean "unset, use the engine default".
type BrowserLaunchConfig struct {
	Headless              bool
	DisableSecurity       bool
	ExecutablePath        string
	ExtraArgs             []string
	AllowedDomains        []string
	Proxy                 *ProxySettings
	RemoteDebuggingURL    string
	PersistentUserDataDir string
}

func (c BrowserLaunchConfig) IsRemote() bool {
	return c.RemoteDebuggingURL != ""
}

type TabInfo struct {
	PageID int
	URL    string
	Title  string
}

func (t TabInfo) String() string {
	return fmt.Sprintf("Tab %d: %s - %s", t.PageID, t.URL, t.Title)
}

type DOMElement struct {
	Index      int
	Tag        string
	Text       string
	Attributes map[string]string
}

// BrowserState is the snapshot the agent reasons over at each step.
type BrowserState struct {
	URL              string
	Title            string
	Tabs             []TabInfo
	Elements         []DOMElement
	Screenshot       string
	ScreenshotFormat string
}

func (s *BrowserState) HasScreenshot() bool {
	return s != nil && s.Screenshot != ""
}

// ElementsToString renders interactive elements one per line as
// index[:]<tag attr="v">text</tag>, keeping only the listed attributes.
func ElementsToString(elements []DOMElement, includeAttributes []string) string {
	if len(elements) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, el := range elements {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d[:]<%s", el.Index, el.Tag)
		for _, name := range includeAttributes {
			if v, ok := el.Attributes[name]; ok && v != "" {
				fmt.Fprintf(&sb, " %s=%q", name, v)
			}
		}
		sb.WriteByte('>')
		sb.WriteString(el.Text)
		fmt.Fprintf(&sb, "</%s>", el.Tag)
	}
	return sb.String()
}

func TabsToString(tabs []TabInfo) string {
	sorted := make([]TabInfo, len(tabs))
	copy(sorted, tabs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PageID < sorted[j].PageID })

	lines := make([]string, 0, len(sorted))
	for _, t := range sorted {
		lines = append(lines, t.String())
	}
	return strings.Join(lines, "\n")
}
