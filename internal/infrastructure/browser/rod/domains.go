package rod

import (
	"net/url"
	"strings"
)

// DomainAllowed reports whether rawURL may be loaded. An empty allow list
// permits everything. Entries match the host itself and its subdomains;
// a leading "*." is accepted and ignored.
func DomainAllowed(allowed []string, rawURL string) bool {
	if len(allowed) == 0 {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "about", "data", "blob", "chrome", "devtools":
		return true
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range allowed {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "*.")
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
