package tabs

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultRestrictedURLs are skipped unless the user overrides the list.
var DefaultRestrictedURLs = []string{
	"chrome-extension://",
	"extension://",
	"moz-extension://",
	"safari-web-extension://",
	"edge://",
	"chrome://",
	"mail.google.com",
	"outlook.live.com",
}

// Browser-internal pages are never exported, whatever the restricted list says.
var internalPrefixes = []string{
	"edge://",
	"chrome://",
	"chrome-extension://",
	"moz-extension://",
	"about:",
	"extension://",
}

// SelectionMode controls whether only highlighted tabs are exported.
type SelectionMode string

const (
	// SelectAuto exports only highlighted tabs when more than one is highlighted.
	SelectAuto SelectionMode = "auto"
	// SelectAlways exports only highlighted tabs.
	SelectAlways SelectionMode = "always"
	// SelectNever ignores highlighting.
	SelectNever SelectionMode = "never"
)

// ParseSelectionMode accepts auto, always or never; the empty string is auto.
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch SelectionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SelectAuto:
		return SelectAuto, nil
	case SelectAlways:
		return SelectAlways, nil
	case SelectNever:
		return SelectNever, nil
	}
	return "", fmt.Errorf("unknown selection mode %q (want auto, always or never)", s)
}

// SanitizeRestrictedURLs drops blank entries and trims the rest.
func SanitizeRestrictedURLs(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Matcher decides whether a URL is restricted. Plain entries match as
// substrings of the URL. Entries containing *, ? or [ are glob patterns
// matched against the whole URL and against its hostname.
type Matcher struct {
	substrings []string
	globs      []glob.Glob
}

// NewMatcher compiles the restricted-URL entries.
func NewMatcher(entries []string) (*Matcher, error) {
	m := &Matcher{}
	for _, e := range SanitizeRestrictedURLs(entries) {
		if !strings.ContainsAny(e, "*?[") {
			m.substrings = append(m.substrings, e)
			continue
		}
		g, err := glob.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("invalid restricted URL pattern '%s': %w", e, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Restricted reports whether rawURL is internal or matches an entry. An
// empty URL is never restricted.
func (m *Matcher) Restricted(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	if IsInternalURL(rawURL) {
		return true
	}
	for _, s := range m.substrings {
		if strings.Contains(rawURL, s) {
			return true
		}
	}
	if len(m.globs) == 0 {
		return false
	}

	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Hostname()
	}
	for _, g := range m.globs {
		if g.Match(rawURL) || (host != "" && g.Match(host)) {
			return true
		}
	}
	return false
}

// IsInternalURL reports whether rawURL is a browser or extension page.
func IsInternalURL(rawURL string) bool {
	for _, p := range internalPrefixes {
		if strings.HasPrefix(rawURL, p) {
			return true
		}
	}
	return false
}

// ShouldProcess reports whether tab takes part in an export. Pinned and
// restricted tabs are skipped; with onlySelected set only highlighted tabs
// pass.
func (m *Matcher) ShouldProcess(tab Tab, onlySelected bool) bool {
	if tab.Pinned || m.Restricted(tab.URL) {
		return false
	}
	if !onlySelected {
		return true
	}
	return tab.Highlighted
}

// Select returns the tabs to export, in their original order.
func (m *Matcher) Select(all []Tab, mode SelectionMode) []Tab {
	onlySelected := false
	switch mode {
	case SelectAlways:
		onlySelected = true
	case SelectNever:
	default:
		highlighted := 0
		for _, t := range all {
			if t.Highlighted {
				highlighted++
			}
		}
		onlySelected = highlighted > 1
	}

	out := make([]Tab, 0, len(all))
	for _, t := range all {
		if m.ShouldProcess(t, onlySelected) {
			out = append(out, t)
		}
	}
	return out
}
