package export

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/unicode/norm"
)

// URLParts are the components of a tab URL. Every field is empty when the
// URL does not parse as an absolute URL.
type URLParts struct {
	Hostname string
	// Domain is the registrable domain (eTLD+1), or the hostname when it
	// has none, such as an IP address or localhost.
	Domain   string
	Origin   string
	Protocol string
	Pathname string
	Search   string
	Hash     string
}

// ParseURL splits raw into its parts. It never fails.
func ParseURL(raw string) URLParts {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" {
		return URLParts{}
	}

	p := URLParts{
		Hostname: strings.ToLower(u.Hostname()),
		Protocol: u.Scheme + ":",
		Pathname: u.EscapedPath(),
	}
	if u.Opaque != "" {
		p.Pathname = u.Opaque
	}
	if u.Host != "" {
		p.Origin = u.Scheme + "://" + originHost(u)
		if p.Pathname == "" {
			p.Pathname = "/"
		}
	}
	if u.RawQuery != "" {
		p.Search = "?" + u.RawQuery
	}
	if u.Fragment != "" {
		p.Hash = "#" + u.EscapedFragment()
	}
	if p.Hostname != "" {
		p.Domain = p.Hostname
		if net.ParseIP(p.Hostname) == nil {
			if d, err := publicsuffix.EffectiveTLDPlusOne(p.Hostname); err == nil {
				p.Domain = d
			}
		}
	}
	return p
}

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// originHost is the lowercased host of u without the scheme's default port.
func originHost(u *url.URL) string {
	host := strings.ToLower(u.Host)
	if port := u.Port(); port != "" && defaultPorts[u.Scheme] == port {
		host = strings.TrimSuffix(host, ":"+port)
	}
	return host
}

var (
	percentEscape  = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	headingMarkers = regexp.MustCompile(`^#+\s*`)
)

// UnescapeTitle cleans a tab title for display. Titles containing + or a
// percent escape are decoded, leading whitespace and Markdown heading
// markers are stripped, and the result is NFC-normalised. A title that is
// nothing but heading markers keeps them.
func UnescapeTitle(raw string) string {
	if raw == "" {
		return ""
	}

	decoded := raw
	if strings.Contains(raw, "+") || percentEscape.MatchString(raw) {
		candidate := strings.ReplaceAll(raw, "+", " ")
		decoded = candidate
		if s, err := url.PathUnescape(candidate); err == nil && utf8.ValidString(s) {
			decoded = s
		}
	}

	trimmed := strings.TrimLeftFunc(decoded, unicode.IsSpace)
	cleaned := headingMarkers.ReplaceAllString(trimmed, "")
	if cleaned == "" {
		cleaned = trimmed
	}
	return norm.NFC.String(cleaned)
}
