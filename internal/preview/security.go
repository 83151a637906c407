package preview

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

type nonceKey struct{}

// CSPConfig lists Content-Security-Policy sources per directive.
type CSPConfig struct {
	DefaultSrc     []string
	ScriptSrc      []string
	StyleSrc       []string
	ImgSrc         []string
	ConnectSrc     []string
	BaseURI        []string
	FormAction     []string
	FrameAncestors []string
}

// DefaultCSP allows the page's own nonce-tagged script, inline styles,
// images from anywhere (exported favicons and Markdown images) and
// connections back to the server.
func DefaultCSP() *CSPConfig {
	return &CSPConfig{
		DefaultSrc:     []string{"'none'"},
		StyleSrc:       []string{"'unsafe-inline'"},
		ImgSrc:         []string{"https:", "http:", "data:"},
		ConnectSrc:     []string{"'self'"},
		BaseURI:        []string{"'none'"},
		FormAction:     []string{"'none'"},
		FrameAncestors: []string{"'none'"},
	}
}

// securityHeaders sets response hardening headers and a per-request script
// nonce, available to handlers through nonceFrom.
func securityHeaders(csp *CSPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce, err := newNonce()
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			h := w.Header()
			h.Set("Content-Security-Policy", buildCSPHeader(csp, nonce))
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), nonceKey{}, nonce)))
		})
	}
}

func nonceFrom(ctx context.Context) string {
	nonce, _ := ctx.Value(nonceKey{}).(string)
	return nonce
}

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// buildCSPHeader constructs the Content-Security-Policy header value
func buildCSPHeader(csp *CSPConfig, nonce string) string {
	var directives []string
	add := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, name+" "+strings.Join(values, " "))
		}
	}

	scripts := csp.ScriptSrc
	if nonce != "" {
		scripts = append(append([]string(nil), scripts...), "'nonce-"+nonce+"'")
	}

	add("default-src", csp.DefaultSrc)
	add("script-src", scripts)
	add("style-src", csp.StyleSrc)
	add("img-src", csp.ImgSrc)
	add("connect-src", csp.ConnectSrc)
	add("base-uri", csp.BaseURI)
	add("form-action", csp.FormAction)
	add("frame-ancestors", csp.FrameAncestors)
	return strings.Join(directives, "; ")
}
