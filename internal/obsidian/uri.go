// Package obsidian builds obsidian://new URIs that create a note from an
// export, and validates the vault and note path they point at.
package obsidian

import (
	"fmt"
	"net/url"
	"strings"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
)

const (
	// Scheme is the note-creation endpoint.
	Scheme = "obsidian://new"
	// MaxURILength is the longest URI handed to the operating system.
	MaxURILength = 60000
)

// Params are the query parameters of a note-creation URI.
type Params struct {
	Vault string
	File  string
	// Content is sent only when HasContent is set.
	Content    string
	HasContent bool
	Clipboard  bool
	Overwrite  bool
	Silent     bool
}

// URI is a built URI with its length.
type URI struct {
	URL    string
	Length int
}

// BuildURL encodes p. Parameters appear in the order file, overwrite,
// vault, clipboard, silent, content; empty values are left out.
func BuildURL(p Params) URI {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+EncodeComponent(value))
		}
	}

	add("file", p.File)
	if p.Overwrite {
		add("overwrite", "true")
	}
	add("vault", p.Vault)
	if p.Clipboard {
		add("clipboard", "true")
	}
	if p.Silent {
		add("silent", "true")
	}
	if p.HasContent {
		add("content", p.Content)
	}

	u := Scheme
	if len(parts) > 0 {
		u += "?" + strings.Join(parts, "&")
	}
	return URI{URL: u, Length: len(u)}
}

var componentFixups = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s like a browser's encodeURIComponent:
// spaces become %20, never +, and !'()* stay literal.
func EncodeComponent(s string) string {
	return componentFixups.Replace(url.QueryEscape(s))
}

// Plan picks the URI for delivering markdown to notePath. When the document
// is already on the clipboard the content is inlined only if the URI stays
// within MaxURILength, otherwise the app reads the clipboard. Without the
// clipboard the content must be inlined, and an oversized URI is an error.
func Plan(markdown string, clipboardOK bool, vault, notePath string) (URI, error) {
	base := Params{Vault: vault, File: notePath, Overwrite: true}

	if clipboardOK {
		withContent := base
		withContent.Clipboard = true
		withContent.Content = markdown
		withContent.HasContent = true
		if u := BuildURL(withContent); u.Length <= MaxURILength {
			return u, nil
		}
		clipboardOnly := base
		clipboardOnly.Clipboard = true
		return BuildURL(clipboardOnly), nil
	}

	base.Content = markdown
	base.HasContent = true
	u := BuildURL(base)
	if u.Length > MaxURILength {
		return u, tserrors.NewDeliveryError(tserrors.ErrCodeURITooLong,
			fmt.Sprintf("note URI is %d characters, limit is %d", u.Length, MaxURILength), nil).
			WithContext("note_path", notePath)
	}
	return u, nil
}
