package preview

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/conneroisu/tabsidian/internal/export"
	"github.com/conneroisu/tabsidian/internal/frontmatter"
	"github.com/conneroisu/tabsidian/internal/markdown"
	"github.com/conneroisu/tabsidian/internal/template"
)

// Page is one rendering of the current template against the sample window.
type Page struct {
	Markdown    string               `json:"markdown"`
	Frontmatter string               `json:"frontmatter"`
	Body        string               `json:"-"`
	HTML        string               `json:"html"`
	Fallback    bool                 `json:"fallback"`
	Diagnostics template.Diagnostics `json:"diagnostics"`
}

// Renderer turns a template into a Page.
type Renderer struct {
	formatter *markdown.Formatter
	composer  *frontmatter.Composer
	md        goldmark.Markdown
	now       func() time.Time
}

// NewRenderer creates a renderer. A nil now means time.Now.
func NewRenderer(formatter *markdown.Formatter, composer *frontmatter.Composer, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{
		formatter: formatter,
		composer:  composer,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now:       now,
	}
}

// Render renders tpl against the sample window. Raw HTML in the document is
// omitted from the HTML output.
func (r *Renderer) Render(ctx context.Context, tpl string) (Page, error) {
	now := r.now()
	snap := export.SampleSnapshot(now)
	opts := export.Options{
		Window:   snap.Window,
		Groups:   snap.Groups,
		Now:      func() time.Time { return now },
		Composer: r.composer,
	}

	res := r.formatter.Format(ctx, snap.Tabs, tpl, opts)
	sample, _ := export.Build(ctx, snap.Tabs, opts)

	page := Page{
		Markdown:    res.Markdown,
		Fallback:    res.Fallback,
		Diagnostics: template.Diagnose(markdown.Normalize(tpl), sample.Values()),
	}
	page.Frontmatter, page.Body = SplitFrontmatter(res.Markdown)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(page.Body), &buf); err != nil {
		return page, err
	}
	page.HTML = buf.String()
	return page, nil
}

// SplitFrontmatter separates a leading ---delimited block from the rest of
// the document. Without a block the frontmatter is empty.
func SplitFrontmatter(doc string) (string, string) {
	if !strings.HasPrefix(doc, "---\n") {
		return "", doc
	}
	rest := doc[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", doc
	}
	after := rest[end+len("\n---"):]
	if after != "" && after[0] != '\n' {
		return "", doc
	}
	return rest[:end], strings.TrimPrefix(after, "\n")
}
