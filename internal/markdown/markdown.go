// Package markdown renders the export document from a user template,
// falling back to the default template when the user's one is broken.
package markdown

import (
	"context"
	"strings"

	"github.com/conneroisu/tabsidian/internal/export"
	"github.com/conneroisu/tabsidian/internal/logging"
	"github.com/conneroisu/tabsidian/internal/tabs"
	"github.com/conneroisu/tabsidian/internal/template"
)

// DefaultTemplate emits the frontmatter followed by a heading and link per tab.
const DefaultTemplate = "{{{frontmatter}}}\n{{#tabs}}\n## {{title}}\n[{{url}}]({{url}})\n\n{{/tabs}}"

// Result is a rendered document.
type Result struct {
	Markdown  string
	Timestamp export.Timestamp
	// Fallback is set when the requested template failed and the default
	// template was used; TemplateError holds the failure.
	Fallback      bool
	TemplateError error
}

// Formatter renders documents.
type Formatter struct {
	logger logging.Logger
}

// NewFormatter creates a formatter. A nil logger discards diagnostics.
func NewFormatter(logger logging.Logger) *Formatter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Formatter{logger: logger.WithComponent("markdown")}
}

// Format builds the context for list and renders format against it. An
// empty format means DefaultTemplate, and a legacy single-brace format is
// upgraded first. Format never fails: a template error is logged and the
// default template is rendered instead.
func (f *Formatter) Format(ctx context.Context, list []tabs.Tab, format string, opts export.Options) Result {
	c, ts := export.Build(ctx, list, opts)
	values := c.Values()

	src := Normalize(format)
	out, err := template.Render(src, values)
	if err == nil {
		return Result{Markdown: out, Timestamp: ts}
	}

	f.logger.Warn(ctx, err, "template failed to render, using default template",
		"template_error", template.Describe(err))

	// the default template is static and well formed
	out, _ = template.Render(DefaultTemplate, values)
	return Result{Markdown: out, Timestamp: ts, Fallback: true, TemplateError: err}
}

// Normalize returns the template to render for a stored format: the
// default for an empty one, the upgraded section template for a legacy one,
// and the format itself otherwise.
func Normalize(format string) string {
	if strings.TrimSpace(format) == "" {
		return DefaultTemplate
	}
	if IsLegacy(format) {
		return UpgradeLegacy(format)
	}
	return format
}

// IsLegacy reports whether format uses the old per-tab placeholders
// {title} and {url} rather than template tags.
func IsLegacy(format string) bool {
	if strings.Contains(format, "{{") {
		return false
	}
	return strings.Contains(format, "{title}") || strings.Contains(format, "{url}")
}

var legacyReplacer = strings.NewReplacer(
	"{title}", "{{title}}",
	"{url}", "{{url}}",
	`\n`, "\n",
)

// UpgradeLegacy turns a per-tab legacy format into a full document
// template: frontmatter, then the format repeated for every tab.
func UpgradeLegacy(format string) string {
	return "{{{frontmatter}}}\n{{#tabs}}\n" + legacyReplacer.Replace(format) + "{{/tabs}}"
}
