package frontmatter

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/conneroisu/tabsidian/internal/logging"
	"github.com/conneroisu/tabsidian/internal/tabs"
	"github.com/conneroisu/tabsidian/internal/template"
)

const delimiter = "---"

// Meta is the export metadata the block is derived from.
type Meta struct {
	ExportedAt string
	Filename   string
	LocalDate  string
	LocalTime  string
	TabCount   int
	Window     tabs.Window
}

// Context is the reduced template context sub-templates render against.
func (m Meta) Context() map[string]interface{} {
	return map[string]interface{}{
		"export": map[string]interface{}{
			"timestamp": m.ExportedAt,
			"filename":  m.Filename,
			"localDate": m.LocalDate,
			"localTime": m.LocalTime,
			"tabCount":  m.TabCount,
		},
		"window": map[string]interface{}{
			"id":        m.Window.ID,
			"title":     m.Window.Title,
			"focused":   m.Window.Focused,
			"incognito": m.Window.Incognito,
		},
		"tabCount": m.TabCount,
	}
}

// Composer builds frontmatter blocks for one set of Settings.
type Composer struct {
	settings Settings
	logger   logging.Logger
}

// NewComposer creates a composer. A nil logger discards diagnostics.
func NewComposer(settings Settings, logger logging.Logger) *Composer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Composer{settings: settings, logger: logger.WithComponent("frontmatter")}
}

// Compose renders the block for m. It returns the empty string when every
// field is disabled. A sub-template that fails to render is replaced by its
// default and logged; Compose itself never fails.
func (c *Composer) Compose(ctx context.Context, m Meta) string {
	data := m.Context()
	lines := []string{delimiter}
	emitted := 0

	for _, k := range Keys {
		if !c.settings.IsEnabled(k) {
			continue
		}
		name := c.settings.FieldName(k)
		emitted++

		switch k {
		case KeyTitle:
			title := c.render(ctx, k, c.settings.titleTemplate(), DefaultTitleTemplate, data)
			lines = append(lines, name+": "+EscapeString(strings.TrimSpace(title)))
		case KeyDate:
			lines = append(lines, name+": "+EscapeString(m.LocalDate))
		case KeyTime:
			lines = append(lines, name+": "+EscapeString(m.LocalTime))
		case KeyExportedAt:
			lines = append(lines, name+": "+EscapeString(m.ExportedAt))
		case KeyTabCount:
			lines = append(lines, name+": "+strconv.Itoa(m.TabCount))
		case KeyTags:
			tags := SplitList(c.render(ctx, k, c.settings.tagsTemplate(), DefaultTagsTemplate, data))
			lines = append(lines, listLines(name, tags)...)
		case KeyCollections:
			cols := SplitList(c.render(ctx, k, c.settings.collectionsTemplate(), DefaultCollectionsTemplate, data))
			lines = append(lines, listLines(name, cols)...)
		case KeyWindowIncognito:
			lines = append(lines, name+": "+strconv.FormatBool(m.Window.Incognito))
		}
	}

	if emitted == 0 {
		return ""
	}
	lines = append(lines, delimiter)
	return strings.Join(lines, "\n")
}

func (c *Composer) render(ctx context.Context, k Key, src, fallback string, data map[string]interface{}) string {
	out, err := template.Render(src, data)
	if err == nil {
		return out
	}
	c.logger.Warn(ctx, err, "frontmatter template failed, using default", "field", string(k))
	if out, err = template.Render(fallback, data); err == nil {
		return out
	}
	return ""
}

func listLines(name string, values []string) []string {
	if len(values) == 0 {
		return []string{name + ": []"}
	}
	lines := make([]string, 0, len(values)+1)
	lines = append(lines, name+":")
	for _, v := range values {
		lines = append(lines, "  - "+EscapeString(v))
	}
	return lines
}

// SplitList splits rendered list text on commas and newlines, trims each
// entry and drops empties and case-insensitive duplicates. The first
// spelling and first position of each entry win.
func SplitList(s string) []string {
	fold := cases.Fold()
	seen := map[string]bool{}
	out := []string{}

	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := fold.String(part)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, part)
	}
	return out
}

var yamlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeString returns s as a double-quoted YAML scalar. The empty string
// becomes "".
func EscapeString(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + yamlEscaper.Replace(s) + `"`
}
