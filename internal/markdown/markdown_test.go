package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tabsidian/internal/export"
	"github.com/conneroisu/tabsidian/internal/logging"
	"github.com/conneroisu/tabsidian/internal/tabs"
)

var sampleTabs = []tabs.Tab{
	{
		ID:           10,
		Title:        "Example <Tab>",
		URL:          "https://example.com/path?query=1",
		FavIconURL:   "https://example.com/favicon.ico",
		Active:       true,
		Highlighted:  true,
		LastAccessed: float64(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli()),
		WindowID:     99,
	},
	{
		ID:           11,
		Title:        "Docs",
		URL:          "https://docs.example.com/",
		Highlighted:  true,
		LastAccessed: float64(time.Date(2023, 12, 31, 23, 30, 0, 0, time.UTC).UnixMilli()),
		WindowID:     99,
	},
}

func sampleOptions() export.Options {
	now := time.Date(2025, 10, 20, 19, 58, 28, 460_000_000, time.UTC)
	return export.Options{
		Window:   tabs.Window{ID: 99, Title: "Workspace · Project", Focused: true},
		Now:      func() time.Time { return now },
		Location: time.UTC,
	}
}

func TestFormatDefaultTemplate(t *testing.T) {
	res := NewFormatter(nil).Format(context.Background(), sampleTabs, DefaultTemplate, sampleOptions())

	assert.True(t, strings.HasPrefix(res.Markdown, "---\n"))
	assert.Contains(t, res.Markdown, `window_title: "Workspace · Project"`)
	assert.Contains(t, res.Markdown, "## Example &lt;Tab&gt;")
	assert.Contains(t, res.Markdown, "[https://docs.example.com/]")
	assert.False(t, res.Fallback)
	assert.NoError(t, res.TemplateError)
	assert.Equal(t, "2025-10-20T19-58-28", res.Timestamp.Filename)
}

func TestFormatSingleTab(t *testing.T) {
	res := NewFormatter(nil).Format(context.Background(),
		[]tabs.Tab{{Title: "A", URL: "https://a.com"}}, "", sampleOptions())

	assert.True(t, strings.HasPrefix(res.Markdown, "---\n"))
	assert.Contains(t, res.Markdown, "## A")
	assert.Contains(t, res.Markdown, "[https://a.com](https://a.com)")
}

func TestFormatFallsBackOnBrokenTemplate(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelWarn, Format: "text", Output: &logs})

	f := NewFormatter(logger)
	fallback := f.Format(context.Background(), sampleTabs, "{{#tabs}}\n- {{title}}\n", sampleOptions())
	expected := f.Format(context.Background(), sampleTabs, DefaultTemplate, sampleOptions())

	assert.Equal(t, expected.Markdown, fallback.Markdown)
	assert.Equal(t, expected.Timestamp, fallback.Timestamp)
	assert.True(t, fallback.Fallback)
	require.Error(t, fallback.TemplateError)
	assert.Contains(t, logs.String(), "using default template")
	assert.Contains(t, logs.String(), "was not closed")
}

func TestFormatFallsBackOnPartial(t *testing.T) {
	res := NewFormatter(nil).Format(context.Background(), sampleTabs, "{{> header}}", sampleOptions())
	assert.True(t, res.Fallback)
	assert.Contains(t, res.Markdown, "## Docs")
}

func TestFormatCustomTemplate(t *testing.T) {
	src := "{{#tabs}}{{position}}. [{{title}}]({{url}}) {{hostname}} {{timestamps.lastAccessedRelative}} in {{window.title}}\n{{/tabs}}"
	res := NewFormatter(nil).Format(context.Background(), sampleTabs, src, sampleOptions())

	lines := strings.Split(strings.TrimSuffix(res.Markdown, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1. [Example &lt;Tab&gt;](https://example.com/path?query=1) example.com 658 days ago in Workspace · Project", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2. [Docs](https://docs.example.com/) docs.example.com "))
}

func TestLegacyFormats(t *testing.T) {
	assert.True(t, IsLegacy("## {title}\n[{url}]({url})\n\n"))
	assert.True(t, IsLegacy(`- {title}\n`))
	assert.False(t, IsLegacy("{{#tabs}}{title}{{/tabs}}"))
	assert.False(t, IsLegacy("no placeholders"))

	assert.Equal(t, DefaultTemplate, UpgradeLegacy("## {title}\n[{url}]({url})\n\n"))
	assert.Equal(t, "{{{frontmatter}}}\n{{#tabs}}\n- {{title}} <{{url}}>\n{{/tabs}}", UpgradeLegacy(`- {title} <{url}>\n`))
}

func TestFormatLegacyFormat(t *testing.T) {
	res := NewFormatter(nil).Format(context.Background(), sampleTabs, `* {title}\n`, sampleOptions())
	assert.False(t, res.Fallback)
	assert.Contains(t, res.Markdown, "\n* Example &lt;Tab&gt;\n")
	assert.True(t, strings.HasPrefix(res.Markdown, "---\n"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, DefaultTemplate, Normalize(""))
	assert.Equal(t, DefaultTemplate, Normalize("  \n"))
	assert.Equal(t, "{{#tabs}}x{{/tabs}}", Normalize("{{#tabs}}x{{/tabs}}"))
}
