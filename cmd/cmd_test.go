package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tabsidian/internal/delivery"
	"github.com/conneroisu/tabsidian/internal/logging"
	"github.com/conneroisu/tabsidian/internal/obsidian"
)

const snapshotJSON = `{
  "window": {"id": 1, "title": "Work"},
  "tabs": [
    {"id": 1, "index": 0, "title": "Go", "url": "https://go.dev/", "highlighted": true},
    {"id": 2, "index": 1, "title": "Mail", "url": "https://mail.example/", "pinned": true},
    {"id": 3, "index": 2, "title": "Settings", "url": "chrome://settings"}
  ]
}`

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestExportToStdout(t *testing.T) {
	chdirTemp(t)
	res := runCLI(t, snapshotJSON, "export", "--target", "stdout")
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "## Go\n[https://go.dev/](https://go.dev/)")
	assert.Contains(t, res.stdout, `window_title: "Work"`)
	assert.NotContains(t, res.stdout, "Mail")
	assert.NotContains(t, res.stdout, "Settings")
	assert.Contains(t, res.stderr, "Export complete")
}

func TestExportToFile(t *testing.T) {
	chdirTemp(t)
	out := t.TempDir()
	snap := filepath.Join(t.TempDir(), "tabs.json")
	require.NoError(t, os.WriteFile(snap, []byte(snapshotJSON), 0o644))

	res := runCLI(t, "", "export", "--output-dir", out, snap)
	require.NoError(t, res.err)

	matches, err := filepath.Glob(filepath.Join(out, "*_OpenTabs.md"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Regexp(t, regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}_OpenTabs\.md$`), matches[0])
	assert.Contains(t, res.stderr, "Exported 1 tab to "+matches[0])

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Go")
}

func TestExportNothingSelected(t *testing.T) {
	chdirTemp(t)
	res := runCLI(t, snapshotJSON, "export", "--target", "stdout", "--restricted-url", "go.dev")
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "No tabs to export.")
}

func TestExportWithPreset(t *testing.T) {
	chdirTemp(t)
	res := runCLI(t, snapshotJSON, "export", "--target", "stdout", "--preset", "builtin:list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "- [Go](https://go.dev/)")

	res = runCLI(t, snapshotJSON, "export", "--target", "stdout", "--preset", "missing")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), `no preset with id or name "missing"`)
}

func TestExportFallsBackToDefaultTemplate(t *testing.T) {
	chdirTemp(t)
	res := runCLI(t, snapshotJSON, "export", "--target", "stdout", "--template", "{{#tabs}}")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "## Go")
	assert.Contains(t, res.stderr, "used the default template")
}

func TestExportGlobalModeSelection(t *testing.T) {
	chdirTemp(t)
	snap := `[
	  {"id": 1, "title": "A", "url": "https://a.example/", "highlighted": true},
	  {"id": 2, "title": "B", "url": "https://b.example/", "highlighted": true},
	  {"id": 3, "title": "C", "url": "https://c.example/"}
	]`

	res := runCLI(t, snap, "export", "--target", "stdout", "-t", "{{#tabs}}{{title}};{{/tabs}}")
	require.NoError(t, res.err)
	assert.Equal(t, "A;B;", res.stdout)

	res = runCLI(t, snap, "export", "--target", "stdout", "--only-selected", "never", "-t", "{{#tabs}}{{title}};{{/tabs}}")
	require.NoError(t, res.err)
	assert.Equal(t, "A;B;C;", res.stdout)
}

func TestExportToObsidian(t *testing.T) {
	chdirTemp(t)
	var opened []string
	var copied string
	orig := deliverers
	deliverers = func(dir string, note obsidian.Target, logger logging.Logger) *delivery.Deliverer {
		d := delivery.New(dir, note, logger)
		d.Clipboard = clipboardFunc(func(text string) error { copied = text; return nil })
		d.Open = func(_ context.Context, uri string) error { opened = append(opened, uri); return nil }
		return d
	}
	t.Cleanup(func() { deliverers = orig })

	res := runCLI(t, snapshotJSON, "export", "--vault", "Notes", "--note-path", "Inbox/{timestamp}.md")
	require.NoError(t, res.err)

	require.Len(t, opened, 1)
	assert.True(t, strings.HasPrefix(opened[0], "obsidian://new?file=Inbox%2F"), opened[0])
	assert.Contains(t, opened[0], "vault=Notes")
	assert.Contains(t, copied, "## Go")
	assert.Contains(t, res.stderr, "Sent 1 tab to Obsidian")
}

type clipboardFunc func(text string) error

func (f clipboardFunc) WriteAll(text string) error { return f(text) }

func TestExportConfigSources(t *testing.T) {
	dir := chdirTemp(t)

	cfgPath := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("export:\n  target: stdout\n  template: \"{{#tabs}}[{{title}}]{{/tabs}}\"\n"), 0o644))
	res := runCLI(t, snapshotJSON, "--config", cfgPath, "export")
	require.NoError(t, res.err)
	assert.Equal(t, "[Go]", res.stdout)

	t.Setenv("TABSIDIAN_EXPORT_TEMPLATE", "{{#tabs}}<{{title}}>{{/tabs}}")
	res = runCLI(t, snapshotJSON, "--config", cfgPath, "export")
	require.NoError(t, res.err)
	assert.Equal(t, "<Go>", res.stdout)

	res = runCLI(t, snapshotJSON, "--config", cfgPath, "export", "-t", "{{#tabs}}{{url}}{{/tabs}}")
	require.NoError(t, res.err)
	assert.Equal(t, "https://go.dev/", res.stdout)

	res = runCLI(t, snapshotJSON, "--config", filepath.Join(dir, "missing.yml"), "export")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "reading config file")
}

func TestExportRejectsInvalidConfig(t *testing.T) {
	chdirTemp(t)
	res := runCLI(t, snapshotJSON, "export", "--target", "printer")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	dir := chdirTemp(t)
	good := filepath.Join(dir, "good.md")
	require.NoError(t, os.WriteFile(good, []byte("{{#tabs}}- {{title}}\n{{/tabs}}"), 0o644))

	res := runCLI(t, "", "validate", good)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Template is valid.")

	res = runCLI(t, "", "validate", "-t", "{{#tabs}}")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, `error: Section "tabs" was not closed`)

	res = runCLI(t, "{{{title}}}", "validate", "-")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "warning:")
}

func TestValidatePreviewJSON(t *testing.T) {
	chdirTemp(t)
	res := runCLI(t, "", "validate", "--preview", "--format", "json", "-t", "{{#tabs}}{{title}};{{/tabs}}")
	require.NoError(t, res.err)

	var report struct {
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
		Preview  string   `json:"preview"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	assert.Empty(t, report.Errors)
	assert.Equal(t, "Example Domain;The Go Programming Language;Search results;", report.Preview)
}

func TestValidateWatchNeedsFile(t *testing.T) {
	chdirTemp(t)
	res := runCLI(t, "", "validate", "--watch", "-t", "{{title}}")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "--watch needs a template file")
}

func TestPreview(t *testing.T) {
	chdirTemp(t)
	res := runCLI(t, "", "preview", "-t", "{{#tabs}}- {{title}}\n{{/tabs}}")
	require.NoError(t, res.err)
	assert.Equal(t, "- Example Domain\n- The Go Programming Language\n- Search results\n", res.stdout)

	res = runCLI(t, "", "preview", "--html")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "<h2>Example Domain</h2>")

	res = runCLI(t, "", "preview", "-t", "{{#tabs}}")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "showing the default template")
}

func TestPresetsLifecycle(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("TABSIDIAN_PRESETS_FILE", filepath.Join(dir, "presets.yml"))

	res := runCLI(t, "", "presets", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "builtin:default")
	assert.Contains(t, res.stdout, "builtin:groups")

	res = runCLI(t, "", "presets", "export")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "no custom presets")

	res = runCLI(t, "", "presets", "save", "Mine", "-t", "{{#tabs}}* {{title}}\n{{/tabs}}")
	require.NoError(t, res.err)
	id := regexp.MustCompile(`custom:[0-9a-f-]+`).FindString(res.stdout)
	require.NotEmpty(t, id)

	res = runCLI(t, "", "presets", "save", "Broken", "-t", "{{#tabs}}")
	require.Error(t, res.err)

	res = runCLI(t, "", "presets", "show", "mine")
	require.NoError(t, res.err)
	assert.Equal(t, "{{#tabs}}* {{title}}\n{{/tabs}}\n", res.stdout)

	res = runCLI(t, snapshotJSON, "export", "--target", "stdout", "--preset", "Mine")
	require.NoError(t, res.err)
	assert.Equal(t, "* Go\n", res.stdout)

	exported := filepath.Join(dir, "export.json")
	res = runCLI(t, "", "presets", "export", exported)
	require.NoError(t, res.err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Mine"`)

	res = runCLI(t, "", "presets", "delete", id)
	require.NoError(t, res.err)
	res = runCLI(t, "", "presets", "delete", "builtin:default")
	require.Error(t, res.err)

	res = runCLI(t, string(data), "presets", "import", "-")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "1 preset imported.")

	res = runCLI(t, "not json", "presets", "import", "-")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "No presets were imported.")
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "", "version", "--short")
	require.NoError(t, res.err)
	assert.NotEmpty(t, strings.TrimSpace(res.stdout))

	res = runCLI(t, "", "version", "--format", "json")
	require.NoError(t, res.err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")

	res = runCLI(t, "", "version")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "tabsidian "))

	res = runCLI(t, "", "version", "--format", "xml")
	require.Error(t, res.err)
}
