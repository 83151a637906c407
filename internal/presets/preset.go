// Package presets manages named document templates: the built-in set and a
// user library persisted as YAML, with JSON import and export.
package presets

import (
	"strings"

	"github.com/google/uuid"

	"github.com/conneroisu/tabsidian/internal/markdown"
)

const (
	builtinPrefix = "builtin:"
	customPrefix  = "custom:"
)

// Preset is a named template.
type Preset struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description,omitempty"`
	Template    string `json:"template" yaml:"template"`
}

// Builtin reports whether p ships with tabsidian.
func (p Preset) Builtin() bool {
	return strings.HasPrefix(p.ID, builtinPrefix)
}

var builtins = []Preset{
	{
		ID:          "builtin:default",
		Name:        "Default headings",
		Description: "Frontmatter with level-two headings per tab.",
		Template:    markdown.DefaultTemplate,
	},
	{
		ID:          "builtin:list",
		Name:        "Compact list",
		Description: "Frontmatter followed by a bullet list of tabs.",
		Template:    "{{{frontmatter}}}\n{{#tabs}}\n- [{{title}}]({{url}})\n{{/tabs}}",
	},
	{
		ID:          "builtin:metadata",
		Name:        "Metadata summary",
		Description: "Adds hostname and timestamps under each tab entry.",
		Template: "{{{frontmatter}}}\n{{#tabs}}\n## {{title}}\n- URL: {{url}}\n- Host: {{hostname}}\n" +
			"{{#favicon}}- Favicon: {{favicon}}{{/favicon}}\n" +
			"{{#timestamps.lastAccessed}}- Last visited: {{timestamps.lastAccessed}} ({{timestamps.lastAccessedRelative}}){{/timestamps.lastAccessed}}\n" +
			"{{^timestamps.lastAccessed}}- Last visited: unknown{{/timestamps.lastAccessed}}\n\n{{/tabs}}",
	},
	{
		ID:          "builtin:groups",
		Name:        "Grouped tabs",
		Description: "One section per tab group, then the ungrouped tabs.",
		Template: "{{{frontmatter}}}\n{{#groups}}\n## {{title}}{{^title}}Untitled group{{/title}}\n" +
			"{{#tabs}}\n- [{{title}}]({{url}})\n{{/tabs}}\n\n{{/groups}}" +
			"{{#ungroupedTabs.0}}## Other tabs\n{{/ungroupedTabs.0}}{{#ungroupedTabs}}\n- [{{title}}]({{url}})\n{{/ungroupedTabs}}\n",
	},
}

// Builtins returns a copy of the built-in presets.
func Builtins() []Preset {
	out := make([]Preset, len(builtins))
	copy(out, builtins)
	return out
}

// NewID returns a fresh custom preset id.
func NewID() string {
	return customPrefix + uuid.NewString()
}

// Normalize validates a custom preset from untrusted input. Name and
// template are required; the name and description are trimmed. An id
// without the custom: prefix is replaced by a new one.
func Normalize(p Preset) (Preset, bool) {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Name == "" || p.Template == "" {
		return Preset{}, false
	}
	if !strings.HasPrefix(p.ID, customPrefix) {
		p.ID = NewID()
	}
	return p, true
}
