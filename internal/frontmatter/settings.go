// Package frontmatter composes the YAML metadata block placed at the top of
// an exported document.
package frontmatter

import "regexp"

// Key names one of the fixed frontmatter fields.
type Key string

const (
	KeyTitle           Key = "title"
	KeyDate            Key = "date"
	KeyTime            Key = "time"
	KeyExportedAt      Key = "exportedAt"
	KeyTabCount        Key = "tabCount"
	KeyTags            Key = "tags"
	KeyCollections     Key = "collections"
	KeyWindowIncognito Key = "windowIncognito"
)

// Keys lists every field in output order.
var Keys = []Key{
	KeyTitle,
	KeyDate,
	KeyTime,
	KeyExportedAt,
	KeyTabCount,
	KeyTags,
	KeyCollections,
	KeyWindowIncognito,
}

var defaultFieldNames = map[Key]string{
	KeyTitle:           "window_title",
	KeyDate:            "date_created",
	KeyTime:            "time_created",
	KeyExportedAt:      "exported_at",
	KeyTabCount:        "tab_count",
	KeyTags:            "tags",
	KeyCollections:     "collections",
	KeyWindowIncognito: "window_incognito",
}

// Default sub-templates. The title falls back to the export date when the
// window has no title.
const (
	DefaultTitleTemplate       = "{{#window.title}}{{{window.title}}}{{/window.title}}{{^window.title}}Open tabs {{export.localDate}}{{/window.title}}"
	DefaultTagsTemplate        = "tabsidian"
	DefaultCollectionsTemplate = ""
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidFieldName reports whether name can be used as a frontmatter key.
func ValidFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// DefaultFieldName returns the built-in output name for k.
func DefaultFieldName(k Key) string {
	return defaultFieldNames[k]
}

// Settings configures one composition. The zero value produces the default
// block: every field enabled under its default name, with the default
// sub-templates.
type Settings struct {
	// Fields overrides output names. Invalid names fall back to the default.
	Fields map[Key]string
	// Enabled toggles fields. Missing keys are enabled.
	Enabled map[Key]bool

	// Sub-templates; empty means the default.
	TitleTemplate       string
	TagsTemplate        string
	CollectionsTemplate string
}

// FieldName resolves the output name for k.
func (s Settings) FieldName(k Key) string {
	if name, ok := s.Fields[k]; ok && ValidFieldName(name) {
		return name
	}
	return defaultFieldNames[k]
}

// IsEnabled reports whether k is emitted.
func (s Settings) IsEnabled(k Key) bool {
	enabled, ok := s.Enabled[k]
	return !ok || enabled
}

func (s Settings) titleTemplate() string {
	if s.TitleTemplate == "" {
		return DefaultTitleTemplate
	}
	return s.TitleTemplate
}

func (s Settings) tagsTemplate() string {
	if s.TagsTemplate == "" {
		return DefaultTagsTemplate
	}
	return s.TagsTemplate
}

// An empty collections template is the default, so there is nothing to
// substitute.
func (s Settings) collectionsTemplate() string {
	return s.CollectionsTemplate
}
