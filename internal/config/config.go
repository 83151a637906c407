// Package config provides configuration management for tabsidian using
// Viper for loading from files, environment variables and command-line
// flags.
//
// The configuration system supports a YAML file (.tabsidian.yml), environment
// variable overrides with the TABSIDIAN_ prefix and validation. It manages
// the export template and tab filters, frontmatter field names and toggles,
// the Obsidian vault target, the preset library location, the preview server
// and logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
	"github.com/conneroisu/tabsidian/internal/frontmatter"
	"github.com/conneroisu/tabsidian/internal/logging"
	"github.com/conneroisu/tabsidian/internal/obsidian"
	"github.com/conneroisu/tabsidian/internal/tabs"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "TABSIDIAN"

type Config struct {
	Export      ExportConfig      `mapstructure:"export" yaml:"export"`
	Frontmatter FrontmatterConfig `mapstructure:"frontmatter" yaml:"frontmatter"`
	Obsidian    ObsidianConfig    `mapstructure:"obsidian" yaml:"obsidian"`
	Presets     PresetsConfig     `mapstructure:"presets" yaml:"presets"`
	Preview     PreviewConfig     `mapstructure:"preview" yaml:"preview"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

type ExportConfig struct {
	Template       string   `mapstructure:"template" yaml:"template"`
	TemplateFile   string   `mapstructure:"template_file" yaml:"template_file"`
	Preset         string   `mapstructure:"preset" yaml:"preset"`
	RestrictedURLs []string `mapstructure:"restricted_urls" yaml:"restricted_urls"`
	OnlySelected   string   `mapstructure:"only_selected" yaml:"only_selected"`
	OutputDir      string   `mapstructure:"output_dir" yaml:"output_dir"`
	Target         string   `mapstructure:"target" yaml:"target"`
}

type FrontmatterConfig struct {
	Fields              map[string]string `mapstructure:"fields" yaml:"fields"`
	Enabled             map[string]bool   `mapstructure:"enabled" yaml:"enabled"`
	TitleTemplate       string            `mapstructure:"title_template" yaml:"title_template"`
	TagsTemplate        string            `mapstructure:"tags_template" yaml:"tags_template"`
	CollectionsTemplate string            `mapstructure:"collections_template" yaml:"collections_template"`
}

type ObsidianConfig struct {
	Vault    string `mapstructure:"vault" yaml:"vault"`
	NotePath string `mapstructure:"note_path" yaml:"note_path"`
}

type PresetsConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

type PreviewConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Defaults.
const (
	DefaultOutputDir   = "."
	DefaultTarget      = "auto"
	DefaultPresetsFile = ".tabsidian/presets.yml"
	DefaultPreviewHost = "localhost"
	DefaultPreviewPort = 8765
)

// SetDefaults registers default values on the global viper instance. Every
// scalar key gets one so that AutomaticEnv applies to it during Unmarshal.
func SetDefaults() {
	viper.SetDefault("export.template", "")
	viper.SetDefault("export.template_file", "")
	viper.SetDefault("export.preset", "")
	viper.SetDefault("frontmatter.title_template", "")
	viper.SetDefault("frontmatter.tags_template", "")
	viper.SetDefault("frontmatter.collections_template", "")
	viper.SetDefault("obsidian.vault", "")
	viper.SetDefault("obsidian.note_path", "")

	viper.SetDefault("export.restricted_urls", tabs.DefaultRestrictedURLs)
	viper.SetDefault("export.only_selected", string(tabs.SelectAuto))
	viper.SetDefault("export.output_dir", DefaultOutputDir)
	viper.SetDefault("export.target", DefaultTarget)
	viper.SetDefault("presets.file", DefaultPresetsFile)
	viper.SetDefault("preview.host", DefaultPreviewHost)
	viper.SetDefault("preview.port", DefaultPreviewPort)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

func Load() (*Config, error) {
	SetDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, tserrors.WrapConfig(err, tserrors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	// Restricted URLs set from a comma-separated env var arrive as one string
	if viper.IsSet("export.restricted_urls") && len(config.Export.RestrictedURLs) <= 1 {
		if entries := viper.GetStringSlice("export.restricted_urls"); len(entries) > 0 {
			config.Export.RestrictedURLs = splitEntries(entries)
		}
	}
	config.Export.RestrictedURLs = tabs.SanitizeRestrictedURLs(config.Export.RestrictedURLs)

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func splitEntries(entries []string) []string {
	var out []string
	for _, e := range entries {
		out = append(out, strings.Split(e, ",")...)
	}
	return out
}

// Validate checks every section and reports all problems at once.
func Validate(config *Config) error {
	var errs tserrors.ValidationErrorCollection

	validateExport(&config.Export, &errs)
	validateFrontmatter(&config.Frontmatter, &errs)

	if _, err := obsidian.Resolve(config.Obsidian.Vault, config.Obsidian.NotePath); err != nil {
		errs.AddField("obsidian", config.Obsidian.Vault, messageOf(err))
	}
	if config.Presets.File != "" {
		if err := validatePath(config.Presets.File); err != nil {
			errs.AddField("presets.file", config.Presets.File, err.Error())
		}
	}
	validatePreview(&config.Preview, &errs)

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		errs.AddField("log.level", config.Log.Level, err.Error())
	}
	switch config.Log.Format {
	case "", "text", "json":
	default:
		errs.AddField("log.format", config.Log.Format, "expected text or json")
	}

	te := errs.ToTabsidianError()
	if te == nil {
		return nil
	}
	te.Type = tserrors.ErrorTypeConfig
	te.Code = tserrors.ErrCodeConfigInvalid
	te.Message = "invalid configuration: " + te.Message
	return te
}

func validateExport(config *ExportConfig, errs *tserrors.ValidationErrorCollection) {
	if config.TemplateFile != "" {
		if err := validatePath(config.TemplateFile); err != nil {
			errs.AddField("export.template_file", config.TemplateFile, err.Error())
		}
	}
	if config.OutputDir != "" {
		if err := validatePath(config.OutputDir); err != nil {
			errs.AddField("export.output_dir", config.OutputDir, err.Error())
		}
	}
	if _, err := tabs.ParseSelectionMode(config.OnlySelected); err != nil {
		errs.AddField("export.only_selected", config.OnlySelected, err.Error())
	}
	if _, err := tabs.NewMatcher(config.RestrictedURLs); err != nil {
		errs.AddField("export.restricted_urls", config.RestrictedURLs, err.Error())
	}
	switch strings.ToLower(config.Target) {
	case "", "auto", "file", "stdout", "clipboard", "obsidian":
	default:
		errs.AddField("export.target", config.Target, "expected auto, file, stdout, clipboard or obsidian")
	}
}

func validateFrontmatter(config *FrontmatterConfig, errs *tserrors.ValidationErrorCollection) {
	for name, field := range config.Fields {
		if _, ok := keyFor(name); !ok {
			errs.AddField("frontmatter.fields."+name, field, "unknown frontmatter field", knownKeys())
			continue
		}
		if !frontmatter.ValidFieldName(field) {
			errs.AddField("frontmatter.fields."+name, field,
				"field names may only contain letters, numbers, underscores and hyphens")
		}
	}
	for name, enabled := range config.Enabled {
		if _, ok := keyFor(name); !ok {
			errs.AddField("frontmatter.enabled."+name, enabled, "unknown frontmatter field", knownKeys())
		}
	}
}

func validatePreview(config *PreviewConfig, errs *tserrors.ValidationErrorCollection) {
	// 0 asks the system for a free port
	if config.Port < 0 || config.Port > 65535 {
		errs.AddField("preview.port", config.Port, fmt.Sprintf("port %d is not in valid range 0-65535", config.Port))
	}
	if strings.ContainsAny(config.Host, " /;&|$`<>\"'\\") {
		errs.AddField("preview.host", config.Host, "host contains invalid characters")
	}
}

// validatePath rejects paths that climb out of their base directory.
func validatePath(path string) error {
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == ".." {
			return fmt.Errorf("path contains traversal: %s", path)
		}
	}
	return nil
}

// keyFor matches a configured field name against the frontmatter keys.
// Viper lowercases map keys, so the match ignores case.
func keyFor(name string) (frontmatter.Key, bool) {
	for _, k := range frontmatter.Keys {
		if strings.EqualFold(string(k), name) {
			return k, true
		}
	}
	return "", false
}

func knownKeys() string {
	names := make([]string, len(frontmatter.Keys))
	for i, k := range frontmatter.Keys {
		names[i] = string(k)
	}
	return "known fields: " + strings.Join(names, ", ")
}

func messageOf(err error) string {
	var te *tserrors.TabsidianError
	if errors.As(err, &te) {
		return te.Message
	}
	return err.Error()
}

// FrontmatterSettings converts the frontmatter section for the composer.
func (c *Config) FrontmatterSettings() frontmatter.Settings {
	settings := frontmatter.Settings{
		Fields:              make(map[frontmatter.Key]string, len(c.Frontmatter.Fields)),
		Enabled:             make(map[frontmatter.Key]bool, len(c.Frontmatter.Enabled)),
		TitleTemplate:       c.Frontmatter.TitleTemplate,
		TagsTemplate:        c.Frontmatter.TagsTemplate,
		CollectionsTemplate: c.Frontmatter.CollectionsTemplate,
	}
	for name, field := range c.Frontmatter.Fields {
		if k, ok := keyFor(name); ok {
			settings.Fields[k] = field
		}
	}
	for name, enabled := range c.Frontmatter.Enabled {
		if k, ok := keyFor(name); ok {
			settings.Enabled[k] = enabled
		}
	}
	return settings
}

// NoteTarget resolves the Obsidian section. The zero Target means note
// delivery is not configured.
func (c *Config) NoteTarget() (obsidian.Target, error) {
	return obsidian.Resolve(c.Obsidian.Vault, c.Obsidian.NotePath)
}

// DeliveryTarget resolves export.target. auto means the vault when one is
// configured and a file otherwise.
func (c *Config) DeliveryTarget() string {
	target := strings.ToLower(strings.TrimSpace(c.Export.Target))
	if target != "" && target != "auto" {
		return target
	}
	if c.Obsidian.Vault != "" {
		return "obsidian"
	}
	return "file"
}

// SelectionMode returns the parsed only_selected setting.
func (c *Config) SelectionMode() tabs.SelectionMode {
	mode, err := tabs.ParseSelectionMode(c.Export.OnlySelected)
	if err != nil {
		return tabs.SelectAuto
	}
	return mode
}

// TemplateSource returns the configured template text. A template file takes
// precedence over an inline template; both empty yields "".
func (c *Config) TemplateSource() (string, error) {
	if c.Export.TemplateFile == "" {
		return c.Export.Template, nil
	}
	data, err := os.ReadFile(c.Export.TemplateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", tserrors.NewIOError(tserrors.ErrCodeFileNotFound, "template file not found", err).
				WithLocation(c.Export.TemplateFile, 0, 0)
		}
		return "", tserrors.WrapIO(err, tserrors.ErrCodeInvalidPath, "failed to read template file")
	}
	return string(data), nil
}

// LoggerConfig converts the log section for logging.NewLogger.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	if c.Log.Format == "json" {
		lc.Format = "json"
	}
	return lc
}
