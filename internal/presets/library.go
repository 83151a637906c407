package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
	"github.com/conneroisu/tabsidian/internal/template"
)

// ExportVersion is the version field written by Export.
const ExportVersion = 1

// Library is the user's custom presets, backed by a YAML file.
type Library struct {
	path    string
	presets []Preset
	mutex   sync.RWMutex
}

type libraryFile struct {
	Presets []Preset `yaml:"presets"`
}

// Open loads the library at path. A missing file is an empty library.
// Entries that fail Normalize are dropped.
func Open(path string) (*Library, error) {
	lib := &Library{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return lib, nil
	}
	if err != nil {
		return nil, tserrors.WrapIO(err, tserrors.ErrCodePresetInvalid, "reading preset library").
			WithLocation(path, 0, 0)
	}

	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, tserrors.Wrap(err, tserrors.ErrorTypeValidation, tserrors.ErrCodePresetInvalid, "decoding preset library").
			WithLocation(path, 0, 0)
	}
	for _, p := range file.Presets {
		if n, ok := Normalize(p); ok {
			lib.presets = append(lib.presets, n)
		}
	}
	return lib, nil
}

// Path returns the backing file.
func (l *Library) Path() string {
	return l.path
}

// Custom returns a copy of the custom presets in library order.
func (l *Library) Custom() []Preset {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	out := make([]Preset, len(l.presets))
	copy(out, l.presets)
	return out
}

// All returns the built-in presets followed by the custom ones.
func (l *Library) All() []Preset {
	return append(Builtins(), l.Custom()...)
}

// Find looks a preset up by id, then by case-insensitive name.
func (l *Library) Find(ref string) (Preset, bool) {
	all := l.All()
	for _, p := range all {
		if p.ID == ref {
			return p, true
		}
	}
	for _, p := range all {
		if strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return Preset{}, false
}

// Save stores a template under name and persists the library. It updates
// the custom preset with id activeID when there is one, otherwise the
// custom preset whose name matches case-insensitively, otherwise it adds a
// new preset. Templates with validation errors are refused.
func (l *Library) Save(name, tpl, activeID string) (Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, invalid("enter a preset name before saving")
	}
	if res := template.Validate(tpl); !res.OK() {
		return Preset{}, invalid("resolve template errors before saving the preset").
			WithContext("errors", res.Errors)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	idx := -1
	if strings.HasPrefix(activeID, customPrefix) {
		idx = l.indexByID(activeID)
	}
	if idx < 0 {
		idx = l.indexByName(name)
	}

	var saved Preset
	if idx >= 0 {
		l.presets[idx].Name = name
		l.presets[idx].Template = tpl
		saved = l.presets[idx]
	} else {
		saved = Preset{ID: NewID(), Name: name, Template: tpl}
		l.presets = append(l.presets, saved)
	}
	return saved, l.persist()
}

// Delete removes the custom preset with id and persists the library.
// Built-in presets cannot be deleted.
func (l *Library) Delete(id string) error {
	if !strings.HasPrefix(id, customPrefix) {
		return invalid(fmt.Sprintf("preset %q is not a custom preset", id))
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	idx := l.indexByID(id)
	if idx < 0 {
		return invalid(fmt.Sprintf("no custom preset with id %q", id))
	}
	l.presets = append(l.presets[:idx], l.presets[idx+1:]...)
	return l.persist()
}

// ImportResult counts the outcome of an import.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Message summarises the result for users.
func (r ImportResult) Message() string {
	if r.Imported == 0 {
		return "No presets were imported. Check the file format and try again."
	}
	plural := "s"
	if r.Imported == 1 {
		plural = ""
	}
	if r.Skipped > 0 {
		return fmt.Sprintf("%d preset%s imported, %d skipped.", r.Imported, plural, r.Skipped)
	}
	return fmt.Sprintf("%d preset%s imported.", r.Imported, plural)
}

// Import merges presets from a JSON payload: either an array of presets or
// an object with a presets array. A preset matching an existing one by id
// or case-insensitive name replaces it. Invalid entries are skipped, and an
// unreadable payload counts as one skip. The library is persisted when
// anything was imported.
func (l *Library) Import(data []byte) (ImportResult, error) {
	var res ImportResult

	candidates, ok := decodeImport(data)
	if !ok {
		res.Skipped++
		return res, nil
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	for _, raw := range candidates {
		var c Preset
		if err := json.Unmarshal(raw, &c); err != nil {
			res.Skipped++
			continue
		}
		p, ok := Normalize(c)
		if !ok {
			res.Skipped++
			continue
		}

		idx := l.indexByID(p.ID)
		if idx < 0 {
			idx = l.indexByName(p.Name)
		}
		if idx >= 0 {
			l.presets[idx] = p
		} else {
			l.presets = append(l.presets, p)
		}
		res.Imported++
	}

	if res.Imported == 0 {
		return res, nil
	}
	return res, l.persist()
}

func decodeImport(data []byte) ([]json.RawMessage, bool) {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		return list, true
	}
	var wrapped struct {
		Presets []json.RawMessage `json:"presets"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.Presets == nil {
		return nil, false
	}
	return wrapped.Presets, true
}

type exportFile struct {
	Version    int      `json:"version"`
	ExportedAt string   `json:"exportedAt"`
	Presets    []Preset `json:"presets"`
}

// Export writes the custom presets as indented JSON.
func (l *Library) Export(w io.Writer, now time.Time) error {
	custom := l.Custom()
	if len(custom) == 0 {
		return invalid("there are no custom presets to export yet")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportFile{
		Version:    ExportVersion,
		ExportedAt: now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Presets:    custom,
	})
}

func (l *Library) indexByID(id string) int {
	for i, p := range l.presets {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (l *Library) indexByName(name string) int {
	for i, p := range l.presets {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// persist writes the library through a temporary file. Callers hold the
// write lock.
func (l *Library) persist() error {
	data, err := yaml.Marshal(libraryFile{Presets: l.presets})
	if err != nil {
		return tserrors.NewInternalError(tserrors.ErrCodeInternalError, "encoding preset library", err)
	}

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return tserrors.WrapIO(err, tserrors.ErrCodeInvalidPath, "creating preset directory").WithLocation(dir, 0, 0)
		}
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return tserrors.WrapIO(err, tserrors.ErrCodeInvalidPath, "writing preset library").WithLocation(tmp, 0, 0)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return tserrors.WrapIO(err, tserrors.ErrCodeInvalidPath, "replacing preset library").WithLocation(l.path, 0, 0)
	}
	return nil
}

func invalid(msg string) *tserrors.TabsidianError {
	return tserrors.NewValidationError(tserrors.ErrCodePresetInvalid, msg)
}
