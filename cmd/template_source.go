package cmd

import (
	"fmt"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
	"github.com/conneroisu/tabsidian/internal/presets"
)

// resolveTemplate picks the template for a run: a preset when one is named,
// otherwise the template file or inline template. The returned label
// describes the choice for logs.
func (e *env) resolveTemplate() (string, string, error) {
	if ref := e.cfg.Export.Preset; ref != "" {
		lib, err := presets.Open(e.cfg.Presets.File)
		if err != nil {
			return "", "", err
		}
		p, ok := lib.Find(ref)
		if !ok {
			return "", "", tserrors.NewValidationError(tserrors.ErrCodePresetInvalid,
				fmt.Sprintf("no preset with id or name %q", ref))
		}
		return p.Template, "preset " + p.ID, nil
	}

	tpl, err := e.cfg.TemplateSource()
	if err != nil {
		return "", "", err
	}
	switch {
	case e.cfg.Export.TemplateFile != "":
		return tpl, "file " + e.cfg.Export.TemplateFile, nil
	case tpl != "":
		return tpl, "inline template", nil
	}
	return tpl, "default template", nil
}
