package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
)

// Warning and error texts shown to users editing templates.
const (
	WarnTripleMustache = "Triple mustaches ({{{ }}}) bypass HTML escaping. Prefer standard {{variable}} tags."
	WarnAmpersand      = "Unescaped variables ({{& name}}) bypass HTML escaping. Prefer standard {{variable}} tags."
	WarnPartials       = "Partials are not supported and will cause rendering errors."
	ErrPartials        = "Partials are not supported in tabsidian templates."
)

// The frontmatter block is pre-rendered YAML and is expected to be emitted raw.
var frontmatterAllowance = regexp.MustCompile(`\{\{\{\s*` + frontmatterID + `\s*\}\}\}|\{\{&\s*` + frontmatterID + `\s*\}\}`)

// Result holds the outcome of a static template check.
type Result struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether the template has no errors. Warnings do not count.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks src without rendering it. It never panics and never
// returns an error: parse failures become entries in Errors, and unescaped
// output or partials become entries in Warnings.
func Validate(src string) Result {
	res := Result{Errors: []string{}, Warnings: []string{}}

	if _, err := Parse(src); err != nil {
		res.Errors = append(res.Errors, Describe(err))
	}

	hasPartial := strings.Contains(src, partialSigil)
	if hasPartial && !mentionsPartials(res.Errors) {
		// an earlier parse error can stop the scan before the partial is reached
		res.Errors = append(res.Errors, ErrPartials)
	}

	sanitized := frontmatterAllowance.ReplaceAllString(src, "")
	if strings.Contains(sanitized, tripleOpen) {
		res.Warnings = append(res.Warnings, WarnTripleMustache)
	}
	if strings.Contains(sanitized, "{{&") {
		res.Warnings = append(res.Warnings, WarnAmpersand)
	}
	if hasPartial {
		res.Warnings = append(res.Warnings, WarnPartials)
	}

	return res
}

func mentionsPartials(messages []string) bool {
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m), "partial") {
			return true
		}
	}
	return false
}

// Describe turns a template error into a single user-facing sentence with
// its location.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var te *tserrors.TabsidianError
	if !errors.As(err, &te) || te.Message == "" {
		return err.Error()
	}
	msg := strings.ToUpper(te.Message[:1]) + te.Message[1:]
	if te.Line > 0 {
		return fmt.Sprintf("%s (line %d, column %d).", msg, te.Line, te.Column)
	}
	return msg + "."
}

// Diagnostics combines static validation with a preview render.
type Diagnostics struct {
	Result
	Preview      string `json:"preview"`
	PreviewError string `json:"previewError,omitempty"`
}

// Diagnose validates src and, when it has no errors, renders it against
// sample. A failed preview adds an error; with no preview output the
// preview text is the failure reason.
func Diagnose(src string, sample interface{}) Diagnostics {
	d := Diagnostics{Result: Validate(src)}

	if len(d.Errors) == 0 {
		out, err := Render(src, sample)
		if err != nil {
			d.PreviewError = Describe(err)
			d.Errors = append(d.Errors, "Preview failed: "+d.PreviewError)
		} else {
			d.Preview = out
		}
	} else {
		d.PreviewError = "Fix template errors to preview output."
	}

	if d.PreviewError != "" && d.Preview == "" {
		d.Preview = d.PreviewError
	}
	return d
}
