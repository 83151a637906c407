//go:build property
// +build property

package template

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTemplateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Property: escaped variables never emit raw angle brackets
	properties.Property("variables are escaped", prop.ForAll(
		func(s string) bool {
			out, err := Render("{{v}}", map[string]interface{}{"v": s})
			if err != nil {
				return false
			}
			return out == EscapeHTML(s) && !strings.ContainsAny(out, "<>")
		},
		gen.AnyString(),
	))

	// Property: triple mustache output is the value itself
	properties.Property("triple mustache is verbatim", prop.ForAll(
		func(s string) bool {
			out, err := Render("{{{v}}}", map[string]interface{}{"v": s})
			return err == nil && out == s
		},
		gen.AnyString(),
	))

	// Property: a section over a list renders its body once per element
	properties.Property("section iterates list", prop.ForAll(
		func(items []string) bool {
			list := make([]interface{}, len(items))
			var expected strings.Builder
			for i, s := range items {
				list[i] = s
				expected.WriteString(s + ",")
			}
			out, err := Render("{{#items}}{{.}},{{/items}}", map[string]interface{}{"items": list})
			return err == nil && out == expected.String()
		},
		gen.SliceOf(gen.AlphaString()),
	))

	// Property: well-nested sections always parse, one node per section
	properties.Property("well-nested sections parse", prop.ForAll(
		func(ops []int) bool {
			src, sections := nestedTemplate(ops)
			nodes, err := Parse(src)
			return err == nil && countSections(nodes) == sections
		},
		gen.SliceOf(gen.IntRange(0, 2)),
	))

	// Property: validation never panics and always returns slices
	properties.Property("validate is total", prop.ForAll(
		func(s string) bool {
			res := Validate(s)
			return res.Errors != nil && res.Warnings != nil
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// nestedTemplate turns ops into a balanced template: 0 opens a section, 1
// closes the innermost one and 2 emits text. Opens beyond MaxDepth are
// dropped and open sections are closed at the end.
func nestedTemplate(ops []int) (string, int) {
	var b strings.Builder
	var open int
	var sections int
	for _, op := range ops {
		switch op {
		case 0:
			if open < MaxDepth {
				b.WriteString("{{#s}}")
				open++
				sections++
			}
		case 1:
			if open > 0 {
				b.WriteString("{{/s}}")
				open--
			}
		default:
			b.WriteString("t")
		}
	}
	b.WriteString(strings.Repeat("{{/s}}", open))
	return b.String(), sections
}

func countSections(nodes []Node) int {
	n := 0
	for _, node := range nodes {
		if s, ok := node.(*SectionNode); ok {
			n += 1 + countSections(s.Children)
		}
	}
	return n
}
