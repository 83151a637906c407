package template

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML replaces &, < and > with their entities. Quotes are left
// alone: output is Markdown, not an HTML attribute.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Render parses src and renders it against data. The template is parsed on
// every call. Parse failures and function-valued sections are returned as
// recoverable template errors.
func Render(src string, data interface{}) (string, error) {
	nodes, err := Parse(src)
	if err != nil {
		return "", err
	}
	return Execute(nodes, data)
}

// Execute renders an already parsed node tree against data.
func Execute(nodes []Node, data interface{}) (string, error) {
	var b strings.Builder
	s := &stack{frames: []interface{}{data}}
	if err := renderNodes(&b, nodes, s); err != nil {
		return "", err
	}
	return b.String(), nil
}

// stack holds the data frames in scope, innermost last.
type stack struct {
	frames []interface{}
}

func (s *stack) push(v interface{}) { s.frames = append(s.frames, v) }
func (s *stack) pop()               { s.frames = s.frames[:len(s.frames)-1] }

// lookup resolves a dotted path. Frames are tried innermost first and the
// first frame in which every segment resolves wins; a frame that only
// resolves a prefix of the path does not shadow outer frames.
func (s *stack) lookup(name string) (interface{}, bool) {
	if name == "." {
		return s.frames[len(s.frames)-1], true
	}

	segments := strings.Split(name, ".")
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := walk(s.frames[i], segments); ok {
			return v, true
		}
	}
	return nil, false
}

func walk(v interface{}, segments []string) (interface{}, bool) {
	cur := v
	for _, seg := range segments {
		next, ok := child(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// child returns the member key of a mapping, or the element at a numeric
// index of a list. Primitives have no members.
func child(v interface{}, key string) (interface{}, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]interface{}:
		val, ok := m[key]
		return val, ok
	case []interface{}:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(m) {
			return nil, false
		}
		return m[idx], true
	}

	rv := indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	}
	return nil, false
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func renderNodes(b *strings.Builder, nodes []Node, s *stack) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case *TextNode:
			b.WriteString(n.Text)
		case *CommentNode:
		case *VariableNode:
			text, err := resolveText(n.Name, n.Pos, s)
			if err != nil {
				return err
			}
			b.WriteString(EscapeHTML(text))
		case *UnescapedNode:
			text, err := resolveText(n.Name, n.Pos, s)
			if err != nil {
				return err
			}
			b.WriteString(text)
		case *SectionNode:
			if err := renderSection(b, n, s); err != nil {
				return err
			}
		case *InvertedNode:
			v, _ := s.lookup(n.Name)
			if isList(v) {
				if listLen(v) > 0 {
					continue
				}
			} else if truthy(v) {
				continue
			}
			if err := renderNodes(b, n.Children, s); err != nil {
				return err
			}
		default:
			return tserrors.NewTemplateError(tserrors.ErrCodeTemplateRender,
				fmt.Sprintf("unsupported node type %T", n))
		}
	}
	return nil
}

func renderSection(b *strings.Builder, n *SectionNode, s *stack) error {
	v, _ := s.lookup(n.Name)

	switch {
	case isFunc(v):
		return functionError(n.Name, n.Pos)
	case isList(v):
		for _, item := range listItems(v) {
			s.push(item)
			err := renderNodes(b, n.Children, s)
			s.pop()
			if err != nil {
				return err
			}
		}
	case isMapping(v):
		s.push(v)
		err := renderNodes(b, n.Children, s)
		s.pop()
		return err
	case truthy(v):
		return renderNodes(b, n.Children, s)
	}
	return nil
}

func resolveText(name string, at Position, s *stack) (string, error) {
	v, ok := s.lookup(name)
	if !ok || v == nil {
		return "", nil
	}
	if isFunc(v) {
		return "", functionError(name, at)
	}
	return stringify(v), nil
}

func functionError(name string, at Position) error {
	return tserrors.NewTemplateError(tserrors.ErrCodeTemplateRender,
		fmt.Sprintf("%q resolved to a function; functions are not supported in tabsidian templates", name)).
		WithLocation("", at.Line, at.Column)
}

func isFunc(v interface{}) bool {
	return v != nil && reflect.ValueOf(v).Kind() == reflect.Func
}

func isList(v interface{}) bool {
	if _, ok := v.([]interface{}); ok {
		return true
	}
	rv := indirect(reflect.ValueOf(v))
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

func isMapping(v interface{}) bool {
	if _, ok := v.(map[string]interface{}); ok {
		return true
	}
	rv := indirect(reflect.ValueOf(v))
	return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
}

func listLen(v interface{}) int {
	if l, ok := v.([]interface{}); ok {
		return len(l)
	}
	return indirect(reflect.ValueOf(v)).Len()
}

func listItems(v interface{}) []interface{} {
	if l, ok := v.([]interface{}); ok {
		return l
	}
	rv := indirect(reflect.ValueOf(v))
	items := make([]interface{}, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

// truthy follows the host-language rules the template syntax comes from:
// nil, false, "", zero and NaN are falsy, as is a nil pointer. Lists are
// truthy when non-empty; mappings are always truthy.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return truthy(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Slice, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// stringify renders a scalar for output. Lists join their elements with
// commas; mappings render as the empty string.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	}

	rv := indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Invalid:
		return ""
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = stringify(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct, reflect.Func, reflect.Chan:
		return ""
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
