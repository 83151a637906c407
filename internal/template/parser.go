package template

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
)

const (
	tagOpen       = "{{"
	tagClose      = "}}"
	tripleOpen    = "{{{"
	tripleClose   = "}}}"
	partialSigil  = "{{>"
	frontmatterID = "frontmatter"
)

// MaxDepth bounds section nesting. Parsing recurses once per open section.
const MaxDepth = 64

// Sentinel errors for errors.Is. Matching compares type and code only.
var (
	ErrParse  = tserrors.NewTemplateError(tserrors.ErrCodeTemplateParse, "template parse error")
	ErrDepth  = tserrors.NewTemplateError(tserrors.ErrCodeTemplateDepth, "template nesting too deep")
	ErrRender = tserrors.NewTemplateError(tserrors.ErrCodeTemplateRender, "template render error")
)

// Parse tokenizes src into a tree of nodes. It fails when a section is
// never closed, a closing tag does not match the innermost open section, a
// tag delimiter is unterminated, a partial tag is used, or sections nest
// deeper than MaxDepth. Returned errors are *errors.TabsidianError values
// carrying the line and column of the offending tag.
func Parse(src string) ([]Node, error) {
	c := &cursor{src: src, line: 1, column: 1}
	return c.parseNodes("", Position{}, 0)
}

// cursor is the scan state shared by the recursive section parsers.
type cursor struct {
	src string
	pos int

	// incremental line and column tracking; offsets passed to position
	// never decrease, so each byte is scanned once
	scanned int
	line    int
	column  int
}

func (c *cursor) position(offset int) Position {
	for c.scanned < offset {
		r, size := utf8.DecodeRuneInString(c.src[c.scanned:])
		c.scanned += size
		if r == '\n' {
			c.line++
			c.column = 1
		} else {
			c.column++
		}
	}
	return Position{Line: c.line, Column: c.column}
}

func (c *cursor) fail(code string, at Position, format string, args ...interface{}) error {
	return tserrors.NewTemplateError(code, fmt.Sprintf(format, args...)).
		WithLocation("", at.Line, at.Column)
}

// parseNodes scans until the closing tag for stop is consumed, or to the end
// of input when stop is empty.
func (c *cursor) parseNodes(stop string, opened Position, depth int) ([]Node, error) {
	var nodes []Node

	for c.pos < len(c.src) {
		rel := strings.Index(c.src[c.pos:], tagOpen)
		if rel < 0 {
			nodes = append(nodes, &TextNode{Text: c.src[c.pos:]})
			c.pos = len(c.src)
			break
		}

		start := c.pos + rel
		if start > c.pos {
			nodes = append(nodes, &TextNode{Text: c.src[c.pos:start]})
		}
		c.pos = start
		at := c.position(start)

		// {{{ must be tried first since {{ is its prefix
		if strings.HasPrefix(c.src[start:], tripleOpen) {
			end := strings.Index(c.src[start+len(tripleOpen):], tripleClose)
			if end < 0 {
				return nil, c.fail(tserrors.ErrCodeTemplateParse, at, "unterminated triple mustache")
			}
			inner := c.src[start+len(tripleOpen) : start+len(tripleOpen)+end]
			nodes = append(nodes, &UnescapedNode{Name: strings.TrimSpace(inner), Pos: at})
			c.pos = start + len(tripleOpen) + end + len(tripleClose)
			continue
		}

		end := strings.Index(c.src[start+len(tagOpen):], tagClose)
		if end < 0 {
			return nil, c.fail(tserrors.ErrCodeTemplateParse, at, "unterminated mustache tag")
		}
		inner := strings.TrimSpace(c.src[start+len(tagOpen) : start+len(tagOpen)+end])
		c.pos = start + len(tagOpen) + end + len(tagClose)
		if inner == "" {
			continue
		}

		sigil := inner[0]
		content := inner
		switch sigil {
		case '#', '^', '/', '!', '>', '&':
			content = strings.TrimSpace(inner[1:])
		}

		switch sigil {
		case '!':
			nodes = append(nodes, &CommentNode{Text: content})
		case '>':
			return nil, c.fail(tserrors.ErrCodeTemplateParse, at, "partials are not supported in tabsidian templates")
		case '/':
			if stop == "" || content != stop {
				return nil, c.fail(tserrors.ErrCodeTemplateParse, at, "unexpected closing tag for %q", content)
			}
			return nodes, nil
		case '#', '^':
			if content == "" {
				return nil, c.fail(tserrors.ErrCodeTemplateParse, at, "section tag requires a name")
			}
			if depth+1 > MaxDepth {
				return nil, c.fail(tserrors.ErrCodeTemplateDepth, at, "sections nested deeper than %d levels", MaxDepth)
			}
			children, err := c.parseNodes(content, at, depth+1)
			if err != nil {
				return nil, err
			}
			if sigil == '#' {
				nodes = append(nodes, &SectionNode{Name: content, Children: children, Pos: at})
			} else {
				nodes = append(nodes, &InvertedNode{Name: content, Children: children, Pos: at})
			}
		case '&':
			nodes = append(nodes, &UnescapedNode{Name: content, Pos: at})
		default:
			nodes = append(nodes, &VariableNode{Name: inner, Pos: at})
		}
	}

	if stop != "" {
		return nil, c.fail(tserrors.ErrCodeTemplateParse, opened, "section %q was not closed", stop)
	}

	return nodes, nil
}
