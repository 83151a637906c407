// Package template implements the logic-less, Mustache-compatible template
// engine used to lay out exported tab documents.
//
// The engine understands a deliberately small tag set:
//
//	{{name}}              HTML-escaped variable (& < > only)
//	{{{name}}} {{&name}}  unescaped variable
//	{{#name}}..{{/name}}  section (list iteration, mapping scope, truthy guard)
//	{{^name}}..{{/name}}  inverted section (falsy or empty list)
//	{{!comment}}          ignored
//	{{>name}}             always rejected
//
// Names are dotted paths (a.b.c) resolved against a stack of data frames,
// innermost first; the bare name "." is the innermost frame itself. User
// templates never execute code: values that are functions are rejected and
// data is only ever read.
package template

// Node is any element of a parsed template.
type Node interface {
	node()
}

// Position is the 1-based line and column of a tag's opening delimiter.
type Position struct {
	Line   int
	Column int
}

// TextNode is literal text between tags.
type TextNode struct {
	Text string
}

func (*TextNode) node() {}

// VariableNode is {{name}}: the value is HTML-escaped on output.
type VariableNode struct {
	Name string
	Pos  Position
}

func (*VariableNode) node() {}

// UnescapedNode is {{{name}}} or {{&name}}: the value is written raw.
type UnescapedNode struct {
	Name string
	Pos  Position
}

func (*UnescapedNode) node() {}

// SectionNode is {{#name}}...{{/name}}.
type SectionNode struct {
	Name     string
	Children []Node
	Pos      Position
}

func (*SectionNode) node() {}

// InvertedNode is {{^name}}...{{/name}}.
type InvertedNode struct {
	Name     string
	Children []Node
	Pos      Position
}

func (*InvertedNode) node() {}

// CommentNode is {{!...}}. It renders nothing.
type CommentNode struct {
	Text string
}

func (*CommentNode) node() {}
