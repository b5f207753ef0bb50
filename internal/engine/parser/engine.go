package parser

import (
	"strings"

	"codequery/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node of a compilation unit.
// Returns true if the handler has consumed the node's children.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries the source and the collected results of one file.
type ExtractionContext struct {
	Source  []byte
	Path    string
	Package string
	Imports []ast.Import
	Types   []*ast.TypeDecl
	// Skipped counts syntax error nodes left out of the model.
	Skipped int

	ProcessedChildren bool // If true, the walker will skip this node's children
}

func (c *ExtractionContext) ResetProcessedChildren() {
	c.ProcessedChildren = false
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	ctx.ResetProcessedChildren()
	stop := false
	if handler, ok := e.handlers[node.Kind()]; ok {
		stop = handler(ctx, node)
	}

	if !stop && !ctx.ProcessedChildren {
		for i := uint(0); i < node.ChildCount(); i++ {
			e.Walk(ctx, node.Child(i))
		}
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

// Position locates node; Offset and End span the node's bytes.
func (c *ExtractionContext) Position(node *sitter.Node) ast.Position {
	if node == nil {
		p := ast.NoParens()
		p.File = c.Path
		return p
	}
	return ast.Position{
		File:       c.Path,
		Line:       int(node.StartPosition().Row) + 1,
		Column:     int(node.StartPosition().Column) + 1,
		Offset:     int(node.StartByte()),
		End:        int(node.EndByte()),
		LeftParen:  -1,
		RightParen: -1,
	}
}

// withParens adds the parenthesis and comma offsets of an argument or
// parameter list to pos.
func (c *ExtractionContext) withParens(pos ast.Position, list *sitter.Node) ast.Position {
	if list == nil {
		return pos
	}
	pos.LeftParen = int(list.StartByte())
	pos.RightParen = int(list.EndByte()) - 1
	pos.Commas = nil
	for i := uint(0); i < list.ChildCount(); i++ {
		if child := list.Child(i); child.Kind() == "," {
			pos.Commas = append(pos.Commas, int(child.StartByte()))
		}
	}
	return pos
}

// child returns the node stored under field, falling back to the first
// child of the given kind for grammar versions that leave it unnamed.
func child(node *sitter.Node, field, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	if field != "" {
		if n := node.ChildByFieldName(field); n != nil {
			return n
		}
	}
	if kind == "" {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if n := node.Child(i); n.Kind() == kind {
			return n
		}
	}
	return nil
}

// fieldChildren returns every child stored under field, in order.
func fieldChildren(node *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == field {
			out = append(out, node.Child(i))
		}
	}
	return out
}

func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		n := node.NamedChild(i)
		if n.Kind() == "line_comment" || n.Kind() == "block_comment" {
			continue
		}
		out = append(out, n)
	}
	return out
}

func normalizeSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// compactType collapses whitespace in a type as written and drops it next
// to punctuation, so "Map< K , V [] >" reads "Map<K,V[]>". Spaces inside
// wildcards such as "? extends T" are kept.
func compactType(value string) string {
	s := normalizeSpace(value)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' && (isTypePunct(s[i-1]) || isTypePunct(s[i+1])) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isTypePunct(c byte) bool {
	switch c {
	case '<', '>', ',', '[', ']', '.', '&':
		return true
	}
	return false
}
