package parser

import (
	"strings"

	"codequery/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// JavaExtractor maps a tree-sitter Java syntax tree onto the ast model.
type JavaExtractor struct{}

func (e *JavaExtractor) Extract(root *sitter.Node, source []byte, path string) *ExtractionContext {
	ctx := &ExtractionContext{Source: source, Path: path}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"package_declaration":         e.extractPackage,
		"import_declaration":          e.extractImport,
		"class_declaration":           e.extractType,
		"interface_declaration":       e.extractType,
		"enum_declaration":            e.extractType,
		"annotation_type_declaration": e.extractType,
		"record_declaration":          e.extractType,
		"module_declaration":          skipNode,
		"ERROR":                       e.skipError,
		"line_comment":                skipNode,
		"block_comment":               skipNode,
	})
	engine.Walk(ctx, root)

	for _, d := range ctx.Types {
		d.File = path
		d.Package = ctx.Package
		d.Imports = ctx.Imports
	}
	return ctx
}

func skipNode(*ExtractionContext, *sitter.Node) bool { return true }

func (e *JavaExtractor) skipError(ctx *ExtractionContext, _ *sitter.Node) bool {
	ctx.Skipped++
	return true
}

func (e *JavaExtractor) extractPackage(ctx *ExtractionContext, node *sitter.Node) bool {
	for _, n := range namedChildren(node) {
		if n.Kind() == "scoped_identifier" || n.Kind() == "identifier" {
			ctx.Package = normalizeRefName(ctx.Text(n))
		}
	}
	return true
}

func (e *JavaExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	imp := ast.Import{Pos: ctx.Position(node)}
	for i := uint(0); i < node.ChildCount(); i++ {
		n := node.Child(i)
		switch n.Kind() {
		case "static":
			imp.Static = true
		case "asterisk":
			imp.Wildcard = true
		case "scoped_identifier", "identifier":
			imp.Path = normalizeRefName(ctx.Text(n))
		}
	}
	// Older grammars keep the trailing ".*" inside the identifier text.
	if strings.HasSuffix(imp.Path, ".*") {
		imp.Path = strings.TrimSuffix(imp.Path, ".*")
		imp.Wildcard = true
	}
	if imp.Path != "" {
		ctx.Imports = append(ctx.Imports, imp)
	}
	return true
}

func (e *JavaExtractor) extractType(ctx *ExtractionContext, node *sitter.Node) bool {
	if d := ctx.typeDecl(node); d != nil && d.Name != "" {
		ctx.Types = append(ctx.Types, d)
	}
	return true
}

func normalizeRefName(value string) string {
	return strings.Join(strings.Fields(value), "")
}
