// # internal/engine/parser/parser.go
package parser

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"codequery/internal/core/errors"
	"codequery/internal/engine/ast"
	"codequery/internal/shared/observability"
)

const languageJava = "java"

// Parser turns Java source files into top-level type declarations. It is
// safe for concurrent use; each parse leases its own tree-sitter parser.
type Parser struct {
	pool      *ParserPool
	extractor *JavaExtractor
	logger    *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		pool:      NewParserPool(JavaLanguage()),
		extractor: &JavaExtractor{},
		logger:    logger,
	}
}

// ParseFile parses one compilation unit. Syntax errors do not fail the
// parse; the affected nodes are left out and logged.
func (p *Parser) ParseFile(path string, content []byte) ([]*ast.TypeDecl, error) {
	if !p.IsSupportedPath(path) {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported language"), errors.CtxPath, path)
	}

	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(languageJava).Observe(time.Since(start).Seconds())
	}()

	tree, err := p.pool.Parse(content)
	if err != nil {
		observability.ParseErrorsTotal.Inc()
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	defer tree.Close()

	res := p.extractor.Extract(tree.RootNode(), content, path)
	if res.Skipped > 0 {
		p.logger.Debug("skipped syntax errors", "path", path, "nodes", res.Skipped)
	}
	return res.Types, nil
}

// ParseUnit parses content and returns the full extraction result,
// including package, imports and skipped-node count.
func (p *Parser) ParseUnit(path string, content []byte) (*ExtractionContext, error) {
	tree, err := p.pool.Parse(content)
	if err != nil {
		observability.ParseErrorsTotal.Inc()
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	defer tree.Close()
	return p.extractor.Extract(tree.RootNode(), content, path), nil
}

func (p *Parser) IsSupportedPath(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), ".java")
}

// IsTestFile reports whether path follows the JUnit naming conventions.
func (p *Parser) IsTestFile(path string) bool {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.HasSuffix(base, "Test") || strings.HasSuffix(base, "Tests") || strings.HasSuffix(base, "IT")
}

func (p *Parser) SupportedExtensions() []string {
	return []string{".java"}
}

// Pool exposes the parser pool for diagnostics.
func (p *Parser) Pool() *ParserPool { return p.pool }
