package resolver

import (
	"context"
	"testing"

	"codequery/internal/core/errors"
	"codequery/internal/engine/ast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func class(pkg, name string, body ...ast.Stmt) *ast.TypeDecl {
	return &ast.TypeDecl{
		Kind:    ast.KindClass,
		Name:    name,
		Package: pkg,
		File:    pkg + "/" + name + ".java",
		Body:    body,
	}
}

func iface(pkg, name string, body ...ast.Stmt) *ast.TypeDecl {
	d := class(pkg, name, body...)
	d.Kind = ast.KindInterface
	return d
}

func extends(d *ast.TypeDecl, supers ...string) *ast.TypeDecl {
	d.Extends = supers
	return d
}

func method(name, ret string, params ...ast.Param) *ast.MethodDecl {
	return &ast.MethodDecl{
		Name:       name,
		ReturnType: ret,
		Params:     params,
		Modifiers:  ast.ParseModifiers(nil),
		Body:       &ast.Block{},
	}
}

func static(m *ast.MethodDecl) *ast.MethodDecl {
	m.Modifiers.Static = ast.True
	return m
}

func private(m *ast.MethodDecl) *ast.MethodDecl {
	m.Modifiers.Visibility = ast.Private
	return m
}

func public(m *ast.MethodDecl) *ast.MethodDecl {
	m.Modifiers.Visibility = ast.Public
	return m
}

func override(m *ast.MethodDecl) *ast.MethodDecl {
	m.Annotations = append(m.Annotations, ast.Annotation{Name: "Override"})
	return m
}

func param(typ, name string) ast.Param { return ast.Param{Type: typ, Name: name} }

func field(typ, name string) *ast.VarDecl {
	return &ast.VarDecl{Type: typ, Name: name, Field: true, Modifiers: ast.ParseModifiers(nil)}
}

func local(typ, name string, init ast.Expr) *ast.VarDecl {
	return &ast.VarDecl{Type: typ, Name: name, Init: init, Modifiers: ast.ParseModifiers(nil)}
}

func call(name string, args ...ast.Expr) *ast.MethodCall {
	return &ast.MethodCall{Name: name, Args: args, Pos: ast.NoParens()}
}

func newSession(t *testing.T, decls ...*ast.TypeDecl) *Session {
	t.Helper()
	roots := make(map[string]*ast.TypeDecl, len(decls))
	for _, d := range decls {
		roots[d.File] = d
	}
	s := NewSession(ast.NewCodeBase(roots), DefaultOptions())
	s.BuildHierarchy(context.Background())
	return s
}

func TestSessionIndexesNestedLocalAndAnonymousTypes(t *testing.T) {
	anon := &ast.Instantiate{Type: "Runnable", Body: []ast.Stmt{method("run", "void")}}
	localClass := class("", "Helper")
	run := method("work", "void")
	run.Body.Stmts = []ast.Stmt{localClass, &ast.ExprStmt{X: anon}}

	inner := class("p", "Inner")
	mid := class("p", "Mid", inner)
	outer := class("p", "Outer", mid, run)
	s := newSession(t, outer)

	assert.Equal(t, "p.Outer", s.QualifiedName(outer))
	assert.Equal(t, "p.Outer$Mid", s.QualifiedName(mid))
	assert.Equal(t, "p.Outer$Mid$Inner", s.QualifiedName(inner))
	assert.Equal(t, "p.Outer$1Helper", s.QualifiedName(localClass))

	synth, ok := s.AnonymousType(anon)
	require.True(t, ok)
	assert.Equal(t, "p.Outer$2", s.QualifiedName(synth))
	assert.Equal(t, []string{"Runnable"}, synth.Extends)

	owner, ok := s.Owner(run)
	require.True(t, ok)
	assert.Same(t, outer, owner)
	assert.Same(t, mid, s.Enclosing(inner))

	got, ok := s.TypeByName("p.Outer$Mid$Inner")
	require.True(t, ok)
	assert.Same(t, inner, got)
}

func TestSessionsDoNotShareState(t *testing.T) {
	a := class("p", "A", method("run", "void"))
	b := extends(class("p", "B", override(method("run", "void"))), "A")

	first := newSession(t, a, b)
	first.MarkOverrides(context.Background())
	require.True(t, first.IsOverridden("p.B#run()"))

	second := newSession(t, a)
	assert.False(t, second.IsOverridden("p.B#run()"))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestUnresolvedSupertypeIsRecordedNotFatal(t *testing.T) {
	a := extends(class("p", "A"), "Missing")
	s := newSession(t, a)

	assert.True(t, s.Forest().Contains("p.A"))
	failures := s.Failures()
	require.NotEmpty(t, failures)
	assert.Equal(t, errors.CodeUnresolvedName, failures[0].Code)
	assert.Equal(t, "hierarchy", failures[0].Component)
}
