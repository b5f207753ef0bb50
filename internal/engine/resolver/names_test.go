package resolver

import (
	"testing"

	"codequery/internal/core/errors"
	"codequery/internal/engine/ast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInnerClassBeatsImport(t *testing.T) {
	foo := class("p", "Foo")
	a := class("p", "A", foo)
	a.Imports = []ast.Import{{Path: "q.Foo"}}
	s := newSession(t, a, class("q", "Foo"))

	qt, err := s.ResolveQualifiedName(s.ContextFor(a), "Foo")
	require.NoError(t, err)
	assert.Equal(t, "p.A$Foo", qt.Name)
	assert.Same(t, foo, qt.Decl)
	assert.Same(t, a, qt.Root)
}

func TestResolveQualifiedNameOrder(t *testing.T) {
	inner := class("p", "Inner")
	mid := class("p", "Mid", inner)
	a := class("p", "A", mid)
	a.Imports = []ast.Import{
		{Path: "java.util.List"},
		{Path: "q.*", Wildcard: true},
		{Path: "r.Holder.*", Wildcard: true},
	}
	sibling := class("p", "Sibling")
	widget := class("q", "Widget")
	part := class("r", "Part")
	holder := class("r", "Holder", part)
	s := newSession(t, a, sibling, widget, holder)
	ctx := s.ContextFor(a)

	tests := []struct {
		name     string
		want     string
		external bool
		dims     int
		generics string
	}{
		{"Mid", "p.A$Mid", false, 0, ""},
		{"Inner", "p.A$Mid$Inner", false, 0, ""},
		{"Mid.Inner", "p.A$Mid$Inner", false, 0, ""},
		{"Sibling", "p.Sibling", false, 0, ""},
		{"Sibling[][]", "p.Sibling", false, 2, ""},
		{"List<String>", "java.util.List", true, 0, "<String>"},
		{"Widget", "q.Widget", false, 0, ""},
		{"Part", "r.Holder$Part", false, 0, ""},
		{"String", "java.lang.String", true, 0, ""},
		{"int", "int", true, 0, ""},
		{"a.b.Unknown", "a.b.Unknown", true, 0, ""},
		{"p.A.Mid", "p.A$Mid", false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt, err := s.ResolveQualifiedName(ctx, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, qt.Name)
			assert.Equal(t, tt.external, qt.IsExternal())
			assert.Equal(t, tt.dims, qt.Dims)
			assert.Equal(t, tt.generics, qt.Generics)
		})
	}
}

func TestNestedLookupFromInnerContext(t *testing.T) {
	deep := class("p", "Deep")
	inner := class("p", "Inner", deep)
	other := class("p", "Other")
	a := class("p", "A", inner, other)
	s := newSession(t, a)

	// From Inner, its own member wins; Other comes from the root type.
	ctx := s.ContextFor(inner)
	qt, err := s.ResolveQualifiedName(ctx, "Deep")
	require.NoError(t, err)
	assert.Equal(t, "p.A$Inner$Deep", qt.Name)

	qt, err = s.ResolveQualifiedName(ctx, "Other")
	require.NoError(t, err)
	assert.Equal(t, "p.A$Other", qt.Name)
}

func TestUnmatchedImportResolvesExternally(t *testing.T) {
	a := class("p", "A")
	a.Imports = []ast.Import{{Path: "com.acme.Gadget"}}
	s := newSession(t, a)

	qt, err := s.ResolveQualifiedName(s.ContextFor(a), "Gadget.Part")
	require.NoError(t, err)
	assert.Equal(t, "com.acme.Gadget$Part", qt.Name)
	assert.True(t, qt.IsExternal())
}

func TestDefaultPackageSameDirectory(t *testing.T) {
	a := &ast.TypeDecl{Kind: ast.KindClass, Name: "A", File: "src/A.java"}
	b := &ast.TypeDecl{Kind: ast.KindClass, Name: "B", File: "src/B.java"}
	c := &ast.TypeDecl{Kind: ast.KindClass, Name: "C", File: "other/C.java"}
	s := newSession(t, a, b, c)

	qt, err := s.ResolveQualifiedName(s.ContextFor(a), "B")
	require.NoError(t, err)
	assert.Equal(t, "B", qt.Name)
	assert.Same(t, b, qt.Decl)

	_, err = s.ResolveQualifiedName(s.ContextFor(a), "C")
	assert.True(t, errors.IsCode(err, errors.CodeUnresolvedName))
}

func TestBareUnresolvedNameFails(t *testing.T) {
	a := class("p", "A")
	s := newSession(t, a)

	_, err := s.ResolveQualifiedName(s.ContextFor(a), "Nowhere")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnresolvedName))

	_, err = s.ResolveQualifiedName(s.ContextFor(a), "")
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestNameCacheIsReused(t *testing.T) {
	a := class("p", "A")
	s := newSession(t, a, class("p", "B"))
	ctx := s.ContextFor(a)

	for i := 0; i < 3; i++ {
		qt, err := s.ResolveQualifiedName(ctx, "B")
		require.NoError(t, err)
		assert.Equal(t, "p.B", qt.Name)
	}
	hits, _ := s.names.Stats()
	assert.GreaterOrEqual(t, hits, uint64(2))
}

func TestLocalClassResolvesBeforeCache(t *testing.T) {
	helper := class("p", "Helper")
	m := method("work", "void")
	m.Body.Stmts = []ast.Stmt{helper}
	a := class("p", "A", m)
	s := newSession(t, a, class("p", "Helper"))

	outside, err := s.ResolveQualifiedName(s.ContextFor(a), "Helper")
	require.NoError(t, err)
	assert.Equal(t, "p.Helper", outside.Name)

	inside, err := s.ResolveQualifiedName(s.ContextFor(a).WithMethod(m), "Helper")
	require.NoError(t, err)
	assert.Equal(t, "p.A$1Helper", inside.Name)
}
