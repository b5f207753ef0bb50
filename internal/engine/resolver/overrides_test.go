package resolver

import (
	"context"
	"testing"

	"codequery/internal/engine/ast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrideAnnotationScenario(t *testing.T) {
	a := &ast.TypeDecl{Kind: ast.KindClass, Name: "A", File: "A.java", Body: []ast.Stmt{method("run", "void")}}
	b := &ast.TypeDecl{Kind: ast.KindClass, Name: "B", File: "B.java", Extends: []string{"A"},
		Body: []ast.Stmt{override(method("run", "void"))}}
	s := newSession(t, a, b)

	marked := s.MarkOverrides(context.Background())
	assert.Equal(t, 1, marked)
	assert.True(t, s.IsOverridden("B#run()"))
	assert.False(t, s.IsOverridden("A#run()"))
	assert.Equal(t, []string{"B#run()"}, s.OverriddenSignatures())
}

func TestOverrideBySignature(t *testing.T) {
	tests := []struct {
		name  string
		super *ast.MethodDecl
		sub   *ast.MethodDecl
		pkg   string
		want  bool
	}{
		{"same signature", method("run", "void", param("int", "n")), method("run", "void", param("int", "x")), "p", true},
		{"qualified parameter", method("put", "void", param("java.util.List<String>", "l")), method("put", "void", param("List<Integer>", "l")), "p", true},
		{"different parameters", method("run", "void", param("int", "n")), method("run", "void", param("long", "n")), "p", false},
		{"different dims", method("run", "void", param("int[]", "n")), method("run", "void", param("int", "n")), "p", false},
		{"varargs equal arrays", method("log", "void", param("String...", "s")), method("log", "void", param("String[]", "s")), "p", true},
		{"private super", private(method("run", "void")), method("run", "void"), "p", false},
		{"static super", static(method("run", "void")), method("run", "void"), "p", false},
		{"static sub", method("run", "void"), static(method("run", "void")), "p", false},
		{"private sub", method("run", "void"), private(method("run", "void")), "p", false},
		{"package private elsewhere", method("run", "void"), method("run", "void"), "q", false},
		{"public elsewhere", public(method("run", "void")), method("run", "void"), "q", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := class("p", "Base", tt.super)
			sub := extends(class(tt.pkg, "Sub", tt.sub), "p.Base")
			s := newSession(t, base, sub)
			s.MarkOverrides(context.Background())

			assert.Equal(t, tt.want, s.IsOverridden(s.MethodSignature(sub, tt.sub)))
			assert.False(t, s.IsOverridden(s.MethodSignature(base, tt.super)))
		})
	}
}

func TestOverrideComparesLocalParameterTypesByQualifiedName(t *testing.T) {
	tests := []struct {
		name      string
		pkg       string
		paramType string
		want      bool
	}{
		{"same local type", "a", "List", true},
		{"homonym in other package", "b", "List", false},
		{"qualified local type", "b", "a.List", true},
		{"external type", "b", "java.util.List", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			superRun := public(method("run", "void", param("List", "l")))
			base := class("a", "Base", superRun)
			subRun := public(method("run", "void", param(tt.paramType, "l")))
			sub := extends(class(tt.pkg, "Sub", subRun), "a.Base")
			s := newSession(t, class("a", "List"), class("b", "List"), base, sub)
			s.MarkOverrides(context.Background())

			assert.Equal(t, tt.want, s.IsOverridden(s.MethodSignature(sub, subRun)))
			got := s.Overriders(MethodRef{Owner: base, Method: superRun})
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestOverrideThroughInterfacesAndTypeParameters(t *testing.T) {
	accept := method("accept", "void", param("T", "value"))
	sink := iface("p", "Sink", accept)
	sink.TypeParams = []ast.TypeParam{{Name: "T"}}

	impl := method("accept", "void", param("String", "value"))
	mid := extends(class("p", "Mid"), "Object")
	mid.Implements = []string{"Sink<String>"}
	mid.Body = []ast.Stmt{impl}

	later := method("accept", "void", param("String", "value"))
	leaf := extends(class("p", "Leaf", later), "Mid")

	ctor := method("Leaf", "")
	ctor.Constructor = true
	leaf.Body = append(leaf.Body, ctor)

	s := newSession(t, sink, mid, leaf)
	s.MarkOverrides(context.Background())

	assert.True(t, s.IsOverridden("p.Mid#accept(String)"))
	assert.True(t, s.IsOverridden("p.Leaf#accept(String)"))
	assert.False(t, s.IsOverridden("p.Leaf#Leaf()"))
	assert.False(t, s.IsOverridden("p.Sink#accept(T)"))
}

func TestMethodSignature(t *testing.T) {
	m := method("merge", "void", param("Map<String, List<Integer>>", "m"), param("int...", "rest"), param("byte[][]", "raw"))
	a := class("pkg", "A", m)
	inner := class("pkg", "Inner", method("x", "void"))
	a.Body = append(a.Body, inner)
	s := newSession(t, a)

	assert.Equal(t, "pkg.A#merge(Map,int[],byte[][])", s.MethodSignature(a, m))
	assert.Equal(t, "pkg.A$Inner#x()", s.MethodSignature(inner, inner.Methods()[0]))
}

func TestMarkOverridesIsIdempotent(t *testing.T) {
	a := class("p", "A", method("run", "void"))
	b := extends(class("p", "B", method("run", "void")), "A")
	s := newSession(t, a, b)

	require.Equal(t, 1, s.MarkOverrides(context.Background()))
	assert.Equal(t, 0, s.MarkOverrides(context.Background()))
	assert.Len(t, s.OverriddenSignatures(), 1)
}

func TestFindMethodAndOverriders(t *testing.T) {
	run := method("run", "void", param("java.util.List<String>", "items"))
	stop := method("stop", "void")
	base := class("p", "Base", run, stop, method("stop", "void", param("int", "code")))
	mid := extends(class("p", "Mid", method("run", "void", param("List<Integer>", "xs"))), "Base")
	leaf := extends(class("p", "Leaf", static(method("run", "void", param("List", "xs")))), "Mid")
	other := class("p", "Other", method("run", "void", param("List", "xs")))
	s := newSession(t, base, mid, leaf, other)

	ref, ok := s.FindMethod("p.Base#run(java.util.List)")
	require.True(t, ok)
	assert.Same(t, run, ref.Method)
	assert.Same(t, base, ref.Owner)

	ref, ok = s.FindMethod("p.Base#run")
	require.True(t, ok, "a unique name needs no parameter list")
	assert.Same(t, run, ref.Method)

	_, ok = s.FindMethod("p.Base#stop")
	assert.False(t, ok, "overloads need a parameter list")
	ref, ok = s.FindMethod("p.Base#stop()")
	require.True(t, ok)
	assert.Same(t, stop, ref.Method)

	_, ok = s.FindMethod("p.Missing#run()")
	assert.False(t, ok)
	_, ok = s.FindMethod("no-hash")
	assert.False(t, ok)

	overriders := s.Overriders(MethodRef{Owner: base, Method: run})
	require.Len(t, overriders, 1, "static methods and unrelated types are skipped")
	assert.Same(t, mid, overriders[0].Owner)

	assert.Nil(t, s.Overriders(MethodRef{Owner: base, Method: private(method("hidden", "void"))}))
	assert.False(t, s.OverridesMarked())
	s.MarkOverrides(context.Background())
	assert.True(t, s.OverridesMarked())
}
