package resolver

import (
	"testing"

	"codequery/internal/engine/ast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callFixture struct {
	s      *Session
	ctx    *Context
	calc   *ast.TypeDecl
	addInt *ast.MethodDecl
	addLng *ast.MethodDecl
	join   *ast.MethodDecl
	take   *ast.MethodDecl
	scale  *ast.MethodDecl
	named  *ast.MethodDecl
	names  *ast.MethodDecl
	id     *ast.MethodDecl
}

func newCallFixture(t *testing.T) *callFixture {
	t.Helper()
	f := &callFixture{
		addInt: method("add", "int", param("int", "a"), param("int", "b")),
		addLng: method("add", "long", param("long", "a"), param("long", "b")),
		join:   method("join", "String", param("String...", "parts")),
		take:   method("take", "void", param("Object", "o")),
		scale:  method("scale", "double", param("double", "d")),
		named:  method("named", "void", param("Base", "b")),
		names:  method("names", "void", param("List<String>", "l")),
		id:     method("id", "T", param("T", "x")),
	}
	f.id.TypeParams = []ast.TypeParam{{Name: "T"}}

	body := method("body", "void",
		param("String", "str"),
		param("Derived", "derived"),
		param("Other", "other"),
		param("List<String>", "strings"),
		param("List<Integer>", "ints"),
	)
	f.calc = class("p", "Calc", f.addInt, f.addLng, f.join, f.take, f.scale, f.named, f.names, f.id, body)
	f.calc.Imports = []ast.Import{{Path: "java.util.List"}}

	base := class("p", "Base")
	derived := extends(class("p", "Derived"), "Base")
	other := class("p", "Other")
	f.s = newSession(t, f.calc, base, derived, other)
	f.ctx = f.s.ContextFor(f.calc).WithMethod(body)
	return f
}

func (f *callFixture) resolve(t *testing.T, c *ast.MethodCall) *ast.MethodDecl {
	t.Helper()
	m, ok := f.s.ResolveMethodCall(f.ctx, c)
	if !ok {
		return nil
	}
	return m
}

func TestArityGate(t *testing.T) {
	f := newCallFixture(t)

	assert.Nil(t, f.resolve(t, call("add", ast.Lit("1"))))
	assert.Nil(t, f.resolve(t, call("add", ast.Lit("1"), ast.Lit("2"), ast.Lit("3"))))
	assert.Same(t, f.addInt, f.resolve(t, call("add", ast.Lit("1"), ast.Lit("2"))))
}

func TestPrimitiveWideningPicksCompatibleOverload(t *testing.T) {
	f := newCallFixture(t)

	assert.Same(t, f.addLng, f.resolve(t, call("add", ast.Lit("1L"), ast.Lit("2"))))
	assert.Same(t, f.scale, f.resolve(t, call("scale", ast.Lit("1"))))
	assert.Nil(t, f.resolve(t, call("add", ast.Lit("1.5"), ast.Lit("2"))))
}

func TestVarargsNeedAnArrayArgument(t *testing.T) {
	f := newCallFixture(t)

	assert.Nil(t, f.resolve(t, call("join", ast.Ident("str"))))
	arr := &ast.ArrayCreation{Type: "String", Dims: []ast.Expr{ast.Lit("1")}}
	assert.Same(t, f.join, f.resolve(t, call("join", arr)))
}

func TestNullBoxingAndObjectParameters(t *testing.T) {
	f := newCallFixture(t)

	assert.Same(t, f.take, f.resolve(t, call("take", ast.Lit("null"))))
	assert.Same(t, f.take, f.resolve(t, call("take", ast.Lit("1"))))
	assert.Same(t, f.take, f.resolve(t, call("take", ast.Ident("str"))))
	assert.Nil(t, f.resolve(t, call("scale", ast.Lit("null"))))
}

func TestLocalParameterTypesUseSubtyping(t *testing.T) {
	f := newCallFixture(t)

	assert.Same(t, f.named, f.resolve(t, call("named", ast.Ident("derived"))))
	assert.Same(t, f.named, f.resolve(t, call("named", &ast.Instantiate{Type: "Base"})))
	assert.Nil(t, f.resolve(t, call("named", ast.Ident("other"))))
}

func TestGenericArgumentsMustAgree(t *testing.T) {
	f := newCallFixture(t)

	assert.Same(t, f.names, f.resolve(t, call("names", ast.Ident("strings"))))
	assert.Nil(t, f.resolve(t, call("names", ast.Ident("ints"))))
}

func TestGenericMethodReturnIsErased(t *testing.T) {
	f := newCallFixture(t)
	c := call("id", ast.Ident("str"))

	qt, ok := f.s.ResolveExpressionType(f.ctx, c)
	require.True(t, ok)
	assert.Equal(t, ast.ObjectType, qt.Name)
	assert.Same(t, f.id, c.Target)
}

func TestResolutionIsRecordedOnTheCall(t *testing.T) {
	f := newCallFixture(t)
	c := call("add", ast.Lit("1"), ast.Lit("2"))
	e := ast.Dot(ast.This(), c)

	qt, ok := f.s.ResolveExpressionType(f.ctx, e)
	require.True(t, ok)
	assert.Equal(t, "int", qt.Name)

	require.NotNil(t, c.Source)
	assert.Equal(t, "p.Calc", c.Source.Name)
	require.Len(t, c.ArgTypes, 2)
	assert.Equal(t, "int", c.ArgTypes[0].Name)
	assert.Same(t, f.addInt, c.Target)
}

func TestExternalReceiverIsNotFound(t *testing.T) {
	f := newCallFixture(t)
	c := &ast.MethodCall{Name: "length", Receiver: ast.Ident("str")}

	assert.Nil(t, f.resolve(t, c))
	require.NotNil(t, c.Source)
	assert.Equal(t, ast.StringType, c.Source.Name)
}

func TestInheritedMethodsExceptPrivate(t *testing.T) {
	pub := method("shared", "void")
	secret := private(method("secret", "void"))
	base := class("p", "Base", pub, secret)
	user := method("use", "void")
	derived := extends(class("p", "Derived", user), "Base")
	s := newSession(t, base, derived)
	ctx := s.ContextFor(derived).WithMethod(user)

	m, ok := s.ResolveMethodCall(ctx, call("shared"))
	require.True(t, ok)
	assert.Same(t, pub, m)

	_, ok = s.ResolveMethodCall(ctx, call("secret"))
	assert.False(t, ok)

	// Private methods stay visible inside their own type.
	m, ok = s.ResolveMethodCall(s.ContextFor(base), call("secret"))
	require.True(t, ok)
	assert.Same(t, secret, m)
}

func TestStaticNestingBarrier(t *testing.T) {
	instance := method("instance", "void")
	util := static(method("util", "void"))

	fromStatic := method("run", "void")
	nested := class("p", "Nested", fromStatic)
	nested.Modifiers.Static = ast.True

	fromInner := method("run", "void")
	inner := class("p", "Inner", fromInner)

	outer := class("p", "Outer", instance, util, nested, inner)
	s := newSession(t, outer)

	staticCtx := s.ContextFor(nested).WithMethod(fromStatic)
	_, ok := s.ResolveMethodCall(staticCtx, call("instance"))
	assert.False(t, ok)
	m, ok := s.ResolveMethodCall(staticCtx, call("util"))
	require.True(t, ok)
	assert.Same(t, util, m)

	innerCtx := s.ContextFor(inner).WithMethod(fromInner)
	m, ok = s.ResolveMethodCall(innerCtx, call("instance"))
	require.True(t, ok)
	assert.Same(t, instance, m)

	// The innermost type is searched without the static check.
	staticOuter := static(method("main", "void"))
	outer.Body = append(outer.Body, staticOuter)
	ctx := s.ContextFor(outer).WithMethod(staticOuter)
	m, ok = s.ResolveMethodCall(ctx, call("instance"))
	require.True(t, ok)
	assert.Same(t, instance, m)
}

func TestStaticImportIsSearchedLast(t *testing.T) {
	helper := static(public(method("helper", "int")))
	util := class("q", "Util", helper)
	caller := method("run", "void")
	a := class("p", "A", caller)
	a.Imports = []ast.Import{{Path: "q.Util.helper", Static: true}}
	s := newSession(t, a, util)

	m, ok := s.ResolveMethodCall(s.ContextFor(a).WithMethod(caller), call("helper"))
	require.True(t, ok)
	assert.Same(t, helper, m)

	_, ok = s.ResolveMethodCall(s.ContextFor(a).WithMethod(caller), call("other"))
	assert.False(t, ok)
}

func TestAnonymousClassSeesEnclosingMethods(t *testing.T) {
	base := method("base", "int")
	inner := method("run", "void")
	anon := &ast.Instantiate{Type: "Runnable", Body: []ast.Stmt{inner}}
	work := method("work", "void")
	work.Body.Stmts = []ast.Stmt{&ast.ExprStmt{X: anon}}
	a := class("p", "A", base, work)
	s := newSession(t, a)

	synth, ok := s.AnonymousType(anon)
	require.True(t, ok)
	ctx := s.ContextFor(synth).WithMethod(inner)

	m, ok := s.ResolveMethodCall(ctx, call("base"))
	require.True(t, ok)
	assert.Same(t, base, m)

	qt, ok := s.ResolveExpressionType(ctx, ast.This())
	require.True(t, ok)
	assert.Equal(t, "p.A$1", qt.Name)
}
