package ast

import "strings"

type Kind int

const (
	KindUnspecified Kind = iota
	KindClass
	KindInterface
	KindEnum
	KindAnnotation
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindAnnotation:
		return "annotation"
	}
	return "unspecified"
}

func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "class":
		return KindClass, true
	case "interface":
		return KindInterface, true
	case "enum":
		return KindEnum, true
	case "annotation", "@interface":
		return KindAnnotation, true
	case "":
		return KindUnspecified, true
	}
	return KindUnspecified, false
}

// Position locates a declaration or call in its source file. Offsets are
// byte offsets; -1 means the token is absent.
type Position struct {
	File       string
	Line       int
	Column     int
	Offset     int
	End        int
	LeftParen  int
	RightParen int
	Commas     []int
}

// NoParens is a Position template for nodes without an argument list.
func NoParens() Position {
	return Position{Offset: -1, End: -1, LeftParen: -1, RightParen: -1}
}

type Annotation struct {
	Name string
	Args string
}

type Import struct {
	Path     string
	Static   bool
	Wildcard bool
	Pos      Position
}

type TypeParam struct {
	Name   string
	Bounds []string
}

type Param struct {
	Type        string
	Name        string
	Varargs     bool
	Final       bool
	Annotations []Annotation
	Pos         Position
}

// EffectiveType is the declared type with varargs written as an array.
func (p Param) EffectiveType() string {
	if strings.HasSuffix(p.Type, "...") {
		return NormalizeVarargs(p.Type)
	}
	if p.Varargs {
		return p.Type + "[]"
	}
	return p.Type
}

// TypeDecl is a class, interface, enum or annotation declaration. Top-level
// declarations also carry their file, package and imports.
type TypeDecl struct {
	Kind        Kind
	Name        string
	Modifiers   Modifiers
	Annotations []Annotation
	TypeParams  []TypeParam
	Extends     []string
	Implements  []string
	Body        []Stmt
	Pos         Position

	File    string
	Package string
	Imports []Import
}

// Supertypes lists direct supertypes in declaration order.
func (t *TypeDecl) Supertypes() []string {
	out := make([]string, 0, len(t.Extends)+len(t.Implements))
	out = append(out, t.Extends...)
	out = append(out, t.Implements...)
	return out
}

// Superclass returns the extended class of a class declaration.
func (t *TypeDecl) Superclass() string {
	if t.Kind == KindClass && len(t.Extends) > 0 {
		return t.Extends[0]
	}
	return ""
}

func (t *TypeDecl) Methods() []*MethodDecl {
	var out []*MethodDecl
	for _, s := range t.Body {
		if m, ok := s.(*MethodDecl); ok {
			out = append(out, m)
		}
	}
	return out
}

func (t *TypeDecl) Fields() []*VarDecl {
	var out []*VarDecl
	for _, s := range t.Body {
		if v, ok := s.(*VarDecl); ok {
			out = append(out, v)
		}
	}
	return out
}

func (t *TypeDecl) NestedTypes() []*TypeDecl {
	var out []*TypeDecl
	for _, s := range t.Body {
		if n, ok := s.(*TypeDecl); ok {
			out = append(out, n)
		}
	}
	return out
}

func (t *TypeDecl) EnumConstants() []*EnumConstant {
	var out []*EnumConstant
	for _, s := range t.Body {
		if c, ok := s.(*EnumConstant); ok {
			out = append(out, c)
		}
	}
	return out
}

func (t *TypeDecl) HasAnnotation(name string) bool {
	return hasAnnotation(t.Annotations, name)
}

// ImplicitlyStatic reports whether the type cannot capture an outer instance.
func (t *TypeDecl) ImplicitlyStatic() bool {
	return t.Modifiers.Static.Bool() || t.Kind == KindInterface || t.Kind == KindEnum || t.Kind == KindAnnotation
}

func (t *TypeDecl) Descriptor() TypeDescriptor {
	return TypeDescriptor{
		Kind:       t.Kind,
		Name:       t.Name,
		Visibility: t.Modifiers.Visibility,
		Static:     t.Modifiers.Static,
		Final:      t.Modifiers.Final,
		Abstract:   t.Modifiers.Abstract,
		Extends:    nonNil(t.Extends),
		Implements: nonNil(t.Implements),
	}
}

type MethodDecl struct {
	Name        string
	Modifiers   Modifiers
	Annotations []Annotation
	TypeParams  []TypeParam
	ReturnType  string
	Params      []Param
	Throws      []string
	Body        *Block
	Constructor bool
	Pos         Position
}

func (m *MethodDecl) HasAnnotation(name string) bool {
	return hasAnnotation(m.Annotations, name)
}

// ParamTypes returns parameter types with varargs normalized to arrays.
func (m *MethodDecl) ParamTypes() []string {
	out := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		out = append(out, p.EffectiveType())
	}
	return out
}

func (m *MethodDecl) Descriptor() MethodDescriptor {
	return MethodDescriptor{
		Name:         m.Name,
		Visibility:   m.Modifiers.Visibility,
		Static:       m.Modifiers.Static,
		Final:        m.Modifiers.Final,
		Abstract:     m.Modifiers.Abstract,
		Synchronized: m.Modifiers.Synchronized,
		Native:       m.Modifiers.Native,
		Constructor:  FlagOf(m.Constructor),
		ReturnType:   m.ReturnType,
		Parameters:   m.ParamTypes(),
		Throws:       nonNil(m.Throws),
	}
}

// VarDecl declares one field or local variable. Array dimensions written on
// the declarator are folded into Type.
type VarDecl struct {
	Modifiers   Modifiers
	Annotations []Annotation
	Type        string
	Name        string
	Init        Expr
	Field       bool
	Pos         Position
}

func (v *VarDecl) Descriptor() VariableDescriptor {
	return VariableDescriptor{
		Name:       v.Name,
		Type:       v.Type,
		Visibility: v.Modifiers.Visibility,
		Static:     v.Modifiers.Static,
		Final:      v.Modifiers.Final,
		Volatile:   v.Modifiers.Volatile,
		Transient:  v.Modifiers.Transient,
	}
}

type Initializer struct {
	Static bool
	Body   *Block
}

type EnumConstant struct {
	Name string
	Args []Expr
	Body []Stmt
	Pos  Position
}

func hasAnnotation(list []Annotation, name string) bool {
	for _, a := range list {
		if a.Name == name || strings.HasSuffix(a.Name, "."+name) {
			return true
		}
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
