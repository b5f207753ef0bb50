package ast

import "strings"

const (
	ObjectType = "java.lang.Object"
	StringType = "java.lang.String"
)

// QualifiedType is the result of resolving a name or an expression. Decl is
// nil for types that live outside the code base. Values are created fresh
// per resolution; adjust copies, never shared instances.
type QualifiedType struct {
	Name     string
	Generics string
	Dims     int
	Decl     *TypeDecl
	Root     *TypeDecl
	File     string
}

func External(name string) QualifiedType {
	return QualifiedType{Name: name}
}

func (q QualifiedType) IsExternal() bool { return q.Decl == nil }

func (q QualifiedType) IsPrimitive() bool { return q.Dims == 0 && IsPrimitive(q.Name) }

func (q QualifiedType) WithDims(dims int) QualifiedType {
	q.Dims = dims
	return q
}

func (q QualifiedType) WithGenerics(generics string) QualifiedType {
	q.Generics = generics
	return q
}

func (q QualifiedType) Ptr() *QualifiedType { return &q }

func (q QualifiedType) String() string {
	return q.Name + strings.Repeat("[]", q.Dims)
}

var primitives = map[string]bool{
	"boolean": true,
	"byte":    true,
	"short":   true,
	"char":    true,
	"int":     true,
	"long":    true,
	"float":   true,
	"double":  true,
}

func IsPrimitive(name string) bool { return primitives[name] }

// NormalizeVarargs rewrites a trailing "..." as one array dimension.
func NormalizeVarargs(typ string) string {
	typ = strings.TrimSpace(typ)
	if strings.HasSuffix(typ, "...") {
		return strings.TrimSpace(strings.TrimSuffix(typ, "...")) + "[]"
	}
	return typ
}

// SplitType breaks a written type into its generic-free base, the last
// generic argument list (with brackets) and the array dimension count.
//
//	SplitType("Map.Entry<K, V>[]") == ("Map.Entry", "<K, V>", 1)
func SplitType(typ string) (base, generics string, dims int) {
	typ = NormalizeVarargs(typ)
	for {
		trimmed := strings.TrimSpace(typ)
		if !strings.HasSuffix(trimmed, "]") {
			typ = trimmed
			break
		}
		open := strings.LastIndex(trimmed, "[")
		if open < 0 || strings.TrimSpace(trimmed[open+1:len(trimmed)-1]) != "" {
			typ = trimmed
			break
		}
		typ = trimmed[:open]
		dims++
	}

	var b strings.Builder
	depth := 0
	start := -1
	for i, r := range typ {
		switch r {
		case '<':
			if depth == 0 {
				start = i
			}
			depth++
		case '>':
			depth--
			if depth == 0 && start >= 0 {
				generics = typ[start : i+1]
				start = -1
			}
		default:
			if depth == 0 && r != ' ' && r != '\t' && r != '\n' {
				b.WriteRune(r)
			}
		}
	}
	return b.String(), generics, dims
}

// StripGenerics drops every generic argument list, keeping array suffixes.
func StripGenerics(typ string) string {
	base, _, dims := SplitType(typ)
	return base + strings.Repeat("[]", dims)
}

// SimpleName returns the last segment of a dotted or $-joined name.
func SimpleName(name string) string {
	if i := strings.LastIndexAny(name, ".$"); i >= 0 {
		return name[i+1:]
	}
	return name
}
