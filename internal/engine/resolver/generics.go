package resolver

import (
	"strings"

	"codequery/internal/engine/ast"
)

// maxSubstitutionPasses caps fixed-point iteration for mutually recursive
// bounds such as <T extends List<U>, U extends List<T>>.
const maxSubstitutionPasses = 8

// SubstituteTypeParams replaces every bare occurrence of a declared type
// parameter in typ with its erased bound (Object when unbounded), until
// nothing changes. Everything around a substitution site, including
// generic brackets, array suffixes and spacing, is kept verbatim. When two
// parameters share a name the first one listed wins.
//
//	SubstituteTypeParams("Map<K, List<V>>[]", [K, V extends Number])
//	    == "Map<Object, List<Number>>[]"
func SubstituteTypeParams(typ string, params []ast.TypeParam) string {
	if len(params) == 0 || typ == "" {
		return typ
	}
	bounds := make(map[string]string, len(params))
	for _, p := range params {
		if _, seen := bounds[p.Name]; !seen {
			bounds[p.Name] = erasedBound(p)
		}
	}

	out := typ
	for i := 0; i < maxSubstitutionPasses; i++ {
		next := replaceTypeIdentifiers(out, bounds)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// erasedBound is the first bound with wildcards erased and references to
// the parameter itself replaced by Object.
func erasedBound(p ast.TypeParam) string {
	if len(p.Bounds) == 0 {
		return "Object"
	}
	bound := strings.TrimSpace(p.Bounds[0])
	for _, kw := range []string{"extends ", "super "} {
		if strings.HasPrefix(bound, kw) {
			bound = strings.TrimSpace(strings.TrimPrefix(bound, kw))
		}
	}
	bound = eraseWildcards(bound)
	return replaceTypeIdentifiers(bound, map[string]string{p.Name: "Object"})
}

// eraseWildcards rewrites "? extends X" and "? super X" to X and a lone
// "?" to Object.
func eraseWildcards(typ string) string {
	var b strings.Builder
	for i := 0; i < len(typ); i++ {
		if typ[i] != '?' {
			b.WriteByte(typ[i])
			continue
		}
		rest := strings.TrimLeft(typ[i+1:], " ")
		switch {
		case strings.HasPrefix(rest, "extends "):
			i = len(typ) - len(strings.TrimLeft(strings.TrimPrefix(rest, "extends "), " ")) - 1
		case strings.HasPrefix(rest, "super "):
			i = len(typ) - len(strings.TrimLeft(strings.TrimPrefix(rest, "super "), " ")) - 1
		default:
			b.WriteString("Object")
		}
	}
	return b.String()
}

// replaceTypeIdentifiers substitutes identifiers that stand alone as a type,
// skipping segments of qualified names such as the T in a.T or T.Inner.
func replaceTypeIdentifiers(typ string, repl map[string]string) string {
	var b strings.Builder
	i := 0
	for i < len(typ) {
		if !isIdentStart(typ[i]) {
			b.WriteByte(typ[i])
			i++
			continue
		}
		j := i + 1
		for j < len(typ) && isIdentPart(typ[j]) {
			j++
		}
		word := typ[i:j]
		if r, ok := repl[word]; ok && !qualifiedNeighbor(typ, i, j) {
			b.WriteString(r)
		} else {
			b.WriteString(word)
		}
		i = j
	}
	return b.String()
}

func qualifiedNeighbor(typ string, start, end int) bool {
	k := start - 1
	for k >= 0 && typ[k] == ' ' {
		k--
	}
	if k >= 0 && typ[k] == '.' {
		return true
	}
	k = end
	for k < len(typ) && typ[k] == ' ' {
		k++
	}
	return k < len(typ) && typ[k] == '.' && !strings.HasPrefix(typ[k:], "...")
}

// mentionsTypeParam reports whether typ refers to any of params.
func mentionsTypeParam(typ string, params []ast.TypeParam) bool {
	if typ == "" || len(params) == 0 {
		return false
	}
	names := make(map[string]string, len(params))
	for _, p := range params {
		names[p.Name] = "\x00"
	}
	return replaceTypeIdentifiers(typ, names) != typ
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
