package resolver

import (
	"sort"
	"strings"

	"codequery/internal/engine/ast"
)

// UnusedImport is a single-type or single-static import whose simple name
// never appears in the file. Wildcard imports are never reported.
type UnusedImport struct {
	File   string
	Path   string
	Static bool
	Line   int
	Column int
}

// FindUnusedImports checks every file of the code base. Names mentioned only
// in comments, such as Javadoc links, do not count as uses.
func (s *Session) FindUnusedImports() []UnusedImport {
	unused := make([]UnusedImport, 0)
	for _, file := range s.cb.Files() {
		unused = append(unused, findUnusedInFile(file, s.cb.RootsInFile(file))...)
	}
	return unused
}

func findUnusedInFile(file string, roots []*ast.TypeDecl) []UnusedImport {
	if len(roots) == 0 {
		return nil
	}

	used := make(map[string]int)
	for _, root := range roots {
		collectNames(root, used)
	}

	unused := make([]UnusedImport, 0)
	seen := make(map[string]bool)
	for _, imp := range roots[0].Imports {
		if imp.Wildcard || seen[imp.Path] {
			continue
		}
		seen[imp.Path] = true
		name := ast.SimpleName(imp.Path)
		if name == "" || used[name] > 0 {
			continue
		}
		unused = append(unused, UnusedImport{
			File:   file,
			Path:   imp.Path,
			Static: imp.Static,
			Line:   imp.Pos.Line,
			Column: imp.Pos.Column,
		})
	}
	sort.SliceStable(unused, func(i, j int) bool { return unused[i].Line < unused[j].Line })
	return unused
}

// collectNames counts the leading identifier of every type, annotation and
// name written anywhere under root.
func collectNames(root *ast.TypeDecl, used map[string]int) {
	addTypes := func(types ...string) {
		for _, t := range types {
			addTypeNames(t, used)
		}
	}
	addAnnotations := func(list []ast.Annotation) {
		for _, a := range list {
			addTypes(a.Name)
		}
	}
	addTypeParams := func(list []ast.TypeParam) {
		for _, tp := range list {
			addTypes(tp.Bounds...)
		}
	}

	ast.Inspect(root, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.TypeDecl:
			addAnnotations(x.Annotations)
			addTypeParams(x.TypeParams)
			addTypes(x.Supertypes()...)
		case *ast.MethodDecl:
			addAnnotations(x.Annotations)
			addTypeParams(x.TypeParams)
			addTypes(x.ReturnType)
			addTypes(x.Throws...)
			for _, p := range x.Params {
				addAnnotations(p.Annotations)
				addTypes(p.Type)
			}
		case *ast.VarDecl:
			addAnnotations(x.Annotations)
			addTypes(x.Type)
		case *ast.Lambda:
			for _, p := range x.Params {
				addTypes(p.Type)
			}
		case *ast.Cast:
			addTypes(x.Type)
		case *ast.Instantiate:
			addTypes(x.Type)
		case *ast.ArrayCreation:
			addTypes(x.Type)
		case *ast.MethodCall:
			addTypes(x.TypeArgs...)
			if x.Receiver == nil {
				used[x.Name]++
			}
		case *ast.Unit:
			if x.Kind != ast.UnitLiteral {
				addTypes(x.Value, x.Qualifier)
			}
		}
		return true
	})
}

// addTypeNames splits a written type such as "Map.Entry<K, List<V>>[]" into
// its component names and counts the first segment of each.
func addTypeNames(written string, used map[string]int) {
	fields := strings.FieldsFunc(written, func(r rune) bool {
		switch r {
		case '<', '>', ',', '[', ']', '&', '?', ' ', '(', ')', '@', ':':
			return true
		}
		return false
	})
	for _, f := range fields {
		if i := strings.IndexByte(f, '.'); i >= 0 {
			f = f[:i]
		}
		if f != "" && f != "extends" && f != "super" {
			used[f]++
		}
	}
}
