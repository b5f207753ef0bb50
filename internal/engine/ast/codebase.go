package ast

import (
	"path/filepath"
	"sort"
)

// CodeBase maps a file identifier to its top-level type declaration. It is
// built once after parsing and never mutated afterwards.
type CodeBase struct {
	roots     map[string]*TypeDecl
	keys      []string
	byPackage map[string][]*TypeDecl
}

// NewCodeBase indexes roots keyed by file identifier.
func NewCodeBase(roots map[string]*TypeDecl) *CodeBase {
	cb := &CodeBase{
		roots:     make(map[string]*TypeDecl, len(roots)),
		byPackage: make(map[string][]*TypeDecl),
	}
	for key, root := range roots {
		if root == nil {
			continue
		}
		cb.roots[key] = root
		cb.keys = append(cb.keys, key)
	}
	sort.Strings(cb.keys)
	for _, key := range cb.keys {
		root := cb.roots[key]
		cb.byPackage[root.Package] = append(cb.byPackage[root.Package], root)
	}
	return cb
}

// FromFiles builds a code base from the declarations parsed out of each file.
// The first public type (else the first type) is the file's entry; further
// top-level types are keyed "<file>#<Name>".
func FromFiles(files map[string][]*TypeDecl) *CodeBase {
	roots := make(map[string]*TypeDecl)
	for file, decls := range files {
		if len(decls) == 0 {
			continue
		}
		primary := 0
		for i, d := range decls {
			if d.Modifiers.Visibility == Public {
				primary = i
				break
			}
		}
		for i, d := range decls {
			if d.File == "" {
				d.File = file
			}
			if i == primary {
				roots[file] = d
				continue
			}
			roots[file+"#"+d.Name] = d
		}
	}
	return NewCodeBase(roots)
}

func (cb *CodeBase) Get(key string) (*TypeDecl, bool) {
	root, ok := cb.roots[key]
	return root, ok
}

// Keys returns file identifiers in sorted order.
func (cb *CodeBase) Keys() []string {
	return append([]string(nil), cb.keys...)
}

// Roots returns the top-level declarations in key order.
func (cb *CodeBase) Roots() []*TypeDecl {
	out := make([]*TypeDecl, 0, len(cb.keys))
	for _, k := range cb.keys {
		out = append(out, cb.roots[k])
	}
	return out
}

func (cb *CodeBase) Len() int { return len(cb.keys) }

// InPackage returns top-level declarations of pkg in key order.
func (cb *CodeBase) InPackage(pkg string) []*TypeDecl {
	return cb.byPackage[pkg]
}

// HasPackage reports whether any file declares pkg.
func (cb *CodeBase) HasPackage(pkg string) bool {
	_, ok := cb.byPackage[pkg]
	return ok && pkg != ""
}

// DefaultPackageIn returns package-less roots that live in dir.
func (cb *CodeBase) DefaultPackageIn(dir string) []*TypeDecl {
	var out []*TypeDecl
	for _, root := range cb.byPackage[""] {
		if filepath.Dir(root.File) == dir {
			out = append(out, root)
		}
	}
	return out
}

// Files returns the distinct source files in sorted order.
func (cb *CodeBase) Files() []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range cb.keys {
		f := cb.roots[k].File
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// RootsInFile returns every top-level declaration parsed from file.
func (cb *CodeBase) RootsInFile(file string) []*TypeDecl {
	var out []*TypeDecl
	for _, k := range cb.keys {
		if cb.roots[k].File == file {
			out = append(out, cb.roots[k])
		}
	}
	return out
}
