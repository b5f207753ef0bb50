// # internal/engine/graph/hierarchy.go
package graph

import (
	"sort"

	"codequery/internal/core/errors"
	"codequery/internal/engine/ast"
)

// DefaultMaxDepth bounds subtype traversals when no limit is configured.
const DefaultMaxDepth = 256

// SupertypeResolver maps declarations and the supertype names they write to
// qualified names. Resolution happens relative to the declaring type's file.
type SupertypeResolver interface {
	QualifiedName(decl *ast.TypeDecl) string
	ResolveSupertype(decl *ast.TypeDecl, name string) (string, error)
}

// Node is one type in the forest. Children are direct subtypes. A node is a
// placeholder when no declaration in the code base backs it.
type Node struct {
	Name        string
	Decl        *ast.TypeDecl
	Placeholder bool
	Children    []*Node
}

func (n *Node) addChild(child *Node) {
	if child == n {
		return
	}
	for _, c := range n.Children {
		if c == child {
			return
		}
	}
	n.Children = append(n.Children, child)
}

// Forest is the cross-file subtype hierarchy rooted at java.lang.Object.
// Nodes are shared by qualified name, so a type with several supertypes is
// reachable from each of them. It is read-only once Build returns.
type Forest struct {
	Root     *Node
	nodes    map[string]*Node
	maxDepth int
}

func newForest(maxDepth int) *Forest {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	root := &Node{Name: ast.ObjectType, Placeholder: true}
	return &Forest{
		Root:     root,
		nodes:    map[string]*Node{ast.ObjectType: root},
		maxDepth: maxDepth,
	}
}

func (f *Forest) node(name string) *Node {
	if n, ok := f.nodes[name]; ok {
		return n
	}
	n := &Node{Name: name, Placeholder: true}
	f.nodes[name] = n
	return n
}

// Build visits every non-annotation type (nested ones included), attaches it
// under each resolved supertype and hangs every parentless tree off the
// root. Supertypes that fail to resolve become placeholders named after the
// written text; the failures are returned, never fatal.
func Build(cb *ast.CodeBase, r SupertypeResolver, maxDepth int) (*Forest, []error) {
	f := newForest(maxDepth)
	attached := make(map[*Node]bool)
	var failures []error

	var visit func(decl *ast.TypeDecl)
	visit = func(decl *ast.TypeDecl) {
		if decl.Kind == ast.KindAnnotation {
			return
		}
		name := r.QualifiedName(decl)
		n := f.node(name)
		n.Decl = decl
		n.Placeholder = false

		supers := decl.Supertypes()
		if len(supers) == 0 && n != f.Root {
			f.Root.addChild(n)
			attached[n] = true
		}
		for _, written := range supers {
			qualified, err := r.ResolveSupertype(decl, written)
			if err != nil {
				failures = append(failures, errors.AddContext(err, errors.CtxType, name))
				qualified = ast.StripGenerics(written)
			}
			if qualified == name {
				continue
			}
			f.node(qualified).addChild(n)
			attached[n] = true
		}
		for _, nested := range decl.NestedTypes() {
			visit(nested)
		}
	}
	for _, root := range cb.Roots() {
		visit(root)
	}

	names := make([]string, 0, len(f.nodes))
	for name := range f.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n := f.nodes[name]
		if n != f.Root && !attached[n] {
			f.Root.addChild(n)
		}
	}
	return f, failures
}

// IsSubtype reports whether sub equals super or is one of its transitive
// descendants. Traversals that hit the depth limit answer false.
func (f *Forest) IsSubtype(sub, super string) bool {
	ok, _ := f.IsSubtypeChecked(sub, super)
	return ok
}

// IsSubtypeChecked is IsSubtype with an explicit structural-limit error.
func (f *Forest) IsSubtypeChecked(sub, super string) (bool, error) {
	if sub == super {
		return true, nil
	}
	start, ok := f.nodes[super]
	if !ok {
		return false, nil
	}

	visited := make(map[*Node]bool)
	var search func(n *Node, depth int) (bool, error)
	search = func(n *Node, depth int) (bool, error) {
		if depth > f.maxDepth {
			err := errors.New(errors.CodeStructuralLimit, "type hierarchy too deep")
			err = errors.AddContext(err, errors.CtxType, super)
			return false, errors.AddContext(err, errors.CtxDepth, depth)
		}
		for _, c := range n.Children {
			if c.Name == sub {
				return true, nil
			}
			if visited[c] {
				continue
			}
			visited[c] = true
			found, err := search(c, depth+1)
			if found || err != nil {
				return found, err
			}
		}
		return false, nil
	}
	visited[start] = true
	return search(start, 1)
}

// Subtypes returns every transitive descendant of name, sorted.
func (f *Forest) Subtypes(name string) []string {
	start, ok := f.nodes[name]
	if !ok {
		return nil
	}
	seen := map[*Node]bool{start: true}
	var out []string
	queue := []*Node{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range n.Children {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c.Name)
			queue = append(queue, c)
		}
	}
	sort.Strings(out)
	return out
}

func (f *Forest) Contains(name string) bool {
	_, ok := f.nodes[name]
	return ok
}

func (f *Forest) Node(name string) (*Node, bool) {
	n, ok := f.nodes[name]
	return n, ok
}

func (f *Forest) Size() int { return len(f.nodes) }

// Edge is a parent/child pair of the forest.
type Edge struct {
	Parent string
	Child  string
}

// Edges lists all parent/child pairs sorted by parent then child.
func (f *Forest) Edges() []Edge {
	var out []Edge
	for _, n := range f.nodes {
		for _, c := range n.Children {
			out = append(out, Edge{Parent: n.Name, Child: c.Name})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Parent == out[j].Parent {
			return out[i].Child < out[j].Child
		}
		return out[i].Parent < out[j].Parent
	})
	return out
}
