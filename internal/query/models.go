package query

import "codequery/internal/engine/ast"

type Action string

const (
	ActionSearch     Action = "search"
	ActionRename     Action = "rename"
	ActionParameters Action = "parameters"
)

// Subject selects which declarations a search visits.
type Subject int

const (
	SubjectType Subject = iota
	SubjectMethod
	SubjectField
)

func (s Subject) String() string {
	switch s {
	case SubjectMethod:
		return "method"
	case SubjectField:
		return "field"
	}
	return "type"
}

// Query is a parsed search or refactor request. Descriptor fields left
// unspecified act as wildcards.
type Query struct {
	Raw     string
	Action  Action
	Subject Subject

	Type     ast.TypeDescriptor
	Method   ast.MethodDescriptor
	Variable ast.VariableDescriptor

	// Subtype restricts type matches to descendants of this name in the
	// type hierarchy.
	Subtype   string
	Overrides ast.Flag
	// Contains lists call names or signatures the declaration body must call.
	Contains []string
	// From lists file globs; empty means every file.
	From []string

	Refactor *Refactor
}

// Refactor names the method to change and its new shape.
type Refactor struct {
	Signature string
	NewName   string
	NewParams []ast.Param
}

// Match is one declaration found by a search.
type Match struct {
	Subject   Subject
	Kind      string
	Name      string
	Signature string
	File      string
	Line      int
	Column    int
}

type ChangeKind string

const (
	ChangeRenameDeclaration ChangeKind = "rename-declaration"
	ChangeRenameCall        ChangeKind = "rename-call"
	ChangeParamsDeclaration ChangeKind = "parameters-declaration"
	ChangeArgumentsCall     ChangeKind = "arguments-call"
)

// Change is one text edit a refactoring needs, located by byte offsets.
// Permutation maps each new position to the old index it takes its value
// from; Commas locates the argument separators of the old list.
type Change struct {
	File        string
	Line        int
	Offset      int
	End         int
	Kind        ChangeKind
	Old         string
	New         string
	Permutation []int
	Commas      []int
}

// FileChanges groups the changes of one file in offset order.
type FileChanges struct {
	File    string
	Changes []Change
}

// Result is what executing a query produces.
type Result struct {
	Query   Query
	Matches []Match
	Changes []FileChanges
}
