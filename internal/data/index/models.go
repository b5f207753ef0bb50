package index

import "time"

// Snapshot is everything one analysis run persists.
type Snapshot struct {
	RunID      string
	ProjectKey string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      int
	Types      int

	Edges     []Edge
	Overrides []string
	Calls     []CallBinding
	Failures  []Failure
}

// Edge is one parent/child pair of the type hierarchy.
type Edge struct {
	Parent string
	Child  string
}

// CallBinding records the method a call site was resolved to. Target is
// empty for unresolved calls.
type CallBinding struct {
	File   string
	Line   int
	Name   string
	Target string
}

type Failure struct {
	Code      string
	Component string
	File      string
	Subject   string
	Message   string
}

// Run summarizes a stored snapshot.
type Run struct {
	ID            string
	ProjectKey    string
	StartedAt     time.Time
	FinishedAt    time.Time
	Files         int
	Types         int
	Calls         int
	ResolvedCalls int
}
