package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrImpactTargetNotFound = errors.New("impact target not found")

// ImpactReport lists what a change to one type can reach: its subtypes and
// the files declaring them.
type ImpactReport struct {
	Target             string
	Placeholder        bool
	Supertypes         []string
	DirectSubtypes     []string
	TransitiveSubtypes []string
	Files              []string
}

type ImpactTargetError struct {
	Target     string
	Candidates []string
}

func (e *ImpactTargetError) Error() string {
	if len(e.Candidates) > 1 {
		return fmt.Sprintf("%v: %s is ambiguous (%s)", ErrImpactTargetNotFound, e.Target, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("%v: %s", ErrImpactTargetNotFound, e.Target)
}

func (e *ImpactTargetError) Unwrap() error {
	return ErrImpactTargetNotFound
}

// Lookup resolves a qualified name, or a name suffix matching exactly one
// type, to the node's qualified name.
func (f *Forest) Lookup(name string) (string, error) {
	if _, ok := f.nodes[name]; ok {
		return name, nil
	}
	var candidates []string
	for _, qualified := range f.sortedNames() {
		if strings.HasSuffix(qualified, "."+name) || strings.HasSuffix(qualified, "$"+name) {
			candidates = append(candidates, qualified)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return "", &ImpactTargetError{Target: name, Candidates: candidates}
}

// AnalyzeImpact reports the subtypes of name split into direct and
// transitive ones, plus the sorted set of files declaring the target or any
// of them.
func (f *Forest) AnalyzeImpact(name string) (ImpactReport, error) {
	qualified, err := f.Lookup(name)
	if err != nil {
		return ImpactReport{}, err
	}
	target := f.nodes[qualified]

	report := ImpactReport{
		Target:      qualified,
		Placeholder: target.Placeholder,
		Supertypes:  f.parentsOf(target),
	}

	direct := make([]string, 0, len(target.Children))
	directSet := make(map[string]bool, len(target.Children))
	for _, c := range target.Children {
		direct = append(direct, c.Name)
		directSet[c.Name] = true
	}
	sort.Strings(direct)
	report.DirectSubtypes = direct

	files := make(map[string]bool)
	if target.Decl != nil && target.Decl.File != "" {
		files[target.Decl.File] = true
	}
	transitive := make([]string, 0)
	for _, sub := range f.Subtypes(qualified) {
		if !directSet[sub] {
			transitive = append(transitive, sub)
		}
		if n := f.nodes[sub]; n.Decl != nil && n.Decl.File != "" {
			files[n.Decl.File] = true
		}
	}
	report.TransitiveSubtypes = transitive

	report.Files = make([]string, 0, len(files))
	for file := range files {
		report.Files = append(report.Files, file)
	}
	sort.Strings(report.Files)
	return report, nil
}

func (f *Forest) parentsOf(target *Node) []string {
	var out []string
	for name, n := range f.nodes {
		for _, c := range n.Children {
			if c == target {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
