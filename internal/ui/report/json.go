package report

import (
	"encoding/json"
	"io"

	"codequery/internal/core/ports"
	"codequery/internal/engine/graph"
	"codequery/internal/query"
)

type matchJSON struct {
	Subject   string `json:"subject"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Signature string `json:"signature,omitempty"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
}

type changeJSON struct {
	Line        int    `json:"line"`
	Offset      int    `json:"offset"`
	End         int    `json:"end"`
	Kind        string `json:"kind"`
	Old         string `json:"old"`
	New         string `json:"new"`
	Permutation []int  `json:"permutation,omitempty"`
}

type fileChangesJSON struct {
	File    string       `json:"file"`
	Changes []changeJSON `json:"changes"`
}

type analysisJSONView struct {
	RunID       string       `json:"run_id"`
	Files       int          `json:"files"`
	ParseErrors int          `json:"parse_errors"`
	Types       int          `json:"types"`
	Nodes       int          `json:"hierarchy_nodes"`
	External    int          `json:"hierarchy_placeholders"`
	Edges       int          `json:"hierarchy_edges"`
	MaxDepth    int          `json:"hierarchy_max_depth"`
	Overridden  int          `json:"overridden"`
	Calls       int          `json:"calls"`
	Resolved    int          `json:"resolved_calls"`
	Failures    int          `json:"failures"`
	Unused      int          `json:"unused_imports"`
	Persisted   bool         `json:"persisted"`
	DurationMs  int64        `json:"duration_ms"`
	Widest      []fanOutJSON `json:"widest_types,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
}

type fanOutJSON struct {
	Name     string `json:"name"`
	Subtypes int    `json:"subtypes"`
	External bool   `json:"external"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func matchesJSON(matches []query.Match) []matchJSON {
	out := make([]matchJSON, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchJSON{
			Subject:   m.Subject.String(),
			Kind:      m.Kind,
			Name:      m.Name,
			Signature: m.Signature,
			File:      m.File,
			Line:      m.Line,
			Column:    m.Column,
		})
	}
	return out
}

func changesJSON(changes []query.FileChanges) []fileChangesJSON {
	out := make([]fileChangesJSON, 0, len(changes))
	for _, fc := range changes {
		view := fileChangesJSON{File: fc.File, Changes: make([]changeJSON, 0, len(fc.Changes))}
		for _, c := range fc.Changes {
			view.Changes = append(view.Changes, changeJSON{
				Line:        c.Line,
				Offset:      c.Offset,
				End:         c.End,
				Kind:        string(c.Kind),
				Old:         c.Old,
				New:         c.New,
				Permutation: c.Permutation,
			})
		}
		out = append(out, view)
	}
	return out
}

func analysisJSON(res ports.AnalysisResult) analysisJSONView {
	return analysisJSONView{
		RunID:       res.RunID,
		Files:       res.Files,
		ParseErrors: res.ParseErrors,
		Types:       res.Types,
		Nodes:       res.Hierarchy.Nodes,
		External:    res.Hierarchy.Placeholders,
		Edges:       res.Hierarchy.Edges,
		MaxDepth:    res.Hierarchy.MaxDepth,
		Overridden:  res.Overridden,
		Calls:       res.Calls.Calls,
		Resolved:    res.Calls.Resolved,
		Failures:    res.Failures,
		Unused:      res.Unused,
		Persisted:   res.Persisted,
		DurationMs:  res.Duration.Milliseconds(),
		Widest:      widestJSON(res.Widest),
		Warnings:    res.Warnings,
	}
}

func widestJSON(top []graph.FanOut) []fanOutJSON {
	out := make([]fanOutJSON, 0, len(top))
	for _, f := range top {
		out = append(out, fanOutJSON{Name: f.Name, Subtypes: f.Subtypes, External: f.Placeholder})
	}
	return out
}
