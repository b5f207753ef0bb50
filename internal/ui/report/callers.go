package report

import (
	"fmt"
	"strings"

	"codequery/internal/data/index"
)

type callerJSON struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Name string `json:"name"`
}

type callersJSON struct {
	RunID   string       `json:"run_id"`
	Target  string       `json:"target"`
	Callers []callerJSON `json:"callers"`
}

// Callers renders the stored call sites bound to target in run.
func (r *Renderer) Callers(run index.Run, target string, calls []index.CallBinding) error {
	switch r.format {
	case FormatTSV:
		t := table{header: []string{"File", "Line", "Name", "Target"}}
		for _, c := range calls {
			t.rows = append(t.rows, []string{c.File, fmt.Sprint(c.Line), c.Name, c.Target})
		}
		return writeTSV(r.w, t)
	case FormatJSON:
		view := callersJSON{RunID: run.ID, Target: target, Callers: make([]callerJSON, 0, len(calls))}
		for _, c := range calls {
			view.Callers = append(view.Callers, callerJSON{File: c.File, Line: c.Line, Name: c.Name})
		}
		return writeJSON(r.w, view)
	}

	s := r.styles
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", s.title.Render("Callers of "+target), s.status.Render("(run "+shortID(run.ID)+")"))
	if len(calls) == 0 {
		fmt.Fprintf(&b, "  %s\n", s.status.Render("no stored call sites"))
	}
	for _, c := range calls {
		fmt.Fprintf(&b, "  %s:%d  %s\n", s.file.Render(c.File), c.Line, s.name.Render(c.Name))
	}
	_, err := fmt.Fprint(r.w, b.String())
	return err
}
