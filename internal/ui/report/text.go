package report

import (
	"fmt"
	"strings"

	"codequery/internal/core/ports"
	"codequery/internal/query"
)

func (r *Renderer) matchesText(matches []query.Match) error {
	s := r.styles
	if len(matches) == 0 {
		_, err := fmt.Fprintln(r.w, s.status.Render("no matches"))
		return err
	}

	var b strings.Builder
	file := ""
	for _, m := range matches {
		if m.File != file {
			if file != "" {
				b.WriteByte('\n')
			}
			file = m.File
			b.WriteString(s.file.Render(file))
			b.WriteByte('\n')
		}
		detail := m.Kind
		if m.Signature != "" {
			detail = m.Signature
		}
		fmt.Fprintf(&b, "  %4d:%-3d %s %s\n", m.Line, m.Column, s.name.Render(m.Name), s.status.Render(detail))
	}
	fmt.Fprintf(&b, "\n%s\n", s.title.Render(fmt.Sprintf("%d match(es)", len(matches))))
	_, err := fmt.Fprint(r.w, b.String())
	return err
}

func (r *Renderer) changesText(changes []query.FileChanges) error {
	s := r.styles
	if len(changes) == 0 {
		_, err := fmt.Fprintln(r.w, s.status.Render("nothing to change"))
		return err
	}

	var b strings.Builder
	total := 0
	for i, fc := range changes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.file.Render(fc.File))
		b.WriteByte('\n')
		for _, c := range fc.Changes {
			fmt.Fprintf(&b, "  %4d %s\n", c.Line, s.status.Render(string(c.Kind)))
			if c.Kind == query.ChangeArgumentsCall {
				fmt.Fprintf(&b, "       %s\n", s.added.Render(fmt.Sprintf("~ arguments taken from old positions %v", c.Permutation)))
			} else {
				fmt.Fprintf(&b, "       %s\n", s.removed.Render("- "+c.Old))
				fmt.Fprintf(&b, "       %s\n", s.added.Render("+ "+c.New))
			}
			total++
		}
	}
	fmt.Fprintf(&b, "\n%s\n", s.title.Render(fmt.Sprintf("%d change(s) in %d file(s)", total, len(changes))))
	_, err := fmt.Fprint(r.w, b.String())
	return err
}

func (r *Renderer) analysisText(res ports.AnalysisResult) error {
	s := r.styles
	var b strings.Builder

	b.WriteString(s.title.Render("Analysis " + res.RunID))
	b.WriteByte('\n')
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s%s\n", s.label.Render(label), value)
	}
	row("files", fmt.Sprintf("%d (%d unparsable)", res.Files, res.ParseErrors))
	row("types", fmt.Sprintf("%d", res.Types))
	row("hierarchy", fmt.Sprintf("%d nodes, %d external, %d edges, depth %d",
		res.Hierarchy.Nodes, res.Hierarchy.Placeholders, res.Hierarchy.Edges, res.Hierarchy.MaxDepth))
	if len(res.Widest) > 0 {
		parts := make([]string, 0, len(res.Widest))
		for _, f := range res.Widest {
			parts = append(parts, fmt.Sprintf("%s (%d)", f.Name, f.Subtypes))
		}
		row("widest", strings.Join(parts, ", "))
	}
	row("overriding", fmt.Sprintf("%d", res.Overridden))
	if res.Calls.Calls > 0 {
		row("calls", fmt.Sprintf("%d resolved, %d unresolved (%.1f%%)",
			res.Calls.Resolved, res.Calls.Unresolved, percent(res.Calls.Resolved, res.Calls.Calls)))
	}
	row("failures", fmt.Sprintf("%d", res.Failures))
	if res.Unused > 0 {
		row("unused imports", fmt.Sprintf("%d", res.Unused))
	}
	row("duration", res.Duration.Round(1e6).String())
	if res.Persisted {
		row("index", s.success.Render("saved"))
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "  %s %s\n", s.warn.Render("warning"), w)
	}
	_, err := fmt.Fprint(r.w, b.String())
	return err
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
