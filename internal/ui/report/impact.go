package report

import (
	"fmt"
	"strings"

	"codequery/internal/engine/graph"
)

type impactJSON struct {
	Target             string   `json:"target"`
	External           bool     `json:"external"`
	Supertypes         []string `json:"supertypes"`
	DirectSubtypes     []string `json:"direct_subtypes"`
	TransitiveSubtypes []string `json:"transitive_subtypes"`
	Files              []string `json:"files"`
}

// Impact renders what a change to one type reaches. TSV emits one row per
// affected type, labelled direct or transitive.
func (r *Renderer) Impact(rep graph.ImpactReport) error {
	switch r.format {
	case FormatTSV:
		t := table{header: []string{"Target", "Relation", "Type"}}
		for _, name := range rep.Supertypes {
			t.rows = append(t.rows, []string{rep.Target, "supertype", name})
		}
		for _, name := range rep.DirectSubtypes {
			t.rows = append(t.rows, []string{rep.Target, "direct", name})
		}
		for _, name := range rep.TransitiveSubtypes {
			t.rows = append(t.rows, []string{rep.Target, "transitive", name})
		}
		return writeTSV(r.w, t)
	case FormatJSON:
		return writeJSON(r.w, impactJSON{
			Target:             rep.Target,
			External:           rep.Placeholder,
			Supertypes:         nonNil(rep.Supertypes),
			DirectSubtypes:     nonNil(rep.DirectSubtypes),
			TransitiveSubtypes: nonNil(rep.TransitiveSubtypes),
			Files:              nonNil(rep.Files),
		})
	}

	s := r.styles
	var b strings.Builder
	title := "Impact of " + rep.Target
	if rep.Placeholder {
		title += " (external)"
	}
	b.WriteString(s.title.Render(title))
	b.WriteByte('\n')
	list := func(label string, names []string) {
		value := s.status.Render("none")
		if len(names) > 0 {
			value = strings.Join(names, ", ")
		}
		fmt.Fprintf(&b, "  %s%s\n", s.label.Render(label), value)
	}
	list("supertypes", rep.Supertypes)
	list("direct", rep.DirectSubtypes)
	list("transitive", rep.TransitiveSubtypes)
	if len(rep.Files) > 0 {
		fmt.Fprintf(&b, "  %s\n", s.label.Render("files"))
		for _, f := range rep.Files {
			fmt.Fprintf(&b, "    %s\n", s.file.Render(f))
		}
	}
	_, err := fmt.Fprint(r.w, b.String())
	return err
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
