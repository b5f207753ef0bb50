package report

import (
	"fmt"
	"strings"

	"codequery/internal/engine/resolver"
)

type unusedImportJSON struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Import string `json:"import"`
	Static bool   `json:"static"`
}

func (r *Renderer) UnusedImports(list []resolver.UnusedImport) error {
	switch r.format {
	case FormatTSV:
		t := table{header: []string{"File", "Line", "Column", "Import", "Static"}}
		for _, u := range list {
			t.rows = append(t.rows, []string{u.File, fmt.Sprint(u.Line), fmt.Sprint(u.Column), u.Path, fmt.Sprint(u.Static)})
		}
		return writeTSV(r.w, t)
	case FormatJSON:
		out := make([]unusedImportJSON, 0, len(list))
		for _, u := range list {
			out = append(out, unusedImportJSON{File: u.File, Line: u.Line, Column: u.Column, Import: u.Path, Static: u.Static})
		}
		return writeJSON(r.w, out)
	}

	s := r.styles
	if len(list) == 0 {
		_, err := fmt.Fprintln(r.w, s.success.Render("no unused imports"))
		return err
	}
	var b strings.Builder
	file := ""
	for _, u := range list {
		if u.File != file {
			file = u.File
			fmt.Fprintf(&b, "%s\n", s.file.Render(file))
		}
		keyword := "import "
		if u.Static {
			keyword = "import static "
		}
		fmt.Fprintf(&b, "  %4d  %s%s\n", u.Line, keyword, s.warn.Render(u.Path))
	}
	fmt.Fprintf(&b, "\n%s\n", s.title.Render(fmt.Sprintf("%d unused import(s)", len(list))))
	_, err := fmt.Fprint(r.w, b.String())
	return err
}
