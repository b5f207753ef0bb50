package report

import (
	"fmt"
	"io"
	"strings"

	"codequery/internal/core/ports"
	"codequery/internal/query"
)

type table struct {
	header []string
	rows   [][]string
}

func writeTSV(w io.Writer, t table) error {
	var buf strings.Builder
	buf.WriteString(strings.Join(t.header, "\t"))
	buf.WriteByte('\n')
	for _, row := range t.rows {
		for i, cell := range row {
			row[i] = tsvEscape(cell)
		}
		buf.WriteString(strings.Join(row, "\t"))
		buf.WriteByte('\n')
	}
	_, err := io.WriteString(w, buf.String())
	return err
}

func tsvEscape(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}

func matchesTSV(matches []query.Match) table {
	t := table{header: []string{"Subject", "Kind", "Name", "Signature", "File", "Line", "Column"}}
	for _, m := range matches {
		t.rows = append(t.rows, []string{
			m.Subject.String(),
			m.Kind,
			m.Name,
			m.Signature,
			m.File,
			fmt.Sprint(m.Line),
			fmt.Sprint(m.Column),
		})
	}
	return t
}

func changesTSV(changes []query.FileChanges) table {
	t := table{header: []string{"File", "Line", "Offset", "End", "Kind", "Old", "New"}}
	for _, fc := range changes {
		for _, c := range fc.Changes {
			t.rows = append(t.rows, []string{
				fc.File,
				fmt.Sprint(c.Line),
				fmt.Sprint(c.Offset),
				fmt.Sprint(c.End),
				string(c.Kind),
				c.Old,
				c.New,
			})
		}
	}
	return t
}

func analysisTSV(res ports.AnalysisResult) table {
	return table{
		header: []string{"Run", "Files", "ParseErrors", "Types", "Nodes", "Placeholders", "Edges", "MaxDepth",
			"Overridden", "Calls", "Resolved", "Unresolved", "Failures", "Persisted", "DurationMs"},
		rows: [][]string{{
			res.RunID,
			fmt.Sprint(res.Files),
			fmt.Sprint(res.ParseErrors),
			fmt.Sprint(res.Types),
			fmt.Sprint(res.Hierarchy.Nodes),
			fmt.Sprint(res.Hierarchy.Placeholders),
			fmt.Sprint(res.Hierarchy.Edges),
			fmt.Sprint(res.Hierarchy.MaxDepth),
			fmt.Sprint(res.Overridden),
			fmt.Sprint(res.Calls.Calls),
			fmt.Sprint(res.Calls.Resolved),
			fmt.Sprint(res.Calls.Unresolved),
			fmt.Sprint(res.Failures),
			fmt.Sprint(res.Persisted),
			fmt.Sprint(res.Duration.Milliseconds()),
		}},
	}
}
