// # internal/ui/report/preview.go
package report

import (
	"bytes"
	"fmt"
	"strings"

	"codequery/internal/query"
)

// Snippet is a change shown with the source lines around it.
type Snippet struct {
	Line    int
	Kind    query.ChangeKind
	Before  string
	After   string
	Context []string
}

// PreviewChanges cuts a snippet of ±radius lines around every change of
// one file. Before and After are the changed line without and with the
// edit applied; a change whose offsets fall outside content gets no
// snippet.
func PreviewChanges(content []byte, fc query.FileChanges, radius int) []Snippet {
	lines := splitLines(content)
	starts := lineStarts(content)
	out := make([]Snippet, 0, len(fc.Changes))
	for _, c := range fc.Changes {
		idx := c.Line - 1
		if idx < 0 || idx >= len(lines) || c.Offset < 0 || c.End > len(content) || c.Offset > c.End {
			continue
		}
		start := starts[idx]
		col, end := c.Offset-start, c.End-start
		before := lines[idx]
		if col < 0 || end > len(before) {
			continue
		}
		replacement := c.New
		if c.Kind == query.ChangeArgumentsCall {
			replacement = permuteArguments(content, c)
		}
		out = append(out, Snippet{
			Line:    c.Line,
			Kind:    c.Kind,
			Before:  before,
			After:   before[:col] + replacement + before[end:],
			Context: buildContext(lines, idx, radius),
		})
	}
	return out
}

// permuteArguments rebuilds a call's parenthesized argument list in the
// order the permutation gives.
func permuteArguments(content []byte, c query.Change) string {
	if c.End-c.Offset < 2 {
		return string(content[c.Offset:c.End])
	}
	var args []string
	prev := c.Offset + 1
	for _, comma := range c.Commas {
		if comma <= prev-1 || comma >= c.End-1 {
			continue
		}
		args = append(args, strings.TrimSpace(string(content[prev:comma])))
		prev = comma + 1
	}
	if last := strings.TrimSpace(string(content[prev : c.End-1])); last != "" || len(args) > 0 {
		args = append(args, last)
	}

	next := make([]string, 0, len(c.Permutation))
	for _, j := range c.Permutation {
		if j >= 0 && j < len(args) {
			next = append(next, args[j])
		}
	}
	return "(" + strings.Join(next, ", ") + ")"
}

// Preview writes the snippets of one file in the renderer's text style.
func (r *Renderer) Preview(file string, snippets []Snippet) error {
	s := r.styles
	var b strings.Builder
	b.WriteString(s.file.Render(file))
	b.WriteByte('\n')
	for _, sn := range snippets {
		for _, line := range sn.Context {
			if strings.HasPrefix(line, formatLineNum(sn.Line)+":") {
				fmt.Fprintf(&b, "%s\n", s.removed.Render(formatLineNum(sn.Line)+"- "+sn.Before))
				fmt.Fprintf(&b, "%s\n", s.added.Render(formatLineNum(sn.Line)+"+ "+sn.After))
				continue
			}
			fmt.Fprintf(&b, "%s\n", s.status.Render(line))
		}
		b.WriteByte('\n')
	}
	_, err := fmt.Fprint(r.w, b.String())
	return err
}

func buildContext(lines []string, hitIdx, radius int) []string {
	start := max(hitIdx-radius, 0)
	end := min(hitIdx+radius+1, len(lines))
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, formatLineNum(i+1)+": "+lines[i])
	}
	return out
}

// formatLineNum right-aligns n to six columns.
func formatLineNum(n int) string {
	return fmt.Sprintf("%6d", n)
}

func splitLines(content []byte) []string {
	raw := bytes.Split(content, []byte("\n"))
	lines := make([]string, len(raw))
	for i, b := range raw {
		lines[i] = strings.TrimSuffix(string(b), "\r")
	}
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func lineStarts(content []byte) []int {
	starts := []int{0}
	for i, c := range content {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
