package report

import (
	"fmt"
	"io"
	"strings"

	"codequery/internal/core/ports"
	"codequery/internal/query"
)

type Format string

const (
	FormatText Format = "text"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatTSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, tsv or json)", s)
	}
}

// Renderer writes analysis and query results in one format. Text output is
// styled only when w is a terminal.
type Renderer struct {
	w      io.Writer
	format Format
	styles styles
}

func NewRenderer(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format, styles: newStyles(w)}
}

func (r *Renderer) Format() Format { return r.format }

// Result renders matches for searches and changes for refactorings.
func (r *Renderer) Result(res query.Result) error {
	if res.Query.Action == query.ActionSearch {
		return r.Matches(res.Matches)
	}
	return r.Changes(res.Changes)
}

func (r *Renderer) Matches(matches []query.Match) error {
	switch r.format {
	case FormatTSV:
		return writeTSV(r.w, matchesTSV(matches))
	case FormatJSON:
		return writeJSON(r.w, matchesJSON(matches))
	default:
		return r.matchesText(matches)
	}
}

func (r *Renderer) Changes(changes []query.FileChanges) error {
	switch r.format {
	case FormatTSV:
		return writeTSV(r.w, changesTSV(changes))
	case FormatJSON:
		return writeJSON(r.w, changesJSON(changes))
	default:
		return r.changesText(changes)
	}
}

func (r *Renderer) Analysis(res ports.AnalysisResult) error {
	switch r.format {
	case FormatTSV:
		return writeTSV(r.w, analysisTSV(res))
	case FormatJSON:
		return writeJSON(r.w, analysisJSON(res))
	default:
		return r.analysisText(res)
	}
}
