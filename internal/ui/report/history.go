package report

import (
	"fmt"
	"strings"
	"time"

	"codequery/internal/data/index"
)

type runJSON struct {
	ID            string    `json:"run_id"`
	ProjectKey    string    `json:"project_key"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Files         int       `json:"files"`
	Types         int       `json:"types"`
	Calls         int       `json:"calls"`
	ResolvedCalls int       `json:"resolved_calls"`
	DeltaTypes    int       `json:"delta_types"`
}

// Runs renders stored runs newest first. Deltas compare each run with the
// one listed after it.
func (r *Renderer) Runs(runs []index.Run) error {
	switch r.format {
	case FormatTSV:
		t := table{header: []string{"Run", "Project", "Finished", "Files", "Types", "Calls", "ResolvedCalls", "DeltaTypes"}}
		for i, run := range runs {
			t.rows = append(t.rows, []string{
				run.ID,
				run.ProjectKey,
				run.FinishedAt.UTC().Format(time.RFC3339),
				fmt.Sprint(run.Files),
				fmt.Sprint(run.Types),
				fmt.Sprint(run.Calls),
				fmt.Sprint(run.ResolvedCalls),
				fmt.Sprint(typeDelta(runs, i)),
			})
		}
		return writeTSV(r.w, t)
	case FormatJSON:
		out := make([]runJSON, 0, len(runs))
		for i, run := range runs {
			out = append(out, runJSON{
				ID:            run.ID,
				ProjectKey:    run.ProjectKey,
				StartedAt:     run.StartedAt.UTC(),
				FinishedAt:    run.FinishedAt.UTC(),
				Files:         run.Files,
				Types:         run.Types,
				Calls:         run.Calls,
				ResolvedCalls: run.ResolvedCalls,
				DeltaTypes:    typeDelta(runs, i),
			})
		}
		return writeJSON(r.w, out)
	}

	s := r.styles
	if len(runs) == 0 {
		_, err := fmt.Fprintln(r.w, s.status.Render("no stored runs"))
		return err
	}
	var b strings.Builder
	b.WriteString(s.title.Render("Runs of " + runs[0].ProjectKey))
	b.WriteByte('\n')
	for i, run := range runs {
		delta := typeDelta(runs, i)
		deltaText := s.status.Render("±0")
		switch {
		case delta > 0:
			deltaText = s.added.Render(fmt.Sprintf("+%d", delta))
		case delta < 0:
			deltaText = s.removed.Render(fmt.Sprint(delta))
		}
		fmt.Fprintf(&b, "  %s  %s  %d files  %d types %s  %d/%d calls\n",
			run.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			s.name.Render(shortID(run.ID)),
			run.Files, run.Types, deltaText, run.ResolvedCalls, run.Calls)
	}
	_, err := fmt.Fprint(r.w, b.String())
	return err
}

func typeDelta(runs []index.Run, i int) int {
	if i+1 >= len(runs) {
		return 0
	}
	return runs[i].Types - runs[i+1].Types
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
