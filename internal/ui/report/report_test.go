package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"codequery/internal/core/ports"
	"codequery/internal/data/index"
	"codequery/internal/engine/graph"
	"codequery/internal/engine/resolver"
	"codequery/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleMatches = []query.Match{
	{Subject: query.SubjectMethod, Kind: "method", Name: "shapes.Circle.area", Signature: "shapes.Circle#area()", File: "shapes/Circle.java", Line: 9, Column: 5},
	{Subject: query.SubjectMethod, Kind: "method", Name: "shapes.Square.area", Signature: "shapes.Square#area()", File: "shapes/Square.java", Line: 6, Column: 5},
}

var sampleChanges = []query.FileChanges{
	{File: "app/Report.java", Changes: []query.Change{
		{Line: 9, Offset: 120, End: 124, Kind: query.ChangeRenameCall, Old: "name", New: "label"},
	}},
	{File: "shapes/Shape.java", Changes: []query.Change{
		{Line: 5, Offset: 60, End: 64, Kind: query.ChangeRenameDeclaration, Old: "name", New: "label"},
	}},
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TSV": FormatTSV, " json ": FormatJSON, "text": FormatText} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestMatchesText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatText).Matches(sampleMatches))

	out := buf.String()
	assert.Contains(t, out, "shapes/Circle.java")
	assert.Contains(t, out, "shapes.Square.area")
	assert.Contains(t, out, "shapes.Circle#area()")
	assert.Contains(t, out, "2 match(es)")
	assert.NotContains(t, out, "\x1b[", "plain writers get no escape codes")

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatText).Matches(nil))
	assert.Equal(t, "no matches\n", buf.String())
}

func TestMatchesTSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatTSV).Matches(sampleMatches))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Subject\tKind\tName\tSignature\tFile\tLine\tColumn", lines[0])
	assert.Equal(t, "method\tmethod\tshapes.Circle.area\tshapes.Circle#area()\tshapes/Circle.java\t9\t5", lines[1])
}

func TestChangesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatJSON).Result(query.Result{
		Query:   query.Query{Action: query.ActionRename},
		Changes: sampleChanges,
	}))

	var decoded []struct {
		File    string `json:"file"`
		Changes []struct {
			Line int    `json:"line"`
			Kind string `json:"kind"`
			New  string `json:"new"`
		} `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "app/Report.java", decoded[0].File)
	assert.Equal(t, "rename-call", decoded[0].Changes[0].Kind)
	assert.Equal(t, "label", decoded[1].Changes[0].New)
}

func TestChangesText(t *testing.T) {
	changes := append([]query.FileChanges{}, sampleChanges...)
	changes = append(changes, query.FileChanges{File: "app/Main.java", Changes: []query.Change{
		{Line: 3, Kind: query.ChangeArgumentsCall, Permutation: []int{1, 0}},
	}})

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatText).Changes(changes))
	out := buf.String()
	assert.Contains(t, out, "- name")
	assert.Contains(t, out, "+ label")
	assert.Contains(t, out, "old positions [1 0]")
	assert.Contains(t, out, "3 change(s) in 3 file(s)")
}

func TestAnalysisFormats(t *testing.T) {
	res := ports.AnalysisResult{
		RunID:       "run-1",
		Files:       4,
		ParseErrors: 1,
		Types:       5,
		Hierarchy:   graph.Stats{Nodes: 7, Placeholders: 1, Edges: 6, MaxDepth: 2},
		Widest:      []graph.FanOut{{Name: "shop.Shape", Subtypes: 3}},
		Overridden:  2,
		Calls:       resolver.AnnotationStats{Calls: 4, Resolved: 3, Unresolved: 1},
		Persisted:   true,
		Duration:    1500 * time.Millisecond,
		Warnings:    []string{"Broken.java: syntax"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatText).Analysis(res))
	out := buf.String()
	assert.Contains(t, out, "Analysis run-1")
	assert.Contains(t, out, "4 (1 unparsable)")
	assert.Contains(t, out, "3 resolved, 1 unresolved (75.0%)")
	assert.Contains(t, out, "saved")
	assert.Contains(t, out, "shop.Shape (3)")
	assert.Contains(t, out, "Broken.java: syntax")

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatTSV).Analysis(res))
	assert.Contains(t, buf.String(), "run-1\t4\t1\t5\t7\t1\t6\t2\t2\t4\t3\t1\t0\ttrue\t1500")

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatJSON).Analysis(res))
	assert.Contains(t, buf.String(), `"resolved_calls": 3`)
	assert.Contains(t, buf.String(), `"duration_ms": 1500`)
	assert.Contains(t, buf.String(), `"widest_types"`)
}

func TestImpactFormats(t *testing.T) {
	rep := graph.ImpactReport{
		Target:             "shop.Shape",
		Supertypes:         []string{"java.lang.Object"},
		DirectSubtypes:     []string{"shop.Circle"},
		TransitiveSubtypes: []string{"shop.Ring"},
		Files:              []string{"src/Circle.java", "src/Ring.java", "src/Shape.java"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatText).Impact(rep))
	out := buf.String()
	assert.Contains(t, out, "Impact of shop.Shape")
	assert.Contains(t, out, "shop.Circle")
	assert.Contains(t, out, "src/Ring.java")

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatTSV).Impact(rep))
	assert.Equal(t, "Target\tRelation\tType\n"+
		"shop.Shape\tsupertype\tjava.lang.Object\n"+
		"shop.Shape\tdirect\tshop.Circle\n"+
		"shop.Shape\ttransitive\tshop.Ring\n", buf.String())

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatJSON).Impact(graph.ImpactReport{Target: "x.Leaf"}))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "x.Leaf", decoded["target"])
	assert.Equal(t, []any{}, decoded["direct_subtypes"])
}

func TestRuns(t *testing.T) {
	finished := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	runs := []index.Run{
		{ID: "0123456789abcdef", ProjectKey: "shop", FinishedAt: finished, Files: 10, Types: 12, Calls: 40, ResolvedCalls: 30},
		{ID: "fedcba9876543210", ProjectKey: "shop", FinishedAt: finished.Add(-time.Hour), Files: 9, Types: 10},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatTSV).Runs(runs))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0123456789abcdef\tshop\t2026-03-01T10:00:00Z\t10\t12\t40\t30\t2", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], "\t0"))

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatText).Runs(runs))
	assert.Contains(t, buf.String(), "Runs of shop")
	assert.Contains(t, buf.String(), "01234567")
	assert.Contains(t, buf.String(), "+2")

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatJSON).Runs(runs))
	assert.Contains(t, buf.String(), `"delta_types": 2`)

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatText).Runs(nil))
	assert.Equal(t, "no stored runs\n", buf.String())
}

func TestUnusedImports(t *testing.T) {
	list := []resolver.UnusedImport{
		{File: "src/a/A.java", Path: "java.util.List", Line: 3, Column: 1},
		{File: "src/a/A.java", Path: "java.lang.Math.max", Static: true, Line: 4, Column: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatText).UnusedImports(list))
	assert.Contains(t, buf.String(), "import static java.lang.Math.max")
	assert.Contains(t, buf.String(), "2 unused import(s)")
	assert.Equal(t, 1, strings.Count(buf.String(), "src/a/A.java"))

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatTSV).UnusedImports(list))
	assert.Contains(t, buf.String(), "src/a/A.java\t4\t1\tjava.lang.Math.max\ttrue")

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatText).UnusedImports(nil))
	assert.Equal(t, "no unused imports\n", buf.String())
}

func TestCallers(t *testing.T) {
	run := index.Run{ID: "0123456789abcdef"}
	calls := []index.CallBinding{{File: "src/Main.java", Line: 7, Name: "area", Target: "shapes.Circle#area()"}}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatText).Callers(run, "shapes.Circle#area()", calls))
	assert.Contains(t, buf.String(), "Callers of shapes.Circle#area()")
	assert.Contains(t, buf.String(), "src/Main.java:7")
	assert.Contains(t, buf.String(), "run 01234567")

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, FormatJSON).Callers(run, "shapes.Circle#area()", nil))
	assert.Contains(t, buf.String(), `"callers": []`)
}

func TestTSVEscapesCells(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTSV(&buf, table{header: []string{"A"}, rows: [][]string{{"x\ty\nz"}}}))
	assert.Equal(t, "A\nx y z\n", buf.String())
}
