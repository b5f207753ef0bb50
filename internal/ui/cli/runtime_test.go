package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	coreapp "codequery/internal/core/app"
	"codequery/internal/core/config"
	"codequery/internal/core/errors"
)

const greeterSource = `package demo;

public class Greeter {
    public String greet(String name, int times) {
        return name;
    }

    void run() {
        greet("x", 2);
    }
}
`

func writeCLIProject(t *testing.T, indexEnabled bool) string {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src", "demo")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "Greeter.java"), []byte(greeterSource), 0o644); err != nil {
		t.Fatal(err)
	}
	body := fmt.Sprintf("project_root = %q\nsource_paths = [\"src\"]\n\n[index]\nenabled = %v\n", root, indexEnabled)
	path := filepath.Join(root, config.DefaultFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, factory appFactory, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand(&stdout, &stderr, factory)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, coreAppFactory{}, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "codequery v"+versionString+"\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestAnalyzeCommandTSV(t *testing.T) {
	cfgPath := writeCLIProject(t, false)
	out, err := execute(t, coreAppFactory{}, "--config", cfgPath, "--format", "tsv", "analyze")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Run\tFiles") {
		t.Fatalf("unexpected output %q", out)
	}
	// Files, ParseErrors, Types follow the run id.
	if fields := strings.Split(lines[1], "\t"); fields[1] != "1" || fields[2] != "0" || fields[3] != "1" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestSearchCommand(t *testing.T) {
	cfgPath := writeCLIProject(t, false)
	out, err := execute(t, coreAppFactory{}, "--config", cfgPath, "--format", "tsv", "search", "method", "WHERE", "name = 'greet'")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "demo.Greeter#greet(String,int)\tsrc/demo/Greeter.java\t4") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := execute(t, coreAppFactory{}, "--config", cfgPath, "search", "REFACTOR RENAME 'demo.Greeter#run()' TO 'go'"); err == nil {
		t.Fatal("search must reject refactorings")
	}
}

func TestRefactorCommandPreview(t *testing.T) {
	cfgPath := writeCLIProject(t, false)
	out, err := execute(t, coreAppFactory{}, "--config", cfgPath, "refactor", "--preview", "1",
		"PARAMETERS 'demo.Greeter#greet(String,int)' TO 'int times, String name'")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "public String greet(int times, String name) {") {
		t.Fatalf("declaration edit missing from %q", out)
	}
	if !strings.Contains(out, `greet(2, "x");`) {
		t.Fatalf("call edit missing from %q", out)
	}

	out, err = execute(t, coreAppFactory{}, "--config", cfgPath, "--format", "json", "refactor",
		"RENAME 'demo.Greeter#greet(String,int)' TO 'hello'")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, `"new": "hello"`) != 2 {
		t.Fatalf("expected declaration and call rename in %q", out)
	}
}

func TestImpactCommand(t *testing.T) {
	cfgPath := writeCLIProject(t, false)
	out, err := execute(t, coreAppFactory{}, "--config", cfgPath, "--format", "tsv", "impact", "Greeter")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "demo.Greeter\tsupertype\tjava.lang.Object") {
		t.Fatalf("unexpected output %q", out)
	}

	_, err = execute(t, coreAppFactory{}, "--config", cfgPath, "impact", "Nope")
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestImportsCommand(t *testing.T) {
	cfgPath := writeCLIProject(t, false)
	src := filepath.Join(filepath.Dir(cfgPath), "src", "demo", "Clock.java")
	body := "package demo;\n\nimport java.time.Instant;\nimport java.util.List;\n\nclass Clock {\n    Instant now;\n}\n"
	if err := os.WriteFile(src, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, coreAppFactory{}, "--config", cfgPath, "--format", "tsv", "imports")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "src/demo/Clock.java\t4\t") || !strings.Contains(lines[1], "java.util.List") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCallersCommand(t *testing.T) {
	cfgPath := writeCLIProject(t, true)
	if _, err := execute(t, coreAppFactory{}, "--config", cfgPath, "callers", "demo.Greeter#greet(String,int)"); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND before any run, got %v", err)
	}
	if _, err := execute(t, coreAppFactory{}, "--config", cfgPath, "analyze"); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, coreAppFactory{}, "--config", cfgPath, "--format", "tsv", "callers", "demo.Greeter#greet(String,int)")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "src/demo/Greeter.java\t9\tgreet\tdemo.Greeter#greet(String,int)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestHistoryCommand(t *testing.T) {
	cfgPath := writeCLIProject(t, false)
	_, err := execute(t, coreAppFactory{}, "--config", cfgPath, "history")
	if !errors.IsCode(err, errors.CodeNotSupported) {
		t.Fatalf("expected NOT_SUPPORTED without index, got %v", err)
	}

	cfgPath = writeCLIProject(t, true)
	for i := 0; i < 2; i++ {
		if _, err := execute(t, coreAppFactory{}, "--config", cfgPath, "analyze"); err != nil {
			t.Fatal(err)
		}
	}
	out, err := execute(t, coreAppFactory{}, "--config", cfgPath, "--format", "tsv", "history", "--limit", "5")
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 {
		t.Fatalf("expected header and two runs, got %q", out)
	}
}

type failingFactory struct{}

func (failingFactory) New(*config.Config) (*coreapp.App, error) {
	return nil, fmt.Errorf("boom")
}

func TestRuntimeErrors(t *testing.T) {
	cfgPath := writeCLIProject(t, false)

	if _, err := execute(t, failingFactory{}, "--config", cfgPath, "analyze"); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected factory error, got %v", err)
	}
	if _, err := execute(t, coreAppFactory{}, "--config", cfgPath, "--format", "xml", "analyze"); err == nil {
		t.Fatal("expected unknown format error")
	}
	_, err := execute(t, coreAppFactory{}, "--config", filepath.Join(t.TempDir(), "missing.toml"), "analyze")
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for a missing config, got %v", err)
	}
	if _, err := initializeApp(config.Default(), nil); err == nil {
		t.Fatal("expected error without a factory")
	}
}

func TestWithKeyword(t *testing.T) {
	tests := []struct {
		keyword string
		args    []string
		want    string
	}{
		{"SEARCH", []string{"class"}, "SEARCH class"},
		{"SEARCH", []string{"search", "class"}, "search class"},
		{"REFACTOR", []string{"RENAME 'a.B#c()' TO 'd'"}, "REFACTOR RENAME 'a.B#c()' TO 'd'"},
		{"SEARCH", []string{" "}, "SEARCH "},
	}
	for _, tt := range tests {
		if got := withKeyword(tt.keyword, tt.args); got != tt.want {
			t.Errorf("withKeyword(%q, %q) = %q, want %q", tt.keyword, tt.args, got, tt.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(errors.New(errors.CodeValidationError, "bad query")); got != 2 {
		t.Fatalf("validation errors exit 2, got %d", got)
	}
	if got := exitCode(fmt.Errorf(`unknown command "x" for "codequery"`)); got != 2 {
		t.Fatalf("unknown commands exit 2, got %d", got)
	}
	if got := exitCode(errors.New(errors.CodeNotFound, "missing")); got != 1 {
		t.Fatalf("other errors exit 1, got %d", got)
	}
}
