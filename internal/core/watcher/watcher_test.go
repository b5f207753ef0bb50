package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadPattern(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, []string{"[abc"}, nil, func([]string) {}); err == nil {
		t.Fatal("expected glob compile error")
	}
}

func waitFor(t *testing.T, changed <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func expectQuiet(t *testing.T, changed <-chan []string, d time.Duration, reject func(string) bool) {
	t.Helper()
	select {
	case paths := <-changed:
		for _, p := range paths {
			if reject(p) {
				t.Fatalf("unexpected change event for %s", p)
			}
		}
	case <-time.After(d):
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changed := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, []string{"generated"}, []string{"*Stub.java"}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.MkdirAll(filepath.Join(tmpDir, "generated"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "Main.java")
	if err := os.WriteFile(testFile, []byte("class Main {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, testFile, 2*time.Second)

	for _, name := range []string{"notes.txt", "OrderStub.java", filepath.Join("generated", "Gen.java")} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	expectQuiet(t, changed, 500*time.Millisecond, func(p string) bool {
		return strings.HasSuffix(p, ".txt") || strings.HasSuffix(p, "Stub.java") || strings.Contains(p, "generated")
	})

	// New directories are watched recursively once created.
	subdir := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "Nested.java")
	if err := os.WriteFile(subFile, []byte("class Nested {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, subFile, 2*time.Second)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changed := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, nil, nil, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "Old.java")
	newPath := filepath.Join(tmpDir, "New.java")
	if err := os.WriteFile(oldPath, []byte("class Old {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_IdenticalContentIsDropped(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "Same.java")
	content := []byte("class Same {}")
	if err := os.WriteFile(testFile, content, 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(testFile, content, 0o644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, changed, 300*time.Millisecond, func(p string) bool { return p == testFile })

	if err := os.WriteFile(testFile, []byte("class Same { int x; }"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, testFile, time.Second)
}

func TestWatcher_FileFilter(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, nil, []string{"**/legacy/**"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if !w.shouldExcludeFile("README.md") {
		t.Fatal("non-java files are excluded by default")
	}
	if w.shouldExcludeFile("src/Main.java") {
		t.Fatal("java files are watched by default")
	}
	if !w.shouldExcludeFile("src/legacy/Old.java") {
		t.Fatal("path patterns apply to the slash-separated path")
	}

	w.SetFileFilter(func(path string) bool { return !strings.HasSuffix(path, "Test.java") })
	if !w.shouldExcludeFile("src/MainTest.java") {
		t.Fatal("custom filter must be honored")
	}
}
