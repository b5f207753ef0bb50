// # internal/core/app/scanner.go
package app

import (
	"io/fs"
	"path/filepath"
	"sort"

	"codequery/internal/shared/util"

	"github.com/gobwas/glob"
)

// ScanDirectories walks paths and returns every supported source file not
// excluded by directory or file globs. Patterns are matched against both
// the base name and the slash path relative to the project root.
func (a *App) ScanDirectories(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, root := range uniqueRoots(paths) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel := a.relativeKey(path)
			if d.IsDir() {
				if path != root && matchesAny(a.excludeDirs, filepath.Base(path), rel) {
					return filepath.SkipDir
				}
				return nil
			}

			if !a.codeParser.IsSupportedPath(path) {
				return nil
			}
			if !a.Config.Analysis.ShouldIncludeTests() && a.codeParser.IsTestFile(path) {
				return nil
			}
			if matchesAny(a.excludeFiles, filepath.Base(path), rel) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// relativeKey is the slash path of path under the project root, or the
// slash form of path itself when it lies outside.
func (a *App) relativeKey(path string) string {
	if rel, ok := util.RelativeSlashPath(a.Paths.ProjectRoot, path); ok && rel != "" {
		return rel
	}
	return util.NormalizePatternPath(path)
}

func matchesAny(globs []glob.Glob, candidates ...string) bool {
	for _, g := range globs {
		for _, c := range candidates {
			if g.Match(c) {
				return true
			}
		}
	}
	return false
}

// uniqueRoots drops roots nested inside another root.
func uniqueRoots(paths []string) []string {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		cleaned = append(cleaned, filepath.Clean(p))
	}
	sort.Strings(cleaned)

	out := make([]string, 0, len(cleaned))
	for _, p := range cleaned {
		nested := false
		for _, kept := range out {
			if util.HasPathPrefix(p, kept) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, p)
		}
	}
	return out
}
