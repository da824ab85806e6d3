package walker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultInclude matches every reStructuredText file at any depth.
const DefaultInclude = "**.rst"

// skippedDirs are never descended into.
var skippedDirs = map[string]struct{}{
	".git":        {},
	".hg":         {},
	".svn":        {},
	"__pycache__": {},
	"build":       {},
	"venv":        {},
	".venv":       {},
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Discover lists the files to process as absolute paths, in the lexical
// order of filepath.WalkDir.
func (w *Walker) Discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == w.root {
				return nil
			}
			if _, skip := skippedDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		rel := w.Rel(path)
		if !matchAny(w.include, rel) || matchAny(w.exclude, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", w.root, err)
	}
	return files, nil
}

// Rel returns path relative to the corpus root with forward slashes.
func (w *Walker) Rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
