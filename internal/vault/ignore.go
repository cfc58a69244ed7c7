package vault

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Directories never scanned or watched, regardless of configuration.
var ignoredDirs = map[string]struct{}{
	"node_modules": {},
	"dist":         {},
	"build":        {},
	"target":       {},
	"vendor":       {},
	"__pycache__":  {},
}

// Extensions treated as indexable text.
var textExts = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".txt":      {},
	".org":      {},
	".canvas":   {},
}

// IgnoreRules decides which directory entries the scanner and the watcher
// skip. The same rules apply to both so they agree on the id set.
type IgnoreRules struct {
	globs []glob.Glob
}

// NewIgnoreRules compiles the optional user-supplied glob patterns on top of
// the built-in rules.
func NewIgnoreRules(patterns []string) (*IgnoreRules, error) {
	r := &IgnoreRules{}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("vault: ignore pattern %q: %w", p, err)
		}
		r.globs = append(r.globs, g)
	}
	return r, nil
}

// SkipDir reports whether a directory with the given base name is excluded.
func (r *IgnoreRules) SkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if _, ok := ignoredDirs[name]; ok {
		return true
	}
	return r.matchesGlob(name)
}

// SkipFile reports whether a file with the given base name is excluded.
func (r *IgnoreRules) SkipFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if _, ok := textExts[strings.ToLower(path.Ext(name))]; !ok {
		return true
	}
	return r.matchesGlob(name)
}

func (r *IgnoreRules) matchesGlob(name string) bool {
	for _, g := range r.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
