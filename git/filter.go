package git

import (
	"path/filepath"

	"github.com/moby/patternmatcher"
)

// Filter drops paths matching .dockerignore-style patterns. A nil or empty
// Filter keeps everything.
type Filter struct {
	pm       *patternmatcher.PatternMatcher
	patterns []string
}

// NewFilter compiles patterns. Patterns prefixed with "!" re-include paths.
func NewFilter(patterns []string) (*Filter, error) {
	if len(patterns) == 0 {
		return &Filter{}, nil
	}
	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, err
	}
	return &Filter{pm: pm, patterns: append([]string(nil), patterns...)}, nil
}

// Excluded reports whether a repository-relative, slash-separated path is filtered out.
func (f *Filter) Excluded(path string) bool {
	if f == nil || f.pm == nil {
		return false
	}
	ok, err := f.pm.MatchesOrParentMatches(filepath.FromSlash(path))
	return err == nil && ok
}

// Patterns returns the patterns the filter was built from.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.patterns...)
}
