package fsutil

import (
	"path/filepath"

	"github.com/gobwas/glob"
)

// Filter decides which files a copy picks up.
type Filter interface {
	Match(path string) bool
}

type baseNameFilter struct {
	g glob.Glob
}

// Match reports whether the final element of path matches.
func (f baseNameFilter) Match(path string) bool {
	return f.g.Match(filepath.Base(path))
}

// SuffixFilter accepts files whose name ends with ext, e.g. ".js".
// ext is matched literally; glob metacharacters in it are quoted.
func SuffixFilter(ext string) (Filter, error) {
	g, err := glob.Compile("*" + glob.QuoteMeta(ext))
	if err != nil {
		return nil, err
	}
	return baseNameFilter{g: g}, nil
}

// MustSuffixFilter is like SuffixFilter but panics on error.
func MustSuffixFilter(ext string) Filter {
	f, err := SuffixFilter(ext)
	if err != nil {
		panic(err)
	}
	return f
}
