package repl

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// rootPrefix marks an include path as heap-home-relative rather than
// relative to the including file (spec.md section 6.3: "a root-prefixed
// path as heap-home-relative").
const rootPrefix = "root:"

// FSIncludeHost resolves include paths against the local filesystem: a
// `root:`-prefixed path resolves under Root (the `-heap-home` flag), an
// absolute path is used verbatim, and anything else resolves relative to
// the directory of the including file.
type FSIncludeHost struct {
	Root string
}

// ResolveInclude implements IncludeHost.
func (h FSIncludeHost) ResolveInclude(path, from string) (string, io.Reader, error) {
	canonical := h.normalize(path, from)
	f, err := os.Open(canonical)
	if err != nil {
		return "", nil, err
	}
	return canonical, f, nil
}

func (h FSIncludeHost) normalize(path, from string) string {
	switch {
	case strings.HasPrefix(path, rootPrefix):
		return filepath.Join(h.Root, strings.TrimPrefix(path, rootPrefix))
	case filepath.IsAbs(path):
		return path
	default:
		return filepath.Join(filepath.Dir(from), path)
	}
}
