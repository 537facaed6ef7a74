package scan

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"unicode/utf8"
)

var (
	lineCommentRegex = regexp.MustCompile(`//.*`)
	// a return type identifier, "main" and an opening parenthesis, on one line
	entryPointRegex = regexp.MustCompile(`(?m)^[ \t]*[A-Za-z_][A-Za-z0-9_]*[ \t]+main[ \t]*\(`)
	includeRegex    = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*include[ \t]*"([^"]+)"`)
)

type Classification struct {
	IsTarget bool
	Includes []string // absolute, canonical, in order of appearance
}

// Classify inspects the text of the file at path. Block comments are not stripped.
func Classify(path string, text []byte) (Classification, error) {
	if !utf8.Valid(text) {
		return Classification{}, &Error{Kind: DecodeError, Path: path, Err: ErrDecode}
	}

	stripped := lineCommentRegex.ReplaceAll(text, nil)

	var c Classification
	c.IsTarget = entryPointRegex.Match(stripped)

	dir := filepath.Dir(path)
	seen := make(map[string]bool)
	for _, m := range includeRegex.FindAllSubmatch(stripped, -1) {
		inc := resolveInclude(dir, string(bytes.TrimSpace(m[1])))
		if seen[inc] {
			continue
		}
		seen[inc] = true
		c.Includes = append(c.Includes, inc)
	}
	return c, nil
}

// ClassifyFile reads the file at path and classifies it.
func ClassifyFile(path string) (Classification, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return Classification{}, &Error{Kind: IOError, Path: path, Err: err}
	}
	return Classify(path, text)
}

// resolveInclude makes inc absolute and canonical. Symlinks are resolved as far
// as the path exists, so a dangling include through a symlinked directory
// still lands next to its real siblings.
func resolveInclude(dir, inc string) string {
	inc = filepath.FromSlash(inc)
	if !filepath.IsAbs(inc) {
		inc = filepath.Join(dir, inc)
	}
	return canonical(filepath.Clean(inc))
}

func canonical(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p
	}
	return filepath.Join(canonical(parent), filepath.Base(p))
}
