package scan

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v6/plumbing/format/gitignore"
)

const gitignoreFile = ".gitignore"

// ignorer decides which paths the walk skips.
type ignorer struct {
	exclude   []string
	gitignore bool
	patterns  []gitignore.Pattern
	matcher   gitignore.Matcher
}

func newIgnorer(exclude []string, useGitignore bool) (*ignorer, error) {
	for _, pat := range exclude {
		if !doublestar.ValidatePattern(pat) {
			return nil, errors.New("invalid exclude pattern: " + pat)
		}
	}
	return &ignorer{exclude: exclude, gitignore: useGitignore}, nil
}

// loadDir picks up the .gitignore of dir, whose root-relative components are parts.
func (ig *ignorer) loadDir(dir string, parts []string) error {
	if !ig.gitignore {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(dir, gitignoreFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	domain := append([]string(nil), parts...)
	added := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		ig.patterns = append(ig.patterns, gitignore.ParsePattern(line, domain))
		added = true
	}
	if added {
		ig.matcher = gitignore.NewMatcher(ig.patterns)
	}
	return sc.Err()
}

// ignored reports whether the entry at the slash-separated, root-relative rel is skipped.
func (ig *ignorer) ignored(rel string, isDir bool) bool {
	for _, pat := range ig.exclude {
		if doublestar.MatchUnvalidated(pat, rel) {
			return true
		}
	}
	if ig.matcher != nil && ig.matcher.Match(strings.Split(rel, "/"), isDir) {
		return true
	}
	return false
}
