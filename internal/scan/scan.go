package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

var ErrMaxDepth = errors.New("maximum directory depth exceeded")

type Options struct {
	UnitExts   []string
	HeaderExts []string
	// Exclude holds doublestar patterns matched against root-relative slash paths.
	Exclude   []string
	Gitignore bool
	// SkipHidden skips directories whose name starts with a dot.
	SkipHidden bool
	MaxDepth   int
	// Jobs bounds concurrent file classification. Output does not depend on it.
	Jobs int
	// KeepGoing skips unreadable or undecodable files instead of failing the scan.
	KeepGoing bool

	// OnFile is called after each file is classified, never concurrently.
	OnFile func(path string)
	OnSkip func(path string, err error)
}

func DefaultOptions() Options {
	return Options{
		UnitExts:   []string{".c"},
		HeaderExts: []string{".h"},
		MaxDepth:   64,
		Jobs:       1,
	}
}

func (o *Options) kindOf(name string) Kind {
	ext := filepath.Ext(name)
	if slices.Contains(o.UnitExts, ext) {
		return KindUnit
	}
	if slices.Contains(o.HeaderExts, ext) {
		return KindHeader
	}
	return KindUnknown
}

func (o *Options) skip(path string, err error) {
	if o.OnSkip != nil {
		o.OnSkip(path, err)
	}
}

type candidate struct {
	path string
	rel  string
	kind Kind
}

type dirEntry struct {
	path  string
	parts []string
	depth int
}

// Scan walks root and classifies every source and header file below it.
func Scan(root string, opts Options) (*Registry, error) {
	root, err := canonicalRoot(root)
	if err != nil {
		return nil, err
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultOptions().MaxDepth
	}

	files, err := walk(root, &opts)
	if err != nil {
		return nil, err
	}

	results, err := classifyAll(files, &opts)
	if err != nil {
		return nil, err
	}

	reg := newRegistry(root)
	for i, f := range files {
		c, ok := results[i]
		if !ok {
			continue // skipped under KeepGoing
		}

		node := &FileNode{
			Path:     f.path,
			Rel:      f.rel,
			Stem:     Stem(f.path),
			Kind:     f.kind,
			IsTarget: c.IsTarget,
		}
		reg.Files[node.Path] = node

		if node.Kind == KindUnit {
			if prev, exists := reg.Units[node.Stem]; exists {
				return nil, &CollisionError{Stem: node.Stem, Paths: [2]string{prev.Rel, node.Rel}}
			}
			reg.Units[node.Stem] = node
		}
		if node.IsTarget {
			reg.Targets = append(reg.Targets, node)
		}
		reg.addDeps(node.Path, c.Includes)
	}

	slices.SortFunc(reg.Targets, func(a, b *FileNode) int { return strings.Compare(a.Path, b.Path) })
	return reg, nil
}

func canonicalRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &Error{Kind: IOError, Path: abs, Err: err}
	}
	stat, err := os.Stat(resolved)
	if err != nil {
		return "", &Error{Kind: IOError, Path: resolved, Err: err}
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("%s is not a directory", resolved)
	}
	return resolved, nil
}

// walk collects eligible files depth first, in sorted order. Symlinked
// directories are not followed; symlinked files are recorded under their
// target, once.
func walk(root string, opts *Options) ([]candidate, error) {
	ig, err := newIgnorer(opts.Exclude, opts.Gitignore)
	if err != nil {
		return nil, err
	}

	var files []candidate
	seen := make(map[string]bool)
	stack := []dirEntry{{path: root}}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := ig.loadDir(dir.path, dir.parts); err != nil {
			if !opts.KeepGoing {
				return nil, &Error{Kind: IOError, Path: filepath.Join(dir.path, gitignoreFile), Err: err}
			}
			opts.skip(dir.path, err)
		}

		entries, err := os.ReadDir(dir.path)
		if err != nil {
			if !opts.KeepGoing {
				return nil, &Error{Kind: IOError, Path: dir.path, Err: err}
			}
			opts.skip(dir.path, err)
			continue
		}

		var subdirs []dirEntry
		for _, e := range entries {
			name := e.Name()
			full := filepath.Join(dir.path, name)
			parts := append(slices.Clone(dir.parts), name)
			rel := path.Join(parts...)

			isDir := e.IsDir()
			symlink := e.Type()&fs.ModeSymlink != 0
			if symlink {
				stat, err := os.Stat(full)
				if err != nil || stat.IsDir() {
					continue
				}
			}

			if isDir {
				if (opts.SkipHidden && strings.HasPrefix(name, ".")) || ig.ignored(rel, true) {
					continue
				}
				if dir.depth+1 > opts.MaxDepth {
					opts.skip(full, ErrMaxDepth)
					continue
				}
				subdirs = append(subdirs, dirEntry{path: full, parts: parts, depth: dir.depth + 1})
				continue
			}

			kind := opts.kindOf(name)
			if kind == KindUnknown || ig.ignored(rel, false) {
				continue
			}
			if symlink {
				full, rel = linkTarget(root, full, rel)
			}
			if seen[full] {
				continue
			}
			seen[full] = true
			files = append(files, candidate{path: full, rel: rel, kind: kind})
		}

		// push in reverse so the walk visits directories in sorted order
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}
	return files, nil
}

// linkTarget resolves a symlinked file. The target's root-relative path is used
// when it lies inside root, the link's own otherwise.
func linkTarget(root, full, rel string) (string, string) {
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		return full, rel
	}
	if r, err := filepath.Rel(root, resolved); err == nil && filepath.IsLocal(r) {
		rel = filepath.ToSlash(r)
	}
	return resolved, rel
}

// classifyAll classifies files on up to opts.Jobs workers. Results are indexed
// like files; skipped files have no entry.
func classifyAll(files []candidate, opts *Options) (map[int]Classification, error) {
	classes := make([]Classification, len(files))
	errs := make([]error, len(files))

	var mu sync.Mutex
	done := func(path string) {
		if opts.OnFile == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		opts.OnFile(path)
	}

	eg, ctx := errgroup.WithContext(context.Background())
	eg.SetLimit(max(opts.Jobs, 1))
	for i, f := range files {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			c, err := ClassifyFile(f.path)
			done(f.path)
			if err != nil {
				errs[i] = err
				if !opts.KeepGoing {
					return err
				}
				return nil
			}
			classes[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, firstError(errs, err)
	}

	results := make(map[int]Classification, len(files))
	for i := range files {
		if errs[i] != nil {
			opts.skip(files[i].path, errs[i])
			continue
		}
		results[i] = classes[i]
	}
	return results, nil
}

// firstError returns the earliest error in walk order, so a concurrent scan
// fails the same way a sequential one does.
func firstError(errs []error, fallback error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return fallback
}
