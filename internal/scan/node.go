// Package scan walks a source tree, classifies C sources and headers and records
// their quoted #include edges.
package scan

import (
	"path/filepath"
	"slices"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnit
	KindHeader
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindHeader:
		return "header"
	default:
		return "unknown"
	}
}

// FileNode is a scanned file. It is immutable once the scan returns.
type FileNode struct {
	Path     string // absolute, cleaned
	Rel      string // slash-separated, relative to the scan root
	Stem     string
	Kind     Kind
	IsTarget bool
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Registry is the result of a scan.
type Registry struct {
	Root    string
	Files   map[string]*FileNode // path -> node
	Units   map[string]*FileNode // stem -> compilation unit
	Targets []*FileNode          // sorted by path
	Deps    map[string][]string  // path -> sorted include paths
}

func newRegistry(root string) *Registry {
	return &Registry{
		Root:  root,
		Files: make(map[string]*FileNode),
		Units: make(map[string]*FileNode),
		Deps:  make(map[string][]string),
	}
}

// Includes returns the resolved include paths of the file at path.
func (r *Registry) Includes(path string) []string {
	return r.Deps[path]
}

// UnitFor returns the compilation unit an include of path pulls in, if any.
// A header pairs with the unit sharing its stem, wherever that unit lives.
func (r *Registry) UnitFor(path string) (*FileNode, bool) {
	u, ok := r.Units[Stem(path)]
	return u, ok
}

// SortedUnits returns all compilation units sorted by path.
func (r *Registry) SortedUnits() []*FileNode {
	units := make([]*FileNode, 0, len(r.Units))
	for _, u := range r.Units {
		units = append(units, u)
	}
	slices.SortFunc(units, func(a, b *FileNode) int { return strings.Compare(a.Path, b.Path) })
	return units
}

func (r *Registry) addDeps(path string, includes []string) {
	if len(includes) == 0 {
		return
	}
	merged := append(r.Deps[path], includes...)
	slices.Sort(merged)
	r.Deps[path] = slices.Compact(merged)
}
