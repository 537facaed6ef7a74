// Package resolve computes, for every build target, the compilation units it
// must be linked with.
//
// Include edges are followed transitively. Headers relay the edges of their own
// includes but are never compiled; an include of any file pulls in the
// compilation unit that shares its stem, so include/foo.h brings in src/foo.c.
package resolve

import (
	"slices"
	"strings"

	"github.com/qobs-build/makemake/internal/scan"
)

// Graph is the view of a scan the resolver needs.
type Graph interface {
	Includes(path string) []string
	UnitFor(path string) (*scan.FileNode, bool)
}

// TargetSources is the link closure of one target: the target itself first,
// then every other reachable unit sorted by path.
type TargetSources struct {
	Target  *scan.FileNode
	Sources []*scan.FileNode
}

type Resolution struct {
	Targets []TargetSources
	// Compile is the union of all target sources, each unit once, sorted by path.
	Compile []*scan.FileNode
}

// Closure returns the compilation units reachable from target, keyed by path.
// The result always contains target. Cycles terminate; dangling includes add nothing.
func Closure(g Graph, target *scan.FileNode) map[string]*scan.FileNode {
	sources := map[string]*scan.FileNode{target.Path: target}
	visited := map[string]bool{target.Path: true}
	queue := []string{target.Path}

	for i := 0; i < len(queue); i++ {
		for _, inc := range g.Includes(queue[i]) {
			if !visited[inc] {
				visited[inc] = true
				queue = append(queue, inc)
			}

			unit, ok := g.UnitFor(inc)
			if !ok {
				continue
			}
			if _, have := sources[unit.Path]; have {
				continue
			}
			sources[unit.Path] = unit
			if !visited[unit.Path] {
				visited[unit.Path] = true
				queue = append(queue, unit.Path)
			}
		}
	}
	return sources
}

// Resolve resolves every target of reg.
func Resolve(reg *scan.Registry) *Resolution {
	return ResolveTargets(reg, reg.Targets)
}

// ResolveTargets resolves targets in the given order and builds the global
// compile set across them.
func ResolveTargets(g Graph, targets []*scan.FileNode) *Resolution {
	res := &Resolution{Targets: make([]TargetSources, 0, len(targets))}
	compile := make(map[string]*scan.FileNode)

	for _, t := range targets {
		closure := Closure(g, t)

		sources := []*scan.FileNode{t}
		for path, n := range closure {
			compile[path] = n
			if path != t.Path {
				sources = append(sources, n)
			}
		}
		slices.SortFunc(sources[1:], byPath)

		res.Targets = append(res.Targets, TargetSources{Target: t, Sources: sources})
	}

	for _, n := range compile {
		res.Compile = append(res.Compile, n)
	}
	slices.SortFunc(res.Compile, byPath)
	return res
}

func byPath(a, b *scan.FileNode) int { return strings.Compare(a.Path, b.Path) }
