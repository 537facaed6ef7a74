package builder

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/fatih/color"

	"github.com/qobs-build/makemake/internal/msg"
	"github.com/qobs-build/makemake/internal/scan"
)

// Dump prints the dependency map, the targets and the compile set.
func (p *Plan) Dump(w io.Writer) {
	reg := p.Registry
	iw := &msg.IndentWriter{Indent: "    ", W: w}

	fmt.Fprintln(w, color.HiCyanString("File dependencies"))
	paths := make([]string, 0, len(reg.Deps))
	for path := range reg.Deps {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	for _, path := range paths {
		fmt.Fprintf(iw, "%s:", p.rel(path))
		for _, inc := range reg.Deps[path] {
			fmt.Fprintf(iw, " %s", p.rel(inc))
		}
		fmt.Fprintln(iw)
	}

	fmt.Fprintln(w, color.HiCyanString("Targets"))
	for _, ts := range p.Resolution.Targets {
		fmt.Fprintf(iw, "%s:", ts.Target.Stem)
		for _, src := range ts.Sources {
			fmt.Fprintf(iw, " %s", src.Rel)
		}
		fmt.Fprintln(iw)
	}

	fmt.Fprintln(w, color.HiCyanString("Objects to compile"))
	for _, n := range p.Resolution.Compile {
		fmt.Fprintf(iw, "%s -> %s/%s\n", n.Rel, p.BuildDir, objectName(n))
	}
}

// rel shows path relative to the scan root; dangling includes may point outside it.
func (p *Plan) rel(path string) string {
	if n, ok := p.Registry.Files[path]; ok {
		return n.Rel
	}
	if r, err := filepath.Rel(p.Registry.Root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}

type planJSON struct {
	Root     string              `json:"root"`
	BuildDir string              `json:"build_dir"`
	BinDir   string              `json:"bin_dir"`
	CC       string              `json:"cc"`
	Targets  []targetJSON        `json:"targets"`
	Compile  []string            `json:"compile"`
	Deps     map[string][]string `json:"deps"`
}

type targetJSON struct {
	Name    string   `json:"name"`
	Source  string   `json:"source"`
	Sources []string `json:"sources"`
}

func relPaths(nodes []*scan.FileNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Rel
	}
	return out
}

// WriteJSON writes the plan as indented JSON with root-relative paths.
func (p *Plan) WriteJSON(w io.Writer) error {
	out := planJSON{
		Root:     p.Registry.Root,
		BuildDir: p.BuildDir,
		BinDir:   p.BinDir,
		CC:       p.CC,
		Targets:  []targetJSON{},
		Compile:  relPaths(p.Resolution.Compile),
		Deps:     make(map[string][]string),
	}
	for _, ts := range p.Resolution.Targets {
		out.Targets = append(out.Targets, targetJSON{
			Name:    ts.Target.Stem,
			Source:  ts.Target.Rel,
			Sources: relPaths(ts.Sources),
		})
	}
	for path, incs := range p.Registry.Deps {
		rels := make([]string, len(incs))
		for i, inc := range incs {
			rels[i] = p.rel(inc)
		}
		out.Deps[p.rel(path)] = rels
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
