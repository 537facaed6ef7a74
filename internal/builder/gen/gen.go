// Package gen renders resolved compile and link sets into build scripts.
package gen

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
)

const (
	GeneratorMake  = "make"
	GeneratorNinja = "ninja"
)

// New returns the generator registered under name, or nil.
func New(name string) Generator {
	switch name {
	case GeneratorMake:
		return &MakeGen{}
	case GeneratorNinja:
		return &NinjaGen{}
	default:
		return nil
	}
}

var ErrTargetName = errors.New("invalid target name")

// goals every generated script defines itself
var reservedTargets = []string{"all", "clean"}

// characters make or ninja would read as syntax in a goal name
const unsafeTargetChars = " \t$#:%=\\;\"'*?[]()"

// CheckTargetName rejects names that cannot be written verbatim as a goal, or
// that would replace one of the script's own goals.
func CheckTargetName(name string) error {
	if name == "" || slices.Contains(reservedTargets, name) {
		return fmt.Errorf("%w %q: reserved", ErrTargetName, name)
	}
	if i := strings.IndexAny(name, unsafeTargetChars); i >= 0 {
		return fmt.Errorf("%w %q: contains %q", ErrTargetName, name, name[i])
	}
	return nil
}

// Generator receives compile and link rules in the order they should be
// written. Sources are slash paths relative to the directory the script is
// written to; objects are file names relative to the build directory.
type Generator interface {
	SetCompiler(cc, cflags, ldflags string)
	SetDirs(buildDir, binDir string)
	AddCompile(src, obj string)
	AddTarget(name string, objs []string)
	Generate() string
	BuildFile() string
}

// compileRule maps one source to its object file
type compileRule struct {
	src string
	obj string
}

// linkRule combines object files into one binary
type linkRule struct {
	name string
	objs []string
}

// rules is the bookkeeping shared by all generators.
type rules struct {
	cc, cflags, ldflags string
	buildDir, binDir    string
	compiles            []compileRule
	compiled            map[string]bool
	targets             []linkRule
}

func (r *rules) SetCompiler(cc, cflags, ldflags string) {
	r.cc, r.cflags, r.ldflags = cc, cflags, ldflags
}

func (r *rules) SetDirs(buildDir, binDir string) {
	r.buildDir, r.binDir = buildDir, binDir
}

// AddCompile records a compile rule; an object already scheduled is skipped.
func (r *rules) AddCompile(src, obj string) {
	if r.compiled == nil {
		r.compiled = make(map[string]bool)
	}
	if r.compiled[obj] {
		return
	}
	r.compiled[obj] = true
	r.compiles = append(r.compiles, compileRule{src: src, obj: obj})
}

func (r *rules) AddTarget(name string, objs []string) {
	r.targets = append(r.targets, linkRule{name: name, objs: objs})
}

// binInRoot reports whether binaries land next to the build script, where a
// target's name is also its output path.
func (r *rules) binInRoot() bool {
	return r.binDir == "" || path.Clean(r.binDir) == "."
}

func (r *rules) targetNames() []string {
	names := make([]string, len(r.targets))
	for i, t := range r.targets {
		names[i] = t.name
	}
	return names
}
