package gen

import (
	"path"
	"strings"
)

// NinjaGen writes a build.ninja with the same compile and link sets as MakeGen.
type NinjaGen struct {
	rules
}

func (g *NinjaGen) BuildFile() string { return "build.ninja" }

var ninjaPathEscaper = strings.NewReplacer("$", "$$", ":", "$:", " ", "$ ")

func quote(s string) string { return ninjaPathEscaper.Replace(s) }

// binPath is where target name is linked. Ninja canonicalizes "./x" to "x",
// so a phony alias is only emitted when the binary lives elsewhere.
func (g *NinjaGen) binPath(name string) string {
	if g.binInRoot() {
		return name
	}
	return path.Join(g.binDir, name)
}

func (g *NinjaGen) Generate() string {
	var sb strings.Builder

	writeln(&sb, "# ", header)
	writeln(&sb)
	writeln(&sb, "ninja_required_version = 1.3")
	writeln(&sb, "builddir = ", quote(g.buildDir))
	writeln(&sb, "cc = ", g.cc)
	writeln(&sb, "cflags = ", g.cflags)
	writeln(&sb, "ldflags = ", g.ldflags)
	writeln(&sb)

	// gen rules
	write(&sb,
		`rule cc
  command = $cc $cflags -MMD -MF $out.d -c $in -o $out
  depfile = $out.d
  deps = gcc
  description = CC $out
`)
	write(&sb,
		`rule link
  command = $cc $in -o $out $ldflags
  description = LINK $out
`)
	write(&sb,
		`rule clean
  command = ninja -t clean
  description = CLEAN
`)
	writeln(&sb)

	// build object files
	for _, c := range g.compiles {
		writeln(&sb, "build $builddir/", quote(c.obj), ": cc ", quote(c.src))
	}
	writeln(&sb)

	// link
	var defaults []string
	for _, t := range g.targets {
		out := g.binPath(t.name)
		write(&sb, "build ", quote(out), ": link")
		for _, obj := range t.objs {
			write(&sb, " $builddir/", quote(obj))
		}
		writeln(&sb)
		if out != t.name {
			writeln(&sb, "build ", quote(t.name), ": phony ", quote(out))
		}
		defaults = append(defaults, quote(t.name))
	}
	writeln(&sb)

	writeln(&sb, "build clean: clean")
	if len(defaults) > 0 {
		writeln(&sb, "default ", strings.Join(defaults, " "))
	}

	return sb.String()
}
