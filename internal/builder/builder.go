package builder

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/qobs-build/makemake/internal/builder/gen"
	"github.com/qobs-build/makemake/internal/msg"
	"github.com/qobs-build/makemake/internal/resolve"
	"github.com/qobs-build/makemake/internal/scan"
)

var (
	errUnknownGenerator = errors.New("unknown generator")
)

type Options struct {
	Jobs      int
	KeepGoing bool
	// DetectCC probes PATH for a compiler when none is configured.
	DetectCC bool
}

type Builder struct {
	cfg     *Config
	basedir string
	opts    Options
}

// NewBuilderInDirectory loads Makemake.toml from path, if present.
func NewBuilderInDirectory(path string, opts Options) (*Builder, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseConfigFromFile(filepath.Join(path, ConfigFilename), NewConfigEnv())
	if err != nil {
		return nil, err
	}
	return NewBuilder(path, cfg, opts)
}

func NewBuilder(path string, cfg *Config, opts Options) (*Builder, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, basedir: path, opts: opts}, nil
}

// Config is the effective configuration; callers may override fields before planning.
func (b *Builder) Config() *Config { return b.cfg }

// Plan is a resolved tree ready to be rendered.
type Plan struct {
	Registry   *scan.Registry
	Resolution *resolve.Resolution
	BuildDir   string // slash path relative to the root
	BinDir     string
	CC         string
}

// findBuildDir reuses an existing directory named "build" in any letter case.
func findBuildDir(root, configured string) (string, error) {
	if configured != "" {
		return filepath.ToSlash(configured), nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() && strings.EqualFold(e.Name(), DefaultBuildDir) {
			return e.Name(), nil
		}
	}
	return DefaultBuildDir, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "{", `\{`)

func (b *Builder) scanOptions(buildDir string) scan.Options {
	build := b.cfg.Build
	opts := scan.DefaultOptions()
	if len(build.UnitExts) > 0 {
		opts.UnitExts = build.UnitExts
	}
	if len(build.HeaderExts) > 0 {
		opts.HeaderExts = build.HeaderExts
	}
	opts.Exclude = append(opts.Exclude, build.Exclude...)
	opts.Exclude = append(opts.Exclude, globEscaper.Replace(path.Clean(buildDir)))
	opts.Gitignore = build.Gitignore
	opts.SkipHidden = build.SkipHidden
	opts.Jobs = max(b.opts.Jobs, 1)
	opts.KeepGoing = b.opts.KeepGoing
	opts.OnSkip = func(p string, err error) {
		msg.Warn("skipping %s: %v", p, err)
	}
	return opts
}

// Plan scans the tree and resolves every target.
func (b *Builder) Plan() (*Plan, error) {
	buildDir, err := findBuildDir(b.basedir, b.cfg.Build.BuildDir)
	if err != nil {
		return nil, err
	}

	opts := b.scanOptions(buildDir)
	var pb *msg.ProgressBar
	if msg.Verbose {
		pb = msg.NewProgressBar(0, "scanning", 0, msg.Out)
		opts.OnFile = func(string) { pb.Step() }
	}

	reg, err := scan.Scan(b.basedir, opts)
	if pb != nil {
		pb.Finish()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", b.basedir, err)
	}

	return &Plan{
		Registry:   reg,
		Resolution: resolve.Resolve(reg),
		BuildDir:   buildDir,
		BinDir:     b.cfg.Build.BinDir,
		CC:         findCompiler(b.cfg.Build.CC, b.opts.DetectCC),
	}, nil
}

func objectName(n *scan.FileNode) string { return n.Stem + ".o" }

// Render feeds the plan into the configured generator.
func (b *Builder) Render(plan *Plan) (gen.Generator, string, error) {
	g := gen.New(b.cfg.Build.Generator)
	if g == nil {
		return nil, "", fmt.Errorf("%w %q", errUnknownGenerator, b.cfg.Build.Generator)
	}
	g.SetCompiler(plan.CC, b.cfg.Build.Cflags, b.cfg.Build.Ldflags)
	g.SetDirs(plan.BuildDir, plan.BinDir)

	objects := make(map[string]*scan.FileNode)
	for _, n := range plan.Resolution.Compile {
		obj := objectName(n)
		if prev, ok := objects[obj]; ok {
			return nil, "", fmt.Errorf("%s and %s would both compile to %s", prev.Rel, n.Rel, obj)
		}
		objects[obj] = n
		g.AddCompile(n.Rel, obj)
	}

	names := make(map[string]*scan.FileNode)
	for _, ts := range plan.Resolution.Targets {
		name := ts.Target.Stem
		if prev, ok := names[name]; ok {
			return nil, "", fmt.Errorf("targets %s and %s would both link to %s", prev.Rel, ts.Target.Rel, name)
		}
		names[name] = ts.Target

		if err := gen.CheckTargetName(name); err != nil {
			return nil, "", fmt.Errorf("target %s: %w", ts.Target.Rel, err)
		}
		// a binary may not overwrite the build directory or the script itself
		if out := path.Join(filepath.ToSlash(plan.BinDir), name); out == path.Clean(plan.BuildDir) || out == g.BuildFile() {
			return nil, "", fmt.Errorf("target %s: %w %q: would overwrite %s", ts.Target.Rel, gen.ErrTargetName, name, out)
		}

		objs := make([]string, len(ts.Sources))
		for i, src := range ts.Sources {
			objs[i] = objectName(src)
		}
		g.AddTarget(name, objs)
	}

	return g, g.Generate(), nil
}

// Generate plans, renders and writes the build script, returning its path.
// Nothing is written unless scanning and resolution succeed.
func (b *Builder) Generate() (string, error) {
	plan, err := b.Plan()
	if err != nil {
		return "", err
	}
	if msg.Verbose {
		plan.Dump(msg.Out)
	}

	g, out, err := b.Render(plan)
	if err != nil {
		return "", err
	}

	if err := b.ensureDirs(plan); err != nil {
		return "", err
	}

	buildFile := filepath.Join(b.basedir, g.BuildFile())
	if err := os.WriteFile(buildFile, []byte(out), 0o644); err != nil {
		return "", err
	}
	return buildFile, nil
}

// DryRun renders the build script and diffs it against the file on disk
// without writing anything.
func (b *Builder) DryRun() (string, error) {
	plan, err := b.Plan()
	if err != nil {
		return "", err
	}
	g, out, err := b.Render(plan)
	if err != nil {
		return "", err
	}

	old, err := os.ReadFile(filepath.Join(b.basedir, g.BuildFile()))
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	return lineDiff(string(old), out), nil
}

// ensureDirs creates the build and binary directories if absent.
func (b *Builder) ensureDirs(plan *Plan) error {
	for _, dir := range []string{plan.BuildDir, plan.BinDir} {
		if dir == "" {
			continue
		}
		p := filepath.FromSlash(dir)
		if !filepath.IsAbs(p) {
			p = filepath.Join(b.basedir, p)
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}
