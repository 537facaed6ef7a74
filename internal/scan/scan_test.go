package scan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// writeTree creates files (slash paths relative to the returned root) under a temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// hpcTree mirrors a small assignment layout: sources in src/, headers in include/.
var hpcTree = map[string]string{
	"src/main.c": `#include <stdio.h>
#include "../include/computation.h"
#include "../include/parsing.h"
#include "../include/point.h"

int main(int argc, char *argv[]) {
	return 0;
}
`,
	"src/parsing.c": `#include "../include/parsing.h"
#include <stdio.h>
`,
	"src/computation.c": `#include "../include/computation.h"
#include <math.h>
`,
	"include/parsing.h":     "#include \"point.h\"\n#include <stdio.h>\n",
	"include/computation.h": "#include \"point.h\"\n",
	"include/point.h":       "#include <stdint.h>\n",
	"data/write_data/write_data.c": `#include <stdio.h>

int main(int argc, char *argv[]) {
	return 0;
}
`,
	"README.md": "not a source",
}

func rels(nodes []*FileNode) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Rel)
	}
	return out
}

func relDeps(reg *Registry) map[string][]string {
	out := make(map[string][]string)
	for p, incs := range reg.Deps {
		from, _ := filepath.Rel(reg.Root, p)
		for _, inc := range incs {
			to, _ := filepath.Rel(reg.Root, inc)
			out[filepath.ToSlash(from)] = append(out[filepath.ToSlash(from)], filepath.ToSlash(to))
		}
	}
	return out
}

func TestScan(t *testing.T) {
	root := writeTree(t, hpcTree)
	reg, err := Scan(root, DefaultOptions())
	if err != nil {
		t.Fatalf("Scan(%q)=%v", root, err)
	}

	if diff := cmp.Diff([]string{"data/write_data/write_data.c", "src/main.c"}, rels(reg.Targets)); diff != "" {
		t.Errorf("targets diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"data/write_data/write_data.c", "src/computation.c", "src/main.c", "src/parsing.c"}, rels(reg.SortedUnits())); diff != "" {
		t.Errorf("units diff -want +got:\n%s", diff)
	}
	if got := len(reg.Files); got != 7 {
		t.Errorf("len(Files)=%d, want 7", got)
	}

	wantDeps := map[string][]string{
		"src/main.c":            {"include/computation.h", "include/parsing.h", "include/point.h"},
		"src/parsing.c":         {"include/parsing.h"},
		"src/computation.c":     {"include/computation.h"},
		"include/parsing.h":     {"include/point.h"},
		"include/computation.h": {"include/point.h"},
	}
	if diff := cmp.Diff(wantDeps, relDeps(reg)); diff != "" {
		t.Errorf("deps diff -want +got:\n%s", diff)
	}

	h := reg.Files[filepath.Join(reg.Root, "include", "point.h")]
	if h == nil || h.Kind != KindHeader || h.Stem != "point" || h.IsTarget {
		t.Errorf("include/point.h node=%+v", h)
	}
}

func TestScanJobsDeterministic(t *testing.T) {
	root := writeTree(t, hpcTree)
	seq, err := Scan(root, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.Jobs = 8
	par, err := Scan(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(seq, par); diff != "" {
		t.Errorf("parallel scan differs -seq +par:\n%s", diff)
	}
}

func TestScanExclude(t *testing.T) {
	root := writeTree(t, hpcTree)
	opts := DefaultOptions()
	opts.Exclude = []string{"data/**"}
	reg, err := Scan(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"src/main.c"}, rels(reg.Targets)); diff != "" {
		t.Errorf("targets diff -want +got:\n%s", diff)
	}
}

func TestScanGitignore(t *testing.T) {
	files := map[string]string{
		".gitignore":       "# generated\nvendor/\n",
		"main.c":           "int main(void) { return 0; }\n",
		"vendor/lib.c":     "int main(void) { return 1; }\n",
		"sub/.gitignore":   "skip.c\n",
		"sub/skip.c":       "int main(void) { return 2; }\n",
		"sub/keep.c":       "int main(void) { return 3; }\n",
		".hidden/hidden.c": "int main(void) { return 4; }\n",
	}
	root := writeTree(t, files)

	opts := DefaultOptions()
	opts.Gitignore = true
	opts.SkipHidden = true
	reg, err := Scan(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"main.c", "sub/keep.c"}, rels(reg.Targets)); diff != "" {
		t.Errorf("targets diff -want +got:\n%s", diff)
	}

	opts.Gitignore = false
	opts.SkipHidden = false
	reg, err = Scan(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{".hidden/hidden.c", "main.c", "sub/keep.c", "sub/skip.c", "vendor/lib.c"}
	if diff := cmp.Diff(want, rels(reg.Targets)); diff != "" {
		t.Errorf("targets without gitignore diff -want +got:\n%s", diff)
	}
}

func TestScanSkipHidden(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c":           "int main(void) { return 0; }\n",
		".hidden/hidden.c": "int main(void) { return 1; }\n",
		"sub/.cache/tmp.c": "int main(void) { return 2; }\n",
		"sub/.dotfile.c":   "int main(void) { return 3; }\n",
	})

	opts := DefaultOptions()
	reg, err := Scan(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{".hidden/hidden.c", "main.c", "sub/.cache/tmp.c", "sub/.dotfile.c"}
	if diff := cmp.Diff(want, rels(reg.Targets)); diff != "" {
		t.Errorf("default scan targets diff -want +got:\n%s", diff)
	}

	opts.SkipHidden = true
	reg, err = Scan(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	// only directories are skipped
	if diff := cmp.Diff([]string{"main.c", "sub/.dotfile.c"}, rels(reg.Targets)); diff != "" {
		t.Errorf("SkipHidden targets diff -want +got:\n%s", diff)
	}
}

func symlink(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
}

func TestScanSymlinkedIncludeDir(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c":         "#include \"inc/util.h\"\n#include \"inc/gone.h\"\nint main(void) { return 0; }\n",
		"include/util.h": "#include \"helper.h\"\n",
		"src/helper.c":   "int helper(void) { return 1; }\n",
	})
	symlink(t, "include", filepath.Join(root, "inc"))

	reg, err := Scan(root, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	// the symlinked directory is not walked, so its headers exist once, under include/
	if _, ok := reg.Files[filepath.Join(root, "inc", "util.h")]; ok {
		t.Error("inc/util.h registered through the symlink")
	}

	want := map[string][]string{
		"main.c":         {"include/gone.h", "include/util.h"},
		"include/util.h": {"include/helper.h"},
	}
	if diff := cmp.Diff(want, relDeps(reg)); diff != "" {
		t.Errorf("deps diff -want +got:\n%s", diff)
	}
	if u, _ := reg.UnitFor(filepath.Join(root, "include", "helper.h")); u == nil || u.Rel != "src/helper.c" {
		t.Errorf("UnitFor(include/helper.h)=%v, want src/helper.c", u)
	}
}

func TestScanSymlinkedFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/tool.c": "int main(void) { return 0; }\n",
	})
	// sorts before src/, so the link is seen first
	symlink(t, filepath.Join("src", "tool.c"), filepath.Join(root, "alias.c"))

	reg, err := Scan(root, DefaultOptions())
	if err != nil {
		t.Fatalf("Scan=%v", err)
	}
	if diff := cmp.Diff([]string{"src/tool.c"}, rels(reg.Targets)); diff != "" {
		t.Errorf("targets diff -want +got:\n%s", diff)
	}
	if len(reg.Files) != 1 {
		t.Errorf("%d files registered, want 1", len(reg.Files))
	}
}

func TestScanCollision(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/util.c": "",
		"b/util.c": "",
	})
	_, err := Scan(root, DefaultOptions())
	var cerr *CollisionError
	if !errors.As(err, &cerr) {
		t.Fatalf("Scan error=%v, want CollisionError", err)
	}
	if cerr.Stem != "util" || cerr.Paths != [2]string{"a/util.c", "b/util.c"} {
		t.Errorf("collision=%+v", cerr)
	}
}

func TestScanDecodeError(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c": "int main(void) { return 0; }\n",
		"bad.h":  "\xff\xfe\x00garbage",
	})

	_, err := Scan(root, DefaultOptions())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Scan error=%v, want ErrDecode", err)
	}
	var serr *Error
	if !errors.As(err, &serr) || serr.Kind != DecodeError {
		t.Errorf("Scan error=%#v, want DecodeError kind", err)
	}

	opts := DefaultOptions()
	opts.KeepGoing = true
	var skipped []string
	opts.OnSkip = func(path string, err error) { skipped = append(skipped, filepath.Base(path)) }
	reg, err := Scan(root, opts)
	if err != nil {
		t.Fatalf("Scan with KeepGoing=%v", err)
	}
	if diff := cmp.Diff([]string{"bad.h"}, skipped); diff != "" {
		t.Errorf("skipped diff -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"main.c"}, rels(reg.Targets)); diff != "" {
		t.Errorf("targets diff -want +got:\n%s", diff)
	}
}

func TestScanMaxDepth(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.c":       "int main(void) { return 0; }\n",
		"a/b/c/deep.c": "int main(void) { return 0; }\n",
		"a/shallow.h":  "",
	})
	opts := DefaultOptions()
	opts.MaxDepth = 2
	var skipped []error
	opts.OnSkip = func(path string, err error) { skipped = append(skipped, err) }
	reg, err := Scan(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"main.c"}, rels(reg.Targets)); diff != "" {
		t.Errorf("targets diff -want +got:\n%s", diff)
	}
	if len(skipped) != 1 || !errors.Is(skipped[0], ErrMaxDepth) {
		t.Errorf("skipped=%v, want one ErrMaxDepth", skipped)
	}
	if _, ok := reg.Files[filepath.Join(reg.Root, "a", "shallow.h")]; !ok {
		t.Error("a/shallow.h missing from registry")
	}
}

func TestScanNotADirectory(t *testing.T) {
	root := writeTree(t, map[string]string{"main.c": ""})
	if _, err := Scan(filepath.Join(root, "main.c"), DefaultOptions()); err == nil {
		t.Error("Scan of a file succeeded, want error")
	}
	if _, err := Scan(filepath.Join(root, "missing"), DefaultOptions()); err == nil {
		t.Error("Scan of a missing dir succeeded, want error")
	}
}

func TestScanOnFile(t *testing.T) {
	root := writeTree(t, hpcTree)
	opts := DefaultOptions()
	opts.Jobs = 4
	seen := make(map[string]int)
	opts.OnFile = func(path string) { seen[filepath.Base(path)]++ }
	if _, err := Scan(root, opts); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 7 {
		t.Errorf("OnFile saw %d files, want 7: %v", len(seen), seen)
	}
	for name, n := range seen {
		if n != 1 {
			t.Errorf("OnFile called %d times for %s", n, name)
		}
	}
}
