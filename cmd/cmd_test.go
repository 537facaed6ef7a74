package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/qobs-build/makemake/internal/builder"
)

func TestEnumValue(t *testing.T) {
	e := NewEnumValue("make", map[string]string{"make": "", "ninja": "ninja help"})
	if err := e.Set("vs2022"); err == nil {
		t.Error("Set(vs2022) succeeded")
	}
	if err := e.Set("ninja"); err != nil || e.Value() != "ninja" {
		t.Errorf("Set(ninja)=%v, value %q", err, e.Value())
	}
	if got := e.HelpString(); got != "[make, ninja]" {
		t.Errorf("HelpString()=%q", got)
	}
	items, _ := e.CompletionFunc()(nil, nil, "")
	if diff := cmp.Diff([]string{"make", "ninja\tninja help"}, items); diff != "" {
		t.Errorf("completions diff -want +got:\n%s", diff)
	}
}

func TestApplyFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addScanFlags(cmd)
	addGenerateFlags(cmd)
	if err := cmd.ParseFlags([]string{"--ldflags=-lm", "-x", "vendor/**", "--gen", "ninja", "-b", "bin"}); err != nil {
		t.Fatal(err)
	}

	cfg := builder.DefaultConfig()
	cfg.Build.Cflags = "-O0 from config"
	cfg.Build.Exclude = []string{"third_party/**"}
	applyFlags(cmd, cfg)

	want := builder.BuildSection{
		Cflags:    "-O0 from config", // not given on the command line
		Ldflags:   "-lm",
		BinDir:    "bin",
		Generator: "ninja",
		Exclude:   []string{"third_party/**", "vendor/**"},
	}
	if diff := cmp.Diff(want, cfg.Build); diff != "" {
		t.Errorf("config after flags diff -want +got:\n%s", diff)
	}
}

func TestConfigTemplateParses(t *testing.T) {
	cfg, err := builder.ParseConfig(strings.NewReader(configTemplate), builder.NewConfigEnv())
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if cfg.Build.Cflags != builder.DefaultCflags || cfg.Build.Generator != "make" {
		t.Errorf("template build section=%+v", cfg.Build)
	}
}

func TestInitIn(t *testing.T) {
	dir := t.TempDir()
	initIn(dir)
	data, err := os.ReadFile(filepath.Join(dir, builder.ConfigFilename))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != configTemplate {
		t.Error("init wrote unexpected content")
	}

	// existing files are left alone
	if err := os.WriteFile(filepath.Join(dir, builder.ConfigFilename), []byte("[build]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if writefile(configTemplate, dir, builder.ConfigFilename) {
		t.Error("writefile overwrote an existing file")
	}
}

func TestGenerateCommand(t *testing.T) {
	t.Setenv("CC", "")
	dir := t.TempDir()
	files := map[string]string{
		"main.c":   "#include \"util.h\"\nint main(void) { return 0; }\n",
		"util.h":   "int util(void);\n",
		"util.c":   "#include \"util.h\"\nint util(void) { return 0; }\n",
		"notes.md": "",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	rootCmd.SetArgs([]string{"generate", dir, "--cflags=-O1", "--cc", "clang"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Makefile"))
	if err != nil {
		t.Fatal(err)
	}
	mk := string(data)
	for _, want := range []string{
		"CC = clang\n",
		"CFLAGS = -O1\n",
		"TARGETS = main\n",
		"$(BUILD_DIR)/util.o: util.c\n",
	} {
		if !strings.Contains(mk, want) {
			t.Errorf("Makefile missing %q:\n%s", want, mk)
		}
	}
}
