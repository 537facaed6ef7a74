// makemake init [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qobs-build/makemake/internal/builder"
	"github.com/qobs-build/makemake/internal/msg"
)

const configTemplate = `# makemake configuration. Every key is optional; flags given on the
# command line take precedence.

[build]
cc = ""            # empty: $CC, then gcc
cflags = "-Wall -Wextra -Iinclude -O2"
ldflags = ""
bin_dir = "."
# build_dir = "build"
generator = "make" # or "ninja"
exclude = []       # doublestar globs, e.g. ["third_party/**"]
gitignore = false
skip_hidden = false
unit_exts = [".c"]
header_exts = [".h"]

# Sub-tables keyed by an expression are merged when it is true. Available:
# target_os, target_arch and environ. Strings may embed {{ expressions }}.
[build.'target_os == "linux"']
ldflags = "-lm"
`

// writefile creates path with content unless it already exists; it reports whether it wrote.
func writefile(content string, elem ...string) bool {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); err == nil {
		msg.Warn("%s already exists, leaving it alone", filepath.ToSlash(path))
		return false
	} else if !os.IsNotExist(err) {
		msg.Fatal("stat %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		msg.Fatal("create file %s: %v", path, err)
	}
	fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	return true
}

// initIn writes a starter config into dir.
func initIn(dir string) {
	writefile(configTemplate, dir, builder.ConfigFilename)
	fmt.Printf("You can now run %s to write the Makefile.\n", color.HiCyanString("makemake "+dir))
}

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Write a starter " + builder.ConfigFilename,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(targetDir(args))
	},
}

func init() {
	// makemake init subcommand
	rootCmd.AddCommand(initCmd)
}
