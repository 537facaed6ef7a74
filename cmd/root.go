// makemake [path], makemake generate [path]
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qobs-build/makemake/internal/builder"
	"github.com/qobs-build/makemake/internal/msg"
)

var (
	flagVerbose   bool
	flagCflags    string
	flagLdflags   string
	flagCC        string
	flagBinDir    string
	flagBuildDir  string
	flagExclude   []string
	flagGitignore bool
	flagHidden    bool
	flagJobs      int
	flagKeepGoing bool
	flagDryRun    bool
	flagDetectCC  bool
	flagGenerator EnumValue = NewEnumValue("make", map[string]string{
		"make":  "Generates a Makefile (default)",
		"ninja": "Generates a build.ninja file",
	})
)

func targetDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// loadBuilder reads Makemake.toml from the target directory and applies any
// flags given explicitly on the command line on top of it.
func loadBuilder(cmd *cobra.Command, args []string) *builder.Builder {
	msg.Verbose = flagVerbose

	b, err := builder.NewBuilderInDirectory(targetDir(args), builder.Options{
		Jobs:      flagJobs,
		KeepGoing: flagKeepGoing,
		DetectCC:  flagDetectCC,
	})
	if err != nil {
		msg.Fatal("%v", err)
	}
	applyFlags(cmd, b.Config())
	return b
}

func applyFlags(cmd *cobra.Command, cfg *builder.Config) {
	f := cmd.Flags()
	if f.Changed("cflags") {
		cfg.Build.Cflags = flagCflags
	}
	if f.Changed("ldflags") {
		cfg.Build.Ldflags = flagLdflags
	}
	if f.Changed("cc") {
		cfg.Build.CC = flagCC
	}
	if f.Changed("bin-dir") {
		cfg.Build.BinDir = flagBinDir
	}
	if f.Changed("build-dir") {
		cfg.Build.BuildDir = flagBuildDir
	}
	if f.Changed("gen") {
		cfg.Build.Generator = flagGenerator.Value()
	}
	if f.Changed("exclude") {
		cfg.Build.Exclude = append(cfg.Build.Exclude, flagExclude...)
	}
	if f.Changed("gitignore") {
		cfg.Build.Gitignore = flagGitignore
	}
	if f.Changed("skip-hidden") {
		cfg.Build.SkipHidden = flagHidden
	}
}

func doGenerate(cmd *cobra.Command, args []string) {
	b := loadBuilder(cmd, args)

	if flagDryRun {
		diff, err := b.DryRun()
		if err != nil {
			msg.Fatal("%v", err)
		}
		if diff == "" {
			msg.Info("build file is up to date")
			return
		}
		fmt.Fprint(msg.Out, diff)
		return
	}

	path, err := b.Generate()
	if err != nil {
		msg.Fatal("%v", err)
	}
	msg.Info("wrote %s", path)
}

var rootCmd = &cobra.Command{
	Use:   "makemake [directory]",
	Short: "Makefile generator for C projects",
	Long: `makemake scans a directory of C sources and headers, finds the files that
define main, follows their quoted #include directives and writes a Makefile that
compiles every needed source once and links each program.`,
	Args: cobra.MaximumNArgs(1),
	Run:  doGenerate,
}

var generateCmd = &cobra.Command{
	Use:     "generate [directory]",
	Aliases: []string{"gen"},
	Short:   "Generate the build file",
	Long:    `Generate the build file. If no directory is given, uses "."`,
	Args:    cobra.MaximumNArgs(1),
	Run:     doGenerate,
}

func init() {
	addScanFlags(rootCmd)
	addGenerateFlags(rootCmd)

	// makemake generate subcommand
	rootCmd.AddCommand(generateCmd)
	addScanFlags(generateCmd)
	addGenerateFlags(generateCmd)
}

// addScanFlags adds the flags that shape scanning and resolution.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print the dependency map, targets and objects")
	cmd.Flags().StringVar(&flagCC, "cc", "", "Compiler command (default: config, then $CC, then gcc)")
	cmd.Flags().BoolVar(&flagDetectCC, "detect-cc", false, "Probe PATH for a compiler when none is configured")
	cmd.Flags().StringVarP(&flagBinDir, "bin-dir", "b", builder.DefaultBinDir, "Directory to put resulting binaries in")
	cmd.Flags().StringVar(&flagBuildDir, "build-dir", "", `Directory for object files (default: an existing "build" directory in any case, else build)`)
	cmd.Flags().StringSliceVarP(&flagExclude, "exclude", "x", nil, "Glob of paths to skip while scanning (repeatable)")
	cmd.Flags().BoolVar(&flagGitignore, "gitignore", false, "Skip paths ignored by .gitignore files")
	cmd.Flags().BoolVar(&flagHidden, "skip-hidden", false, "Skip directories whose name starts with a dot")
	cmd.Flags().IntVarP(&flagJobs, "jobs", "j", 1, "Files to classify concurrently")
	cmd.Flags().BoolVarP(&flagKeepGoing, "keep-going", "k", false, "Skip unreadable files instead of failing")
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagCflags, "cflags", builder.DefaultCflags, "Compiler flags")
	cmd.Flags().StringVar(&flagLdflags, "ldflags", "", "Linker flags")
	cmd.Flags().VarP(&flagGenerator, "gen", "g", "Generator to use, one of "+flagGenerator.HelpString())
	cmd.RegisterFlagCompletionFunc("gen", flagGenerator.CompletionFunc())
	cmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "Print a diff against the existing build file instead of writing it")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
