package builder

import (
	"os"
	"os/exec"
)

const fallbackCompiler = "gcc"

// TODO: zig cc
var commonCCompilers = []string{"gcc", "clang", "icx", "icc", "tcc"}

// lookPath is swapped out in tests
var lookPath = exec.LookPath

// findCompiler picks the compiler command written into the build script:
// an explicit choice, then $CC, then (if detect is set) the first common
// compiler on PATH, then gcc. Detected compilers are written by name so the
// script stays portable.
func findCompiler(configured string, detect bool) string {
	if configured != "" {
		return configured
	}
	if cc := os.Getenv("CC"); cc != "" {
		return cc
	}

	if detect {
		for _, compiler := range commonCCompilers {
			if _, err := lookPath(compiler); err == nil {
				return compiler
			}
		}
	}

	return fallbackCompiler
}
