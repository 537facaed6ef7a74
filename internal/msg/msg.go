// Package msg prints prefixed, colored console messages.
package msg

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	// Out receives info and debug lines, Err receives warnings and errors.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr

	// Verbose enables Debug output.
	Verbose bool
)

func printTo(w io.Writer, prefix, format string, a ...any) {
	fmt.Fprint(w, prefix)
	fmt.Fprint(w, ": ")
	fmt.Fprintf(w, format, a...)
	fmt.Fprint(w, "\n")
}

func Error(format string, a ...any) {
	printTo(Err, color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	printTo(Err, color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	printTo(Err, color.RedString("fatal"), format, a...)
	os.Exit(1)
}

func Info(format string, a ...any) {
	printTo(Out, color.HiGreenString("info"), format, a...)
}

// Debug prints only when Verbose is set.
func Debug(format string, a ...any) {
	if !Verbose {
		return
	}
	printTo(Out, color.HiBlackString("debug"), format, a...)
}

type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	var buf bytes.Buffer
	for _, c := range p {
		if !w.didIndent {
			buf.WriteString(w.Indent)
			w.didIndent = true
		}
		buf.WriteByte(c)
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	if _, err := w.W.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
