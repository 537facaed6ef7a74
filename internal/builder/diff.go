package builder

import (
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// lineDiff renders a line-oriented diff from oldText to newText, with "+ " and
// "- " markers colored. It returns "" when the texts are equal.
func lineDiff(oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix, paint := "  ", func(s string) string { return s }
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, paint = "+ ", func(s string) string { return color.GreenString("%s", s) }
		case diffmatchpatch.DiffDelete:
			prefix, paint = "- ", func(s string) string { return color.RedString("%s", s) }
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(paint(prefix + strings.TrimSuffix(line, "\n")))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
