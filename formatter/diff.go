package formatter

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContext = 3

// splitLines splits s after every newline. Unlike difflib.SplitLines it does
// not add a newline to the last line.
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// UnifiedDiff returns the unified diff between old and updated, or "" when
// they are equal.
func UnifiedDiff(path string, old, updated []byte) string {
	if string(old) == string(updated) {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        splitLines(string(old)),
		B:        splitLines(string(updated)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  diffContext,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func coloredDiff(path string, old, updated []byte) string {
	text := UnifiedDiff(path, old, updated)
	if text == "" {
		return ""
	}

	var b strings.Builder
	for _, line := range splitLines(text) {
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			b.WriteString(fileStyle.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(lineStyle.Sprint(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(removedStyle.Sprint(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(addedStyle.Sprint(line))
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}
