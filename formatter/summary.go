package formatter

import (
	"fmt"
	"strings"

	"github.com/gnolang/tclean/internal"
	"github.com/gnolang/tclean/internal/options"
)

// GenerateSummary renders the outcome of a run: warnings, failed units and
// the number of changed files.
func GenerateSummary(report *internal.Report, applied bool) string {
	var b strings.Builder
	if report.Status != nil {
		for _, w := range report.Status.Warnings() {
			b.WriteString(warningStyle.Sprint("warning: "))
			b.WriteString(w)
			b.WriteByte('\n')
		}
	}
	for _, f := range report.Failures {
		b.WriteString(errorStyle.Sprint("error: "))
		b.WriteString(fileStyle.Sprint(f.ID))
		fmt.Fprintf(&b, ": %v\n", f.Err)
	}

	changed := len(report.Changed())
	verb := "would change"
	if applied {
		verb = "changed"
	}
	fmt.Fprintf(&b, "%d %s %s", changed, plural(changed, "file", "files"), verb)
	if n := len(report.Failures); n > 0 {
		fmt.Fprintf(&b, ", %d failed", n)
	}
	b.WriteByte('\n')
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// FormatPreview highlights the "# rule" headers of an engine preview.
func FormatPreview(preview string) string {
	if preview == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range splitLines(preview) {
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		if name, ok := strings.CutPrefix(line, "# "); ok {
			b.WriteString(ruleStyle.Sprint("# " + strings.TrimSuffix(name, "\n")))
			b.WriteByte('\n')
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

// FormatCatalog lists every option key with its value in o, its default and
// its description.
func FormatCatalog(infos []options.KeyInfo, o options.Options) string {
	width := 0
	for _, info := range infos {
		width = max(width, len(info.Key))
	}

	var b strings.Builder
	for _, info := range infos {
		value, ok := o.Value(info.Key)
		if !ok {
			value = info.Default
		}
		style := removedStyle
		if value == options.True {
			style = addedStyle
		}
		b.WriteString(ruleStyle.Sprintf("%-*s", width, info.Key))
		b.WriteString("  ")
		b.WriteString(style.Sprintf("%-5s", value))
		fmt.Fprintf(&b, "  %s (default %s)\n", info.Description, info.Default)
	}
	return b.String()
}
