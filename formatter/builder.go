package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	"github.com/gnolang/tclean/internal"
)

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	warningStyle    = color.New(color.FgHiYellow, color.Bold)
	ruleStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	removedStyle    = color.New(color.FgRed)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
	addedStyle      = color.New(color.FgGreen)
)

const changeTemplate = `{{header .Path}}
{{steps .Steps}}{{diff .Path .Old .New}}{{note .Iterations .Capped}}
`

// ChangeData is what changeTemplate renders.
type ChangeData struct {
	Path       string
	Old        []byte
	New        []byte
	Steps      []string
	Iterations int
	Capped     bool
}

var changeTmpl = template.Must(template.New("change").Funcs(template.FuncMap{
	"header": header,
	"steps":  steps,
	"diff":   coloredDiff,
	"note":   note,
}).Parse(changeTemplate))

// GenerateFormattedChange renders c as a header, the applied steps and a
// unified diff of the unit.
func GenerateFormattedChange(c *internal.Change) string {
	data := ChangeData{
		Path:       c.Unit.Path,
		Old:        c.OldText(),
		New:        c.NewText,
		Steps:      c.Steps,
		Iterations: c.Iterations,
		Capped:     c.Capped,
	}

	var buf bytes.Buffer
	if err := changeTmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting change: %v", err)
	}
	return buf.String()
}

// GenerateFormattedChanges renders every change in order.
func GenerateFormattedChanges(changes []*internal.Change) string {
	var builder strings.Builder
	for _, c := range changes {
		builder.WriteString(GenerateFormattedChange(c))
	}
	return builder.String()
}

// utils functions used in the text templates

func header(path string) string {
	return suggestionStyle.Sprint("fix: ") + ruleStyle.Sprint("clean up") + "\n" +
		lineStyle.Sprint(" --> ") + fileStyle.Sprint(path)
}

func steps(list []string) string {
	var b strings.Builder
	for _, s := range list {
		b.WriteString(lineStyle.Sprint("  = "))
		b.WriteString(s)
		b.WriteByte('\n')
	}
	return b.String()
}

func note(iterations int, capped bool) string {
	if !capped {
		return ""
	}
	return warningStyle.Sprint("note: ") +
		fmt.Sprintf("stopped after %d iterations, the file may not be fully clean\n", iterations)
}
