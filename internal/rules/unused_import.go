package rules

import (
	"go/ast"
	"go/token"

	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
	tt "github.com/gnolang/tclean/internal/types"
)

// RemoveUnusedImport deletes imports reported as unused. A declaration
// whose imports are all unused is deleted as a whole.
type RemoveUnusedImport struct {
	diagnostic
}

func NewRemoveUnusedImport() *RemoveUnusedImport {
	return &RemoveUnusedImport{diagnostic{
		key:      options.RemoveUnusedImport,
		category: tt.CategoryUnusedImport,
		severity: tt.SeverityWarning,
	}}
}

func (r *RemoveUnusedImport) Requirements(o options.Options) rule.Requirements {
	return r.requirements(o)
}

func (r *RemoveUnusedImport) Fix(p *rule.Pass) (rule.Result, error) {
	if !r.Enabled(p.Options()) {
		return rule.Disabled(), nil
	}

	unused := make(map[int]bool)
	for _, d := range p.Diagnostics {
		if r.CanFix(d) {
			unused[d.Range.Start] = true
		}
	}

	var ops []fixer.Operation
	for _, decl := range p.File.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			continue
		}
		var dead []*ast.ImportSpec
		for _, spec := range gd.Specs {
			is := spec.(*ast.ImportSpec)
			if unused[p.Offset(is.Pos())] {
				dead = append(dead, is)
			}
		}
		if len(dead) == 0 {
			continue
		}
		if len(dead) == len(gd.Specs) {
			start := gd.Pos()
			if gd.Doc != nil {
				start = gd.Doc.Pos()
			}
			rng := wholeLines(p.Text, span(p, start, gd.End()))
			ops = append(ops, fixer.Delete(withTrailingBlankLine(p.Text, rng), "remove import"))
			continue
		}
		for _, is := range dead {
			start, end := is.Pos(), is.End()
			if is.Doc != nil {
				start = is.Doc.Pos()
			}
			if is.Comment != nil {
				end = is.Comment.End()
			}
			ops = append(ops, fixer.Delete(wholeLines(p.Text, span(p, start, end)), "remove import"))
		}
	}

	return rule.Changes("Remove unused imports", ops), nil
}

func (r *RemoveUnusedImport) Preview(o options.Options) string {
	if !r.Enabled(o) {
		return ""
	}
	return "\timport (\n" +
		"\t\t\"fmt\"\n" +
		"-\t\t\"os\"\n" +
		"\t)\n"
}
