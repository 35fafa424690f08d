package rules

import (
	"go/ast"
	"go/token"

	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
)

// UselessBreak removes unlabeled break statements that end a switch or
// select clause.
type UselessBreak struct {
	structural
}

func NewUselessBreak() *UselessBreak {
	return &UselessBreak{structural{key: options.UselessBreak}}
}

func (r *UselessBreak) Fix(p *rule.Pass) (rule.Result, error) {
	if !r.Enabled(p.Options()) {
		return rule.Disabled(), nil
	}

	var ops []fixer.Operation
	check := func(stmts []ast.Stmt) {
		if len(stmts) == 0 {
			return
		}
		last := stmts[len(stmts)-1]
		if br, ok := last.(*ast.BranchStmt); ok && br.Tok == token.BREAK && br.Label == nil {
			ops = append(ops, fixer.Delete(wholeLines(p.Text, p.Range(br)), "remove break"))
		}
	}

	ast.Inspect(p.File, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.SwitchStmt:
			for _, stmt := range v.Body.List {
				if cc, ok := stmt.(*ast.CaseClause); ok {
					check(cc.Body)
				}
			}
		case *ast.TypeSwitchStmt:
			for _, stmt := range v.Body.List {
				if cc, ok := stmt.(*ast.CaseClause); ok {
					check(cc.Body)
				}
			}
		case *ast.SelectStmt:
			for _, stmt := range v.Body.List {
				if cc, ok := stmt.(*ast.CommClause); ok {
					check(cc.Body)
				}
			}
		}
		return true
	})

	return rule.Changes("Remove useless break statements", ops), nil
}

func (r *UselessBreak) Preview(o options.Options) string {
	if !r.Enabled(o) {
		return ""
	}
	return "\tcase 1:\n" +
		"\t\thandle()\n" +
		"-\t\tbreak\n"
}
