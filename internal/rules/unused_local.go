package rules

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
	tt "github.com/gnolang/tclean/internal/types"
)

// RemoveUnusedLocal deletes declarations of unused local variables whose
// initializer has no side effects. Removing one may leave another unused,
// so the rule asks for a second iteration.
type RemoveUnusedLocal struct {
	diagnostic
}

func NewRemoveUnusedLocal() *RemoveUnusedLocal {
	return &RemoveUnusedLocal{diagnostic{
		key:      options.RemoveUnusedLocal,
		category: tt.CategoryUnusedVariable,
		severity: tt.SeverityWarning,
	}}
}

func (r *RemoveUnusedLocal) Requirements(o options.Options) rule.Requirements {
	req := r.requirements(o)
	if req.NeedsTree {
		req.NeedsSecondIteration = true
	}
	return req
}

func (r *RemoveUnusedLocal) Fix(p *rule.Pass) (rule.Result, error) {
	if !r.Enabled(p.Options()) {
		return rule.Disabled(), nil
	}

	tf := p.Fset.File(p.File.Pos())
	var (
		ops    []fixer.Operation
		claims rule.Claims
	)
	for _, d := range p.Diagnostics {
		if !r.CanFix(d) {
			continue
		}
		path, _ := astutil.PathEnclosingInterval(p.File, tf.Pos(d.Range.Start), tf.Pos(d.Range.End))
		stmt := removableDecl(path)
		if stmt == nil {
			continue
		}
		stmtRange := p.Range(stmt)
		rng := wholeLines(p.Text, stmtRange)
		// a trailing directive reported as unused is removed first
		if rng.End > stmtRange.End && reportedIn(p, tt.CategoryUnusedSuppression, stmtRange.End, rng.End) {
			continue
		}
		if !claims.Claim(rng) {
			continue
		}
		ops = append(ops, fixer.Delete(rng, "remove variable"))
	}

	return rule.Changes("Remove unused local variables", ops), nil
}

// reportedIn reports whether a diagnostic of category c lies within
// [start, end).
func reportedIn(p *rule.Pass, c tt.Category, start, end int) bool {
	for _, d := range p.DiagnosticsOf(c) {
		if (tt.Range{Start: start, End: end}).Contains(d.Range) {
			return true
		}
	}
	return false
}

// removableDecl returns the statement declaring the identifier at path[0]
// when it declares nothing else, sits directly in a statement list, has a
// side-effect free initializer and is never assigned afterwards.
func removableDecl(path []ast.Node) ast.Stmt {
	if len(path) < 3 {
		return nil
	}
	id, ok := path[0].(*ast.Ident)
	if !ok {
		return nil
	}

	var stmt ast.Stmt
	switch n := path[1].(type) {
	case *ast.AssignStmt:
		if n.Tok != token.DEFINE || len(n.Lhs) != 1 || len(n.Rhs) != 1 || !pure(n.Rhs[0]) {
			return nil
		}
		stmt = n
		path = path[2:]
	case *ast.ValueSpec:
		if len(n.Names) != 1 || len(path) < 4 {
			return nil
		}
		for _, v := range n.Values {
			if !pure(v) {
				return nil
			}
		}
		gd, ok := path[2].(*ast.GenDecl)
		if !ok || len(gd.Specs) != 1 {
			return nil
		}
		ds, ok := path[3].(*ast.DeclStmt)
		if !ok {
			return nil
		}
		stmt = ds
		path = path[4:]
	default:
		return nil
	}

	if len(path) == 0 {
		return nil
	}
	switch path[0].(type) {
	case *ast.BlockStmt, *ast.CaseClause, *ast.CommClause:
	default:
		return nil
	}
	if assignedElsewhere(path[0], stmt, id.Name) {
		return nil
	}
	return stmt
}

// assignedElsewhere reports whether scope assigns name outside decl.
// Deleting decl would leave such an assignment undefined.
func assignedElsewhere(scope ast.Node, decl ast.Stmt, name string) bool {
	found := false
	ast.Inspect(scope, func(n ast.Node) bool {
		if found || n == decl {
			return false
		}
		switch n.(type) {
		case *ast.AssignStmt, *ast.IncDecStmt, *ast.RangeStmt:
			found = assigns(n, name)
		}
		return !found
	})
	return found
}

func (r *RemoveUnusedLocal) Preview(o options.Options) string {
	if !r.Enabled(o) {
		return ""
	}
	return "-\tlimit := 10\n" +
		"\treturn compute()\n"
}
