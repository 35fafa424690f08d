package rules

import (
	"go/ast"
	"go/token"

	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
)

// SimplifyBoolCompare removes comparisons against boolean literals in
// conditions and logical operands:
//
//	if ok == true   ->  if ok
//	if ok != true   ->  if !ok
//	if f() == false ->  if !f()
type SimplifyBoolCompare struct {
	structural
}

func NewSimplifyBoolCompare() *SimplifyBoolCompare {
	return &SimplifyBoolCompare{structural{key: options.SimplifyBoolCompare}}
}

func (r *SimplifyBoolCompare) Fix(p *rule.Pass) (rule.Result, error) {
	if !r.Enabled(p.Options()) {
		return rule.Disabled(), nil
	}

	var ops []fixer.Operation
	visit := func(e ast.Expr) {
		ops = append(ops, r.simplify(p, e)...)
	}
	ast.Inspect(p.File, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.IfStmt:
			visit(n.Cond)
		case *ast.ForStmt:
			if n.Cond != nil {
				visit(n.Cond)
			}
		case *ast.BinaryExpr:
			if n.Op == token.LAND || n.Op == token.LOR {
				visit(n.X)
				visit(n.Y)
			}
		case *ast.UnaryExpr:
			if n.Op == token.NOT {
				visit(n.X)
			}
		}
		return true
	})

	return rule.Changes("Simplify comparisons with boolean literals", ops), nil
}

func boolLiteral(e ast.Expr) (value, ok bool) {
	id, isID := e.(*ast.Ident)
	if !isID {
		return false, false
	}
	switch id.Name {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func (r *SimplifyBoolCompare) simplify(p *rule.Pass, e ast.Expr) []fixer.Operation {
	be, ok := e.(*ast.BinaryExpr)
	if !ok || (be.Op != token.EQL && be.Op != token.NEQ) {
		return nil
	}

	x, lit := be.X, be.Y
	value, ok := boolLiteral(lit)
	var drop fixer.Operation
	if ok {
		// x == true
		drop = fixer.Delete(span(p, x.End(), lit.End()), "drop bool literal")
	} else {
		x, lit = be.Y, be.X
		value, ok = boolLiteral(lit)
		if !ok {
			return nil
		}
		// true == x
		drop = fixer.Delete(span(p, lit.Pos(), x.Pos()), "drop bool literal")
	}
	if _, other := boolLiteral(x); other {
		return nil
	}

	negate := (be.Op == token.EQL) != value
	if !negate {
		return []fixer.Operation{drop}
	}

	switch x.(type) {
	case *ast.Ident, *ast.SelectorExpr, *ast.CallExpr, *ast.IndexExpr, *ast.ParenExpr:
		return []fixer.Operation{fixer.Insert(p.Offset(x.Pos()), "!", "negate"), drop}
	}
	if lit.Pos() < x.Pos() {
		return []fixer.Operation{
			fixer.Replace(drop.Range, "!(", "negate"),
			fixer.Insert(p.Offset(x.End()), ")", "negate"),
		}
	}
	return []fixer.Operation{
		fixer.Insert(p.Offset(x.Pos()), "!(", "negate"),
		fixer.Replace(drop.Range, ")", "negate"),
	}
}

func (r *SimplifyBoolCompare) Preview(o options.Options) string {
	if !r.Enabled(o) {
		return ""
	}
	return "-\tif done == true && failed == false {\n" +
		"+\tif done && !failed {\n"
}
