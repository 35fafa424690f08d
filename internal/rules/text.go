package rules

import (
	"bytes"
	"go/ast"
	"go/token"
	"go/types"

	"github.com/gnolang/tclean/internal/rule"
	tt "github.com/gnolang/tclean/internal/types"
)

// span returns the byte range [from, to) of p's text.
func span(p *rule.Pass, from, to token.Pos) tt.Range {
	return tt.NodeRange(p.Fset, from, to)
}

// lineStart returns the offset of the first byte of the line holding off.
func lineStart(text []byte, off int) int {
	return bytes.LastIndexByte(text[:off], '\n') + 1
}

// lineEnd returns the offset just past the newline ending the line
// holding off, or len(text).
func lineEnd(text []byte, off int) int {
	i := bytes.IndexByte(text[off:], '\n')
	if i < 0 {
		return len(text)
	}
	return off + i + 1
}

func blank(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0
}

// wholeLines widens r to the complete lines it spans when only
// indentation precedes it and at most a line comment follows it.
func wholeLines(text []byte, r tt.Range) tt.Range {
	s := lineStart(text, r.Start)
	e := lineEnd(text, r.End)
	rest := bytes.TrimSpace(text[r.End:e])
	if blank(text[s:r.Start]) && (len(rest) == 0 || bytes.HasPrefix(rest, []byte("//"))) {
		return tt.Range{Start: s, End: e}
	}
	return r
}

// withLeadingSpace extends r backwards over spaces and tabs.
func withLeadingSpace(text []byte, r tt.Range) tt.Range {
	for r.Start > 0 && (text[r.Start-1] == ' ' || text[r.Start-1] == '\t') {
		r.Start--
	}
	return r
}

// withTrailingBlankLine extends r, which must end at a line boundary, over
// one following empty line.
func withTrailingBlankLine(text []byte, r tt.Range) tt.Range {
	if r.End >= len(text) || r.End == 0 || text[r.End-1] != '\n' {
		return r
	}
	e := lineEnd(text, r.End)
	if blank(text[r.End:e]) {
		r.End = e
	}
	return r
}

// sameExpr reports whether a and b print identically.
func sameExpr(a, b ast.Expr) bool {
	return types.ExprString(a) == types.ExprString(b)
}

// isIdent reports whether e is the identifier name.
func isIdent(e ast.Expr, name string) bool {
	id, ok := e.(*ast.Ident)
	return ok && id.Name == name
}

// operand reports whether e is an identifier or a selector chain over one.
func operand(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		return operand(e.X)
	}
	return false
}

// rootIdent returns the identifier at the base of a selector chain.
func rootIdent(e ast.Expr) *ast.Ident {
	for {
		switch x := e.(type) {
		case *ast.Ident:
			return x
		case *ast.SelectorExpr:
			e = x.X
		default:
			return nil
		}
	}
}

// pure reports whether evaluating e can have no side effect and cannot
// panic.
func pure(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.BasicLit, *ast.Ident, *ast.FuncLit:
		return true
	case *ast.ParenExpr:
		return pure(e.X)
	case *ast.UnaryExpr:
		return e.Op != token.ARROW && pure(e.X)
	case *ast.BinaryExpr:
		return e.Op != token.QUO && e.Op != token.REM && pure(e.X) && pure(e.Y)
	case *ast.KeyValueExpr:
		return pure(e.Key) && pure(e.Value)
	case *ast.CompositeLit:
		for _, elt := range e.Elts {
			if !pure(elt) {
				return false
			}
		}
		return true
	}
	return false
}

// assigns reports whether body assigns to, increments or takes the
// address of an identifier called name.
func assigns(body ast.Node, name string) bool {
	found := false
	ast.Inspect(body, func(n ast.Node) bool {
		if found {
			return false
		}
		switch n := n.(type) {
		case *ast.AssignStmt:
			for _, lhs := range n.Lhs {
				if id := rootIdent(lhs); id != nil && id.Name == name {
					found = true
				}
			}
		case *ast.IncDecStmt:
			if id := rootIdent(n.X); id != nil && id.Name == name {
				found = true
			}
		case *ast.UnaryExpr:
			if n.Op == token.AND {
				if id := rootIdent(n.X); id != nil && id.Name == name {
					found = true
				}
			}
		case *ast.RangeStmt:
			for _, e := range []ast.Expr{n.Key, n.Value} {
				if e != nil && isIdent(e, name) && n.Tok == token.ASSIGN {
					found = true
				}
			}
		}
		return !found
	})
	return found
}

// mentions reports whether an identifier called name occurs in n.
func mentions(n ast.Node, name string) bool {
	found := false
	ast.Inspect(n, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == name {
			found = true
		}
		return !found
	})
	return found
}
