package rules

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
)

// minRangeOverIntVersion is the first language version with range over
// integers.
const minRangeOverIntVersion = "v1.22"

// RangeOverInt rewrites canonical counting loops into a range over an int:
//
//	for i := 0; i < n; i++ { ... }  ->  for i := range n { ... }
//
// n must be an integer literal or len() of an operand the body does not
// assign. A body calling anything but a builtin may change that length
// through a method or a pointer, so it keeps the loop. The counter must not
// be assigned inside the body.
type RangeOverInt struct {
	structural
}

func NewRangeOverInt() *RangeOverInt {
	return &RangeOverInt{structural{key: options.RangeOverInt}}
}

// Precondition requires a module language version of at least go1.22.
func (r *RangeOverInt) Precondition(p *rule.Pass) error {
	v := strings.TrimPrefix(p.Unit.GoVersion, "go")
	if v == "" {
		return fmt.Errorf("%w: unknown language version", rule.ErrPrecondition)
	}
	if !semver.IsValid("v"+v) || semver.Compare("v"+v, minRangeOverIntVersion) < 0 {
		return fmt.Errorf("%w: language version %s is older than go1.22", rule.ErrPrecondition, v)
	}
	return nil
}

func (r *RangeOverInt) Fix(p *rule.Pass) (rule.Result, error) {
	if !r.Enabled(p.Options()) {
		return rule.Disabled(), nil
	}

	var ops []fixer.Operation
	ast.Inspect(p.File, func(n ast.Node) bool {
		fs, ok := n.(*ast.ForStmt)
		if !ok {
			return true
		}
		counter, bound, ok := countingLoop(fs)
		if !ok {
			return true
		}
		text := "range " + p.Source(bound)
		if mentions(fs.Body, counter) {
			text = counter + " := " + text
		}
		ops = append(ops, fixer.Replace(span(p, fs.Init.Pos(), fs.Post.End()), text, "range over int"))
		return true
	})

	return rule.Changes("Use range over int in counting loops", ops), nil
}

// countingLoop matches for i := 0; i < bound; i++ and returns the counter
// name and the bound.
func countingLoop(fs *ast.ForStmt) (string, ast.Expr, bool) {
	init, ok := fs.Init.(*ast.AssignStmt)
	if !ok || init.Tok != token.DEFINE || len(init.Lhs) != 1 || len(init.Rhs) != 1 {
		return "", nil, false
	}
	id, ok := init.Lhs[0].(*ast.Ident)
	if !ok || id.Name == "_" {
		return "", nil, false
	}
	if lit, ok := init.Rhs[0].(*ast.BasicLit); !ok || lit.Kind != token.INT || lit.Value != "0" {
		return "", nil, false
	}

	cond, ok := fs.Cond.(*ast.BinaryExpr)
	if !ok || cond.Op != token.LSS || !isIdent(cond.X, id.Name) {
		return "", nil, false
	}

	post, ok := fs.Post.(*ast.IncDecStmt)
	if !ok || post.Tok != token.INC || !isIdent(post.X, id.Name) {
		return "", nil, false
	}

	if assigns(fs.Body, id.Name) {
		return "", nil, false
	}

	switch b := cond.Y.(type) {
	case *ast.BasicLit:
		if b.Kind != token.INT {
			return "", nil, false
		}
	case *ast.CallExpr:
		if !isIdent(b.Fun, "len") || len(b.Args) != 1 || !operand(b.Args[0]) {
			return "", nil, false
		}
		root := rootIdent(b.Args[0])
		if root.Name == id.Name || assigns(fs.Body, root.Name) || callsFunctions(fs.Body) {
			return "", nil, false
		}
	default:
		return "", nil, false
	}
	return id.Name, cond.Y, true
}

// lengthSafeBuiltins cannot change the length of a variable they are
// not assigned to.
var lengthSafeBuiltins = map[string]bool{
	"len": true, "cap": true, "min": true, "max": true, "append": true,
	"copy": true, "panic": true, "print": true, "println": true,
	"string": true, "int": true, "int64": true, "float64": true, "byte": true, "rune": true,
}

// callsFunctions reports whether n contains a call other than a builtin
// or a basic conversion.
func callsFunctions(n ast.Node) bool {
	found := false
	ast.Inspect(n, func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok {
			if id, ok := call.Fun.(*ast.Ident); !ok || !lengthSafeBuiltins[id.Name] {
				found = true
			}
		}
		return !found
	})
	return found
}

func (r *RangeOverInt) Preview(o options.Options) string {
	if !r.Enabled(o) {
		return ""
	}
	return "-\tfor i := 0; i < len(items); i++ {\n" +
		"+\tfor i := range len(items) {\n"
}
