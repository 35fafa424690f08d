package rules

import (
	"go/ast"

	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
)

// SimplifySliceExpr removes a redundant len() upper bound:
// s[:len(s)] -> s[:], s[i:len(s)] -> s[i:].
type SimplifySliceExpr struct {
	structural
}

func NewSimplifySliceExpr() *SimplifySliceExpr {
	return &SimplifySliceExpr{structural{key: options.SimplifySliceExpr}}
}

func (r *SimplifySliceExpr) Fix(p *rule.Pass) (rule.Result, error) {
	if !r.Enabled(p.Options()) {
		return rule.Disabled(), nil
	}

	var ops []fixer.Operation
	ast.Inspect(p.File, func(n ast.Node) bool {
		se, ok := n.(*ast.SliceExpr)
		if !ok || !isSliceWithLenCall(se) {
			return true
		}
		ops = append(ops, fixer.Delete(p.Range(se.High), "drop len bound"))
		return true
	})

	return rule.Changes("Remove unnecessary len() from slice expressions", ops), nil
}

// isSliceWithLenCall checks if the slice expression has unnecessary len() call.
func isSliceWithLenCall(se *ast.SliceExpr) bool {
	// 3-index slices always require the 2nd and 3rd index
	if se.Slice3 || se.High == nil {
		return false
	}
	// s may not be evaluated twice if it has side effects
	if !operand(se.X) {
		return false
	}
	call, ok := se.High.(*ast.CallExpr)
	if !ok || !isIdent(call.Fun, "len") || len(call.Args) != 1 || call.Ellipsis.IsValid() {
		return false
	}
	return sameExpr(call.Args[0], se.X)
}

func (r *SimplifySliceExpr) Preview(o options.Options) string {
	if !r.Enabled(o) {
		return ""
	}
	return "-\ttail := items[1:len(items)]\n" +
		"+\ttail := items[1:]\n"
}
