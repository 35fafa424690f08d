package rules

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
)

// SimplifyCompositeLiteral drops element types that repeat the enclosing
// literal's element type:
//
//	[]Point{Point{1, 2}}   ->  []Point{{1, 2}}
//	[]*Point{&Point{1, 2}} ->  []*Point{{1, 2}}  (pointers sub-option)
type SimplifyCompositeLiteral struct {
	structural
}

func NewSimplifyCompositeLiteral() *SimplifyCompositeLiteral {
	return &SimplifyCompositeLiteral{structural{key: options.SimplifyCompositeLiteral}}
}

func (r *SimplifyCompositeLiteral) Keys() []options.Key {
	return []options.Key{options.SimplifyCompositeLiteral, options.SimplifyCompositeLiteralPointers}
}

func (r *SimplifyCompositeLiteral) Fix(p *rule.Pass) (rule.Result, error) {
	o := p.Options()
	if !r.Enabled(o) {
		return rule.Disabled(), nil
	}
	pointers := o.All(options.SimplifyCompositeLiteral, options.SimplifyCompositeLiteralPointers)

	var ops []fixer.Operation
	ast.Inspect(p.File, func(n ast.Node) bool {
		lit, ok := n.(*ast.CompositeLit)
		if !ok {
			return true
		}
		var keyType, eltType ast.Expr
		switch t := lit.Type.(type) {
		case *ast.ArrayType:
			eltType = t.Elt
		case *ast.MapType:
			keyType, eltType = t.Key, t.Value
		default:
			return true
		}
		for _, elt := range lit.Elts {
			if kv, ok := elt.(*ast.KeyValueExpr); ok {
				if keyType != nil {
					ops = r.elide(p, kv.Key, keyType, pointers, ops)
				}
				elt = kv.Value
			}
			ops = r.elide(p, elt, eltType, pointers, ops)
		}
		return true
	})

	return rule.Changes("Remove redundant types from composite literals", ops), nil
}

func (r *SimplifyCompositeLiteral) elide(p *rule.Pass, x, typ ast.Expr, pointers bool, ops []fixer.Operation) []fixer.Operation {
	switch x := x.(type) {
	case *ast.CompositeLit:
		if x.Type != nil && sameExpr(x.Type, typ) {
			ops = append(ops, r.deleteUpTo(p, x.Type.Pos(), x.Lbrace))
		}
	case *ast.UnaryExpr:
		if !pointers || x.Op != token.AND {
			break
		}
		star, ok := typ.(*ast.StarExpr)
		if !ok {
			break
		}
		lit, ok := x.X.(*ast.CompositeLit)
		if ok && lit.Type != nil && sameExpr(lit.Type, star.X) {
			ops = append(ops, r.deleteUpTo(p, x.Pos(), lit.Lbrace))
		}
	}
	return ops
}

func (r *SimplifyCompositeLiteral) deleteUpTo(p *rule.Pass, from, lbrace token.Pos) fixer.Operation {
	return fixer.Delete(span(p, from, lbrace), "elide literal type")
}

func (r *SimplifyCompositeLiteral) Preview(o options.Options) string {
	if !r.Enabled(o) {
		return ""
	}
	var b strings.Builder
	b.WriteString("-\tpoints := []Point{Point{1, 2}, Point{3, 4}}\n")
	b.WriteString("+\tpoints := []Point{{1, 2}, {3, 4}}\n")
	if o.Enabled(options.SimplifyCompositeLiteralPointers) {
		b.WriteString("-\trefs := []*Point{&Point{1, 2}}\n")
		b.WriteString("+\trefs := []*Point{{1, 2}}\n")
	}
	return b.String()
}
