package rules

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
)

// SimplifyRange drops blank identifiers from range clauses. Each form is
// a sub-option; at least one must be enabled.
type SimplifyRange struct {
	structural
}

func NewSimplifyRange() *SimplifyRange {
	return &SimplifyRange{structural{key: options.SimplifyRange}}
}

func (r *SimplifyRange) Keys() []options.Key {
	return []options.Key{options.SimplifyRange, options.SimplifyRangeBlankKey, options.SimplifyRangeBlankValue}
}

func (r *SimplifyRange) Enabled(o options.Options) bool {
	return o.Enabled(options.SimplifyRange) &&
		o.Any(options.SimplifyRangeBlankKey, options.SimplifyRangeBlankValue)
}

func (r *SimplifyRange) Requirements(o options.Options) rule.Requirements {
	if !r.Enabled(o) {
		return rule.Requirements{}
	}
	return rule.Requirements{NeedsTree: true}
}

func (r *SimplifyRange) Fix(p *rule.Pass) (rule.Result, error) {
	o := p.Options()
	if !r.Enabled(o) {
		return rule.Disabled(), nil
	}
	blankKey := o.Enabled(options.SimplifyRangeBlankKey)
	blankValue := o.Enabled(options.SimplifyRangeBlankValue)

	var ops []fixer.Operation
	ast.Inspect(p.File, func(n ast.Node) bool {
		rs, ok := n.(*ast.RangeStmt)
		if !ok || rs.Key == nil {
			return true
		}
		keyBlank := isIdent(rs.Key, "_")
		valueBlank := rs.Value != nil && isIdent(rs.Value, "_")

		switch {
		case keyBlank && rs.Value == nil && blankKey && rs.Tok == token.ASSIGN:
			// for _ = range x
			ops = append(ops, fixer.Delete(span(p, rs.Key.Pos(), rs.Range), "drop blank key"))
		case keyBlank && valueBlank && blankKey && blankValue:
			// for _, _ = range x
			ops = append(ops, fixer.Delete(span(p, rs.Key.Pos(), rs.Range), "drop blank key"))
		case valueBlank && blankValue:
			// for k, _ := range x
			ops = append(ops, fixer.Delete(span(p, rs.Key.End(), rs.Value.End()), "drop blank value"))
		}
		return true
	})

	return rule.Changes("Remove blank identifiers from range clauses", ops), nil
}

func (r *SimplifyRange) Preview(o options.Options) string {
	if !r.Enabled(o) {
		return ""
	}
	var b strings.Builder
	if o.Enabled(options.SimplifyRangeBlankKey) {
		b.WriteString("-\tfor _ = range ch {\n")
		b.WriteString("+\tfor range ch {\n")
	}
	if o.Enabled(options.SimplifyRangeBlankValue) {
		b.WriteString("-\tfor i, _ := range items {\n")
		b.WriteString("+\tfor i := range items {\n")
	}
	return b.String()
}
