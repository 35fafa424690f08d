package rules

import (
	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
	tt "github.com/gnolang/tclean/internal/types"
)

// RemoveUnnecessarySuppression deletes //nolint directives that no longer
// suppress anything. Directive usage is only known for a freshly checked
// tree.
type RemoveUnnecessarySuppression struct {
	diagnostic
}

func NewRemoveUnnecessarySuppression() *RemoveUnnecessarySuppression {
	return &RemoveUnnecessarySuppression{diagnostic{
		key:      options.RemoveUnnecessarySuppression,
		category: tt.CategoryUnusedSuppression,
		severity: tt.SeverityInfo,
	}}
}

func (r *RemoveUnnecessarySuppression) Requirements(o options.Options) rule.Requirements {
	req := r.requirements(o)
	if req.NeedsTree {
		req.NeedsFreshTree = true
		req.NeedsSecondIteration = true
	}
	return req
}

func (r *RemoveUnnecessarySuppression) Fix(p *rule.Pass) (rule.Result, error) {
	if !r.Enabled(p.Options()) {
		return rule.Disabled(), nil
	}

	var ops []fixer.Operation
	for _, d := range p.Diagnostics {
		if !r.CanFix(d) {
			continue
		}
		rng := wholeLines(p.Text, d.Range)
		if rng == d.Range {
			rng = withLeadingSpace(p.Text, rng)
		}
		ops = append(ops, fixer.Delete(rng, "remove directive"))
	}

	return rule.Changes("Remove unnecessary //nolint directives", ops), nil
}

func (r *RemoveUnnecessarySuppression) Preview(o options.Options) string {
	if !r.Enabled(o) {
		return ""
	}
	return "-\tcount := len(items) //nolint:unused-variable\n" +
		"+\tcount := len(items)\n"
}
