package rule

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrRulePanic = errors.New("rule panicked")

// Run invokes r on p: enablement, then precondition, then the fix itself.
// A panic inside the rule is returned as an error wrapping ErrRulePanic.
func Run(r Rule, p *Pass) (res Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			res = Result{}
			err = fmt.Errorf("%w: %s: %v", ErrRulePanic, r.Name(), v)
		}
	}()

	o := p.Options()
	if !r.Enabled(o) {
		return Disabled(), nil
	}
	if r.Requirements(o).NeedsTree && p.File == nil {
		return NoChanges(), nil
	}
	if pc, ok := r.(Preconditioner); ok {
		if err := pc.Precondition(p); err != nil {
			if !errors.Is(err, ErrPrecondition) {
				return Result{}, err
			}
			p.Logger().Debug("rule not applicable",
				zap.String("rule", r.Name()),
				zap.String("unit", p.Unit.Path),
				zap.Error(err))
			return NoChanges(), nil
		}
	}
	if dr, ok := r.(DiagnosticRule); ok {
		if !p.DiagnosticsAvailable || dr.EstimateFixCount(p) == 0 {
			return NoChanges(), nil
		}
	}
	return r.Fix(p)
}
