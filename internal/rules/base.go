// Package rules contains the built-in clean-up rules.
package rules

import (
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
	tt "github.com/gnolang/tclean/internal/types"
)

// structural is embedded by rules that scan the whole tree and need
// nothing beyond it.
type structural struct {
	key options.Key
}

func (s structural) Name() string { return string(s.key) }

func (s structural) Keys() []options.Key { return []options.Key{s.key} }

func (s structural) Enabled(o options.Options) bool { return o.Enabled(s.key) }

func (s structural) Requirements(o options.Options) rule.Requirements {
	if !o.Enabled(s.key) {
		return rule.Requirements{}
	}
	return rule.Requirements{NeedsTree: true}
}

// diagnostic is embedded by rules that fix one front-end category.
type diagnostic struct {
	key      options.Key
	category tt.Category
	severity tt.Severity
}

func (d diagnostic) Name() string { return string(d.key) }

func (d diagnostic) Keys() []options.Key { return []options.Key{d.key} }

func (d diagnostic) Enabled(o options.Options) bool { return o.Enabled(d.key) }

func (d diagnostic) requirements(o options.Options) rule.Requirements {
	if !o.Enabled(d.key) {
		return rule.Requirements{}
	}
	return rule.Requirements{
		NeedsTree:   true,
		Diagnostics: map[tt.Category]tt.Severity{d.category: d.severity},
	}
}

func (d diagnostic) CanFix(diag tt.Diagnostic) bool {
	return diag.Category == d.category
}

func (d diagnostic) EstimateFixCount(p *rule.Pass) int {
	return len(p.DiagnosticsOf(d.category))
}
