package rules

import "github.com/gnolang/tclean/internal/rule"

// All returns a new instance of every built-in rule in execution order.
func All() []rule.Rule {
	return []rule.Rule{
		NewSimplifyCompositeLiteral(),
		NewSimplifySliceExpr(),
		NewSimplifyRange(),
		NewRangeOverInt(),
		NewUselessBreak(),
		NewSimplifyBoolCompare(),
		NewRemoveUnusedImport(),
		NewRemoveUnusedLocal(),
		NewRemoveUnnecessarySuppression(),
	}
}

// Default returns a registry holding All.
func Default() *rule.Registry {
	reg := rule.NewRegistry()
	reg.MustRegister(All()...)
	return reg
}
