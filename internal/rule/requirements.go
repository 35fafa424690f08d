package rule

import (
	"maps"
	"slices"

	"github.com/gnolang/tclean/internal/options"
	tt "github.com/gnolang/tclean/internal/types"
)

// Requirements declares what a rule needs before it can run on a unit.
// The zero value needs nothing.
type Requirements struct {
	NeedsTree            bool
	NeedsFreshTree       bool
	NeedsSecondIteration bool
	// Diagnostics maps each requested category to the minimum severity at
	// which it must be reported.
	Diagnostics map[tt.Category]tt.Severity
}

// Merge returns the union of r and o. Booleans are OR-ed and conflicting
// severities resolve to the stricter one. Neither argument is modified.
func (r Requirements) Merge(o Requirements) Requirements {
	out := Requirements{
		NeedsTree:            r.NeedsTree || o.NeedsTree,
		NeedsFreshTree:       r.NeedsFreshTree || o.NeedsFreshTree,
		NeedsSecondIteration: r.NeedsSecondIteration || o.NeedsSecondIteration,
	}
	if len(r.Diagnostics)+len(o.Diagnostics) > 0 {
		out.Diagnostics = make(map[tt.Category]tt.Severity, len(r.Diagnostics)+len(o.Diagnostics))
		maps.Copy(out.Diagnostics, r.Diagnostics)
		for c, s := range o.Diagnostics {
			out.Diagnostics[c] = out.Diagnostics[c].Max(s)
		}
	}
	return out
}

// Categories returns the requested diagnostic categories in sorted order.
func (r Requirements) Categories() []tt.Category {
	return slices.Sorted(maps.Keys(r.Diagnostics))
}

// Aggregate merges the requirements of every rule under o.
func Aggregate(rules []Rule, o options.Options) Requirements {
	var req Requirements
	for _, r := range rules {
		req = req.Merge(r.Requirements(o))
	}
	return req
}
