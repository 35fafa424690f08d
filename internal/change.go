package internal

import (
	"github.com/gnolang/tclean/internal/fixer"
	tt "github.com/gnolang/tclean/internal/types"
)

// Change is the cumulative result of cleaning one unit.
type Change struct {
	Unit    tt.Unit
	NewText []byte
	// Passes holds the fix applied at each iteration, in order.
	Passes []*fixer.Fix
	// Steps lists the description of every rule that contributed, once.
	Steps      []string
	Iterations int
	// Capped reports that the loop stopped at the iteration limit.
	Capped bool
}

func (c *Change) OldText() []byte { return c.Unit.Text }

func (c *Change) Label() string { return "clean up " + c.Unit.Path }

// Edits returns the change as edits against OldText. A single pass keeps its
// per-rule edits; several passes collapse into one replacement of the
// differing region.
func (c *Change) Edits() []fixer.Edit {
	if len(c.Passes) == 1 {
		return c.Passes[0].Edits()
	}
	op := minimalEdit(c.Unit.Text, c.NewText, c.Label())
	return []fixer.Edit{{Range: op.Range, NewText: op.NewText, Label: op.Label}}
}

// minimalEdit returns the single operation turning old into updated, trimmed
// to the bytes that differ.
func minimalEdit(old, updated []byte, label string) fixer.Operation {
	prefix := 0
	for prefix < len(old) && prefix < len(updated) && old[prefix] == updated[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(updated)-prefix &&
		old[len(old)-1-suffix] == updated[len(updated)-1-suffix] {
		suffix++
	}
	r := tt.Range{Start: prefix, End: len(old) - suffix}
	return fixer.Replace(r, string(updated[prefix:len(updated)-suffix]), label)
}
