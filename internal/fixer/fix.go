// Package fixer composes the rewrite operations produced by rules into a
// single atomic change per unit.
package fixer

import (
	"errors"
	"fmt"

	tt "github.com/gnolang/tclean/internal/types"
)

// Operation is one edit scoped to a source range.
type Operation struct {
	Range   tt.Range
	NewText string
	// Label names the edit group the operation belongs to.
	Label string
	// Rule is filled in by Compose.
	Rule string
}

func Replace(r tt.Range, text, label string) Operation {
	return Operation{Range: r, NewText: text, Label: label}
}

func Delete(r tt.Range, label string) Operation {
	return Operation{Range: r, Label: label}
}

func Insert(pos int, text, label string) Operation {
	return Operation{Range: tt.Range{Start: pos, End: pos}, NewText: text, Label: label}
}

func (o Operation) String() string {
	return fmt.Sprintf("%s %s -> %q", o.Rule, o.Range, o.NewText)
}

// sameEdit reports whether a and b would make the same change.
func sameEdit(a, b Operation) bool {
	return a.Range == b.Range && a.NewText == b.NewText
}

// Conflict reports whether a and b cannot both be applied unambiguously.
// Ranges are half-open. Two insertions at one offset conflict, as does an
// insertion strictly inside a replaced range.
func Conflict(a, b Operation) bool {
	ar, br := a.Range, b.Range
	switch {
	case ar.Empty() && br.Empty():
		return ar.Start == br.Start
	case ar.Empty():
		return br.Start < ar.Start && ar.Start < br.End
	case br.Empty():
		return ar.Start < br.Start && br.Start < ar.End
	}
	return ar.Start < br.End && br.Start < ar.End
}

// RuleOperations is the contribution of one rule for one unit.
type RuleOperations struct {
	Rule       string
	Step       string
	Operations []Operation
}

// Fix is the deduplicated, pairwise disjoint set of operations for one unit.
type Fix struct {
	Unit       string
	Operations []Operation
	Steps      []string
	Label      string
}

// Edit is the externally visible form of an operation.
type Edit struct {
	Range   tt.Range
	NewText string
	Label   string
}

var ErrComposition = errors.New("overlapping rewrite operations")

// CompositionError reports two operations of one unit that overlap.
type CompositionError struct {
	Unit          string
	First, Second Operation
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("%s (rule %s) overlaps %s (rule %s)",
		e.First.Range, e.First.Rule, e.Second.Range, e.Second.Rule)
}

func (e *CompositionError) Unwrap() error { return ErrComposition }

// Compose merges the contributions of every rule that ran on unit, in the
// order given. It returns nil when no operation remains.
func Compose(unit string, contributions []RuleOperations) (*Fix, error) {
	var (
		ops   []Operation
		steps []string
	)
	for _, c := range contributions {
		if len(c.Operations) == 0 {
			continue
		}
		steps = append(steps, c.Step)
	next:
		for _, op := range c.Operations {
			op.Rule = c.Rule
			for _, prev := range ops {
				if sameEdit(prev, op) {
					continue next
				}
			}
			ops = append(ops, op)
		}
	}
	if len(ops) == 0 {
		return nil, nil
	}

	for i := range ops {
		for j := i + 1; j < len(ops); j++ {
			if Conflict(ops[i], ops[j]) {
				return nil, &CompositionError{Unit: unit, First: ops[i], Second: ops[j]}
			}
		}
	}

	return &Fix{
		Unit:       unit,
		Operations: ops,
		Steps:      steps,
		Label:      "clean up " + unit,
	}, nil
}

// Apply returns text with every operation of f applied.
func (f *Fix) Apply(text []byte) ([]byte, error) {
	b := NewBuffer(text)
	for _, op := range f.Operations {
		b.Add(op)
	}
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("applying fix to %s: %w", f.Unit, err)
	}
	return out, nil
}

// Edits lists the (range, replacement, label) triples of f.
func (f *Fix) Edits() []Edit {
	edits := make([]Edit, len(f.Operations))
	for i, op := range f.Operations {
		edits[i] = Edit{Range: op.Range, NewText: op.NewText, Label: op.Label}
	}
	return edits
}
