// Package rule defines the contract between the clean-up engine and the
// rules it runs.
package rule

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"

	"go.uber.org/zap"

	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/options"
	tt "github.com/gnolang/tclean/internal/types"
)

// Rule is a stateless transformation gated on one or more option keys.
// Every method must be safe for concurrent use.
type Rule interface {
	Name() string
	// Keys lists every option the rule reads.
	Keys() []options.Key
	Enabled(o options.Options) bool
	// Requirements is a pure function of o and is zero when the rule is
	// disabled.
	Requirements(o options.Options) Requirements
	Fix(p *Pass) (Result, error)
	// Preview renders a before/after sample for the enabled sub-options.
	Preview(o options.Options) string
}

// DiagnosticRule is a rule driven by front-end diagnostics rather than a
// tree scan.
type DiagnosticRule interface {
	Rule
	CanFix(d tt.Diagnostic) bool
	// EstimateFixCount returns an upper bound on the number of operations
	// Fix would produce, or -1 if unknown.
	EstimateFixCount(p *Pass) int
}

// Preconditioner is implemented by rules that only apply under some
// property of the unit.
type Preconditioner interface {
	// Precondition returns an error wrapping ErrPrecondition when the rule
	// does not apply to p.
	Precondition(p *Pass) error
}

var ErrPrecondition = errors.New("precondition not met")

// Kind classifies a rule result.
type Kind int

const (
	KindDisabled Kind = iota
	KindNoChanges
	KindChanges
)

func (k Kind) String() string {
	switch k {
	case KindDisabled:
		return "disabled"
	case KindNoChanges:
		return "no-changes"
	case KindChanges:
		return "changes"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is the outcome of one rule invocation on one unit.
type Result struct {
	Kind       Kind
	Step       string
	Operations []fixer.Operation
}

func Disabled() Result { return Result{Kind: KindDisabled} }

func NoChanges() Result { return Result{Kind: KindNoChanges} }

// Changes wraps ops; an empty list is reported as NoChanges.
func Changes(step string, ops []fixer.Operation) Result {
	if len(ops) == 0 {
		return NoChanges()
	}
	return Result{Kind: KindChanges, Step: step, Operations: ops}
}

// Session carries the per-run context shared by every rule call.
type Session struct {
	ID      string
	Options options.Options
	Logger  *zap.Logger
}

// Pass is one unit at one iteration, as seen by a rule.
type Pass struct {
	Session *Session
	Unit    tt.Unit
	Text    []byte
	Fset    *token.FileSet
	File    *ast.File // nil when the text does not parse
	// Diagnostics holds the requested categories only.
	Diagnostics          []tt.Diagnostic
	DiagnosticsAvailable bool
	Iteration            int
}

// Options is shorthand for p.Session.Options.
func (p *Pass) Options() options.Options {
	if p.Session == nil {
		return options.Options{}
	}
	return p.Session.Options
}

func (p *Pass) Logger() *zap.Logger {
	if p.Session == nil || p.Session.Logger == nil {
		return zap.NewNop()
	}
	return p.Session.Logger
}

// Offset converts pos to a byte offset in p.Text.
func (p *Pass) Offset(pos token.Pos) int {
	return p.Fset.Position(pos).Offset
}

// Range returns the byte range covered by n.
func (p *Pass) Range(n ast.Node) tt.Range {
	return tt.NodeRange(p.Fset, n.Pos(), n.End())
}

// Source returns the text covered by n.
func (p *Pass) Source(n ast.Node) string {
	r := p.Range(n)
	return string(p.Text[r.Start:r.End])
}

// DiagnosticsOf returns the diagnostics of the given category.
func (p *Pass) DiagnosticsOf(c tt.Category) []tt.Diagnostic {
	var out []tt.Diagnostic
	for _, d := range p.Diagnostics {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out
}

// Claims records the nodes a rule has already rewritten in one pass so
// that a nested match is not edited twice.
type Claims struct {
	ranges []tt.Range
}

// Claim marks r as taken. It returns false if r overlaps an earlier claim.
func (c *Claims) Claim(r tt.Range) bool {
	for _, prev := range c.ranges {
		if prev.Start < r.End && r.Start < prev.End {
			return false
		}
	}
	c.ranges = append(c.ranges, r)
	return true
}
