package types

import (
	"fmt"
	"go/token"
	"strings"
)

// Severity is the level at which a diagnostic category is reported.
// The zero value is SeverityOff.
type Severity int

const (
	SeverityOff Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityOff:
		return "off"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity accepts the lowercase names produced by String.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return SeverityOff, nil
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityOff, fmt.Errorf("unknown severity %q", s)
}

// Max returns the stricter of the two severities.
func (s Severity) Max(o Severity) Severity {
	if o > s {
		return o
	}
	return s
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Category identifies a class of diagnostics produced by the front-end.
type Category string

const (
	CategorySyntax            Category = "syntax"
	CategoryTypeError         Category = "type-error"
	CategoryUnusedVariable    Category = "unused-variable"
	CategoryUnusedImport      Category = "unused-import"
	CategoryUnusedSuppression Category = "unused-suppression"
)

// Range is a half-open byte range [Start, End) in a unit's text.
type Range struct {
	Start int `msgpack:"start"`
	End   int `msgpack:"end"`
}

func (r Range) Empty() bool { return r.Start == r.End }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Contains reports whether o lies within r.
func (r Range) Contains(o Range) bool {
	return r.Start <= o.Start && o.End <= r.End
}

// NodeRange converts a token position pair of a file parsed with base 1
// into a byte range.
func NodeRange(fset *token.FileSet, pos, end token.Pos) Range {
	return Range{
		Start: fset.Position(pos).Offset,
		End:   fset.Position(end).Offset,
	}
}

// Diagnostic is a located problem reported by the front-end.
type Diagnostic struct {
	Category Category
	Severity Severity
	Range    Range
	Message  string
	Start    token.Position
	End      token.Position
}

// Unit is one source file to be cleaned.
type Unit struct {
	ID        string
	Path      string
	Text      []byte
	GoVersion string // language version from the enclosing go.mod, "" if unknown
}
