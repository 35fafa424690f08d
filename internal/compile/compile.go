// Package compile parses units and produces the diagnostics rules ask for.
package compile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/gnolang/tclean/internal/nolint"
	tt "github.com/gnolang/tclean/internal/types"
)

const DefaultCacheSize = 256

// Request selects what a compilation must produce.
type Request struct {
	// Fresh bypasses the tree cache.
	Fresh bool
	// Diagnostics maps each category to report to its reporting severity.
	// Categories mapped to SeverityOff are not reported.
	Diagnostics map[tt.Category]tt.Severity
}

func (r Request) wants(c tt.Category) bool {
	return r.Diagnostics[c] > tt.SeverityOff
}

// typeDerived reports whether any requested category needs type checking.
func (r Request) typeDerived() bool {
	for c, s := range r.Diagnostics {
		if s > tt.SeverityOff && c != tt.CategorySyntax {
			return true
		}
	}
	return false
}

// Result is one compiled unit.
type Result struct {
	Fset *token.FileSet
	// File is nil when ParseErr is set.
	File     *ast.File
	ParseErr error
	// Diagnostics holds the requested categories only, in source order.
	Diagnostics          []tt.Diagnostic
	DiagnosticsAvailable bool
	Cached               bool
}

type parsed struct {
	fset *token.FileSet
	file *ast.File
	err  error
}

// Compiler is safe for concurrent use. Cached trees are shared between
// callers and must not be mutated.
type Compiler struct {
	logger *zap.Logger
	trees  *lru.Cache[string, *parsed]
}

func New(cacheSize int, logger *zap.Logger) (*Compiler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	trees, err := lru.New[string, *parsed](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Compiler{logger: logger, trees: trees}, nil
}

// Compile parses unit and computes the requested diagnostics.
func (c *Compiler) Compile(ctx context.Context, unit tt.Unit, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, cached := c.parse(unit, req.Fresh)
	res := &Result{Fset: p.fset, ParseErr: p.err, Cached: cached}

	if p.err != nil {
		if req.wants(tt.CategorySyntax) {
			res.Diagnostics = syntaxDiagnostics(p.err, req.Diagnostics[tt.CategorySyntax])
		}
		c.logger.Debug("unit does not parse", zap.String("unit", unit.Path), zap.Error(p.err))
		return res, nil
	}
	res.File = p.file

	if !req.typeDerived() {
		res.DiagnosticsAvailable = true
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := check(p.fset, p.file, unit.GoVersion)
	all = dropUncertainImports(p.fset, p.file, all)
	mgr := nolint.ParseComments(p.file, p.fset)
	var kept []tt.Diagnostic
	for _, d := range all {
		if !mgr.IsNolint(d.Start, string(d.Category)) {
			kept = append(kept, d)
		}
	}
	kept = append(kept, unusedSuppressions(p.fset, mgr)...)

	for _, d := range kept {
		if !req.wants(d.Category) {
			continue
		}
		d.Severity = req.Diagnostics[d.Category]
		res.Diagnostics = append(res.Diagnostics, d)
	}
	slices.SortStableFunc(res.Diagnostics, func(a, b tt.Diagnostic) int {
		return a.Range.Start - b.Range.Start
	})
	res.DiagnosticsAvailable = true
	return res, nil
}

func (c *Compiler) parse(unit tt.Unit, fresh bool) (*parsed, bool) {
	key := cacheKey(unit)
	if !fresh {
		if p, ok := c.trees.Get(key); ok {
			return p, true
		}
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, unit.Path, unit.Text, parser.ParseComments|parser.SkipObjectResolution)
	p := &parsed{fset: fset, file: file, err: err}
	if err != nil {
		p.file = nil
	}
	c.trees.Add(key, p)
	return p, false
}

func cacheKey(unit tt.Unit) string {
	h := sha256.New()
	h.Write([]byte(unit.Path))
	h.Write([]byte{0})
	h.Write(unit.Text)
	return hex.EncodeToString(h.Sum(nil))
}

func syntaxDiagnostics(err error, sev tt.Severity) []tt.Diagnostic {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return []tt.Diagnostic{{Category: tt.CategorySyntax, Severity: sev, Message: err.Error()}}
	}
	out := make([]tt.Diagnostic, 0, len(list))
	for _, e := range list {
		out = append(out, tt.Diagnostic{
			Category: tt.CategorySyntax,
			Severity: sev,
			Range:    tt.Range{Start: e.Pos.Offset, End: e.Pos.Offset},
			Message:  e.Msg,
			Start:    e.Pos,
			End:      e.Pos,
		})
	}
	return out
}

// check type-checks file on its own. Imports resolve to empty packages, so
// references into them are type errors but still count as uses.
func check(fset *token.FileSet, file *ast.File, goVersion string) []tt.Diagnostic {
	var out []tt.Diagnostic
	conf := types.Config{
		Importer:  offlineImporter{},
		GoVersion: languageVersion(goVersion),
		Error: func(err error) {
			terr, ok := err.(types.Error)
			if !ok {
				return
			}
			out = append(out, classify(fset, file, terr))
		},
	}
	_, _ = conf.Check(file.Name.Name, fset, []*ast.File{file}, nil)
	return out
}

// languageVersion turns a go.mod version ("1.22.2") into the "go1.22"
// form accepted by go/types, or "" when it cannot.
func languageVersion(v string) string {
	v = strings.TrimPrefix(v, "go")
	if v == "" {
		return ""
	}
	mm := semver.MajorMinor("v" + v)
	if mm == "" {
		return ""
	}
	return "go" + strings.TrimPrefix(mm, "v")
}

func classify(fset *token.FileSet, file *ast.File, err types.Error) tt.Diagnostic {
	cat := tt.CategoryTypeError
	switch {
	case strings.Contains(err.Msg, "declared and not used"),
		strings.Contains(err.Msg, "declared but not used"):
		cat = tt.CategoryUnusedVariable
	case strings.Contains(err.Msg, "imported and not used"),
		strings.Contains(err.Msg, "imported as") && strings.Contains(err.Msg, "and not used"):
		cat = tt.CategoryUnusedImport
	}

	start := fset.Position(err.Pos)
	end := start
	if n := nodeAt(file, err.Pos, cat); n != nil {
		end = fset.Position(n.End())
	}
	return tt.Diagnostic{
		Category: cat,
		Range:    tt.Range{Start: start.Offset, End: end.Offset},
		Message:  err.Msg,
		Start:    start,
		End:      end,
	}
}

// nodeAt finds the identifier or import spec the error points at.
func nodeAt(file *ast.File, pos token.Pos, cat tt.Category) ast.Node {
	var found ast.Node
	ast.Inspect(file, func(n ast.Node) bool {
		if found != nil || n == nil {
			return false
		}
		if n.Pos() > pos || n.End() <= pos {
			return false
		}
		switch n := n.(type) {
		case *ast.ImportSpec:
			if cat == tt.CategoryUnusedImport {
				found = n
				return false
			}
		case *ast.Ident:
			if n.Pos() == pos {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// suppressible lists the categories a //nolint directive may name for its
// use to be tracked.
var suppressible = map[string]bool{
	string(tt.CategoryTypeError):      true,
	string(tt.CategoryUnusedVariable): true,
	string(tt.CategoryUnusedImport):   true,
}

// unusedSuppressions reports directives that only name front-end categories
// and suppressed nothing. Bare //nolint and directives naming other tools'
// checks are left alone.
func unusedSuppressions(fset *token.FileSet, mgr *nolint.Manager) []tt.Diagnostic {
	var out []tt.Diagnostic
	for _, d := range mgr.Unused() {
		if len(d.Names) == 0 {
			continue
		}
		own := true
		for _, name := range d.Names {
			if !suppressible[name] {
				own = false
				break
			}
		}
		if !own {
			continue
		}
		start := fset.Position(d.Comment.Pos())
		end := fset.Position(d.Comment.End())
		out = append(out, tt.Diagnostic{
			Category: tt.CategoryUnusedSuppression,
			Range:    tt.Range{Start: start.Offset, End: end.Offset},
			Message:  "unnecessary //nolint:" + strings.Join(d.Names, ","),
			Start:    start,
			End:      end,
		})
	}
	return out
}

// dropUncertainImports discards unused-import diagnostics for imports
// without an explicit name when some selector base is undefined: the
// package name guessed from the path may be wrong, and the undefined
// name may be the real one.
func dropUncertainImports(fset *token.FileSet, file *ast.File, diags []tt.Diagnostic) []tt.Diagnostic {
	undefined := make(map[string]bool)
	for _, d := range diags {
		if name, ok := strings.CutPrefix(d.Message, "undefined: "); ok && !strings.Contains(name, ".") {
			undefined[name] = true
		}
	}
	if len(undefined) == 0 {
		return diags
	}
	uncertain := false
	ast.Inspect(file, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok && undefined[id.Name] {
				uncertain = true
			}
		}
		return !uncertain
	})
	if !uncertain {
		return diags
	}

	named := make(map[int]bool)
	for _, imp := range file.Imports {
		if imp.Name != nil {
			named[fset.Position(imp.Pos()).Offset] = true
		}
	}
	out := diags[:0:0]
	for _, d := range diags {
		if d.Category == tt.CategoryUnusedImport && !named[d.Range.Start] {
			continue
		}
		out = append(out, d)
	}
	return out
}
