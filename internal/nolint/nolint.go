package nolint

import (
	"fmt"
	"go/ast"
	"go/token"
	"slices"
	"strings"
)

const nolintPrefix = "//nolint"

// Manager holds the nolint directives of one file and records which of
// them suppressed something.
type Manager struct {
	directives []*Directive
}

// Directive is a single //nolint comment and the lines it covers.
type Directive struct {
	// Names lists the categories after the colon. Empty means all.
	Names []string
	Comment *ast.Comment
	// Inline is set when code precedes the comment on its line.
	Inline bool

	names map[string]struct{}
	start token.Position
	end   token.Position
	used  bool
}

// Used reports whether the directive suppressed at least one diagnostic.
func (d *Directive) Used() bool { return d.used }

// StartLine and EndLine delimit the covered lines, inclusive.
func (d *Directive) StartLine() int { return d.start.Line }
func (d *Directive) EndLine() int   { return d.end.Line }

// Covers reports whether name is among the directive's categories.
func (d *Directive) Covers(name string) bool {
	if len(d.names) == 0 {
		return true
	}
	_, ok := d.names[name]
	return ok
}

// ParseComments parses nolint comments in the given AST file and returns a Manager.
func ParseComments(f *ast.File, fset *token.FileSet) *Manager {
	manager := Manager{}
	stmtMap := indexStatementsByLine(f, fset)
	packageLine := fset.Position(f.Package).Line

	for _, cg := range f.Comments {
		for _, comment := range cg.List {
			d, err := parseComment(comment, f, fset, stmtMap, packageLine)
			if err != nil {
				// ignore invalid nolint comments
				continue
			}
			manager.directives = append(manager.directives, d)
		}
	}
	return &manager
}

// parseComment parses a single nolint comment and determines its scope.
func parseComment(
	comment *ast.Comment,
	f *ast.File,
	fset *token.FileSet,
	stmtMap map[int]ast.Stmt,
	packageLine int,
) (*Directive, error) {
	text := comment.Text

	if !strings.HasPrefix(text, nolintPrefix) {
		return nil, fmt.Errorf("invalid nolint comment")
	}

	rest := text[len(nolintPrefix):]

	// A nolint comment can either have a list of names after a colon (:)
	// or, with no names, apply to everything
	if len(rest) > 0 && rest[0] != ':' {
		return nil, fmt.Errorf("invalid nolint comment format")
	}

	if len(rest) > 0 {
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return nil, fmt.Errorf("invalid nolint comment: no names specified after colon")
		}
	}

	d := &Directive{Comment: comment}
	d.names = parseIgnoreRuleNames(rest)
	for name := range d.names {
		d.Names = append(d.Names, name)
	}
	slices.Sort(d.Names)

	pos := fset.Position(comment.Slash)
	d.Inline = isInlineComment(fset, f, comment)

	// If the comment appears before the package declaration, apply it to the entire file
	if isBeforePackageDecl(pos.Line, packageLine) {
		d.start = fset.Position(f.Pos())
		d.end = fset.Position(f.End())
		d.start.Line = 1
		return d, nil
	}

	if d.Inline {
		if stmt, exists := stmtMap[pos.Line]; exists {
			// For inline comments, apply to the scope of the current statement
			d.start = fset.Position(stmt.Pos())
			d.end = fset.Position(stmt.End())
			return d, nil
		}
		d.start, d.end = pos, pos
		return d, nil
	}

	// For standalone comments: if there's a statement on the next line,
	// apply to that statement's scope while including the comment line itself
	nextLine := pos.Line + 1
	if stmt, exists := stmtMap[nextLine]; exists {
		d.start = pos
		d.end = fset.Position(stmt.End())
		return d, nil
	}

	// Otherwise a declaration starting on the next line
	if decl := findDeclAfterLine(fset, f, pos.Line); decl != nil {
		if fset.Position(decl.Pos()).Line == nextLine {
			d.start = pos
			d.end = fset.Position(decl.End())
			return d, nil
		}
	}

	// default behavior:
	// apply only to the comment line
	d.start = pos
	d.end = pos
	return d, nil
}

// parseIgnoreRuleNames parses the name list from the nolint comment.
func parseIgnoreRuleNames(text string) map[string]struct{} {
	names := make(map[string]struct{})
	if text == "" {
		return names
	}
	for _, name := range strings.Split(text, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names[name] = struct{}{}
		}
	}
	return names
}

// indexStatementsByLine traverses the AST once and maps each line to its corresponding statement.
// If multiple statements exist on a single line, only the first statement is recorded.
func indexStatementsByLine(f *ast.File, fset *token.FileSet) map[int]ast.Stmt {
	stmtMap := make(map[int]ast.Stmt)
	ast.Inspect(f, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		if stmt, ok := n.(ast.Stmt); ok {
			if _, isBlock := stmt.(*ast.BlockStmt); isBlock {
				return true
			}
			line := fset.Position(stmt.Pos()).Line
			if _, exists := stmtMap[line]; !exists {
				stmtMap[line] = stmt
			}
		}
		return true
	})
	return stmtMap
}

// isBeforePackageDecl checks if a given line is before the package declaration.
func isBeforePackageDecl(line, packageLine int) bool {
	return line < packageLine
}

// findDeclAfterLine finds the first top-level declaration at or after a given line.
func findDeclAfterLine(fset *token.FileSet, f *ast.File, line int) ast.Decl {
	for _, decl := range f.Decls {
		if fset.Position(decl.Pos()).Line >= line {
			return decl
		}
	}
	return nil
}

// isInlineComment reports whether any token of the file precedes the
// comment on its line.
func isInlineComment(fset *token.FileSet, f *ast.File, comment *ast.Comment) bool {
	pos := fset.Position(comment.Slash)
	inline := false
	ast.Inspect(f, func(n ast.Node) bool {
		if inline || n == nil {
			return false
		}
		if _, ok := n.(*ast.File); ok {
			return true
		}
		if _, ok := n.(*ast.CommentGroup); ok {
			return false
		}
		start := fset.Position(n.Pos())
		end := fset.Position(n.End())
		if start.Line > pos.Line || end.Line < pos.Line {
			return false
		}
		if start.Line == pos.Line && start.Offset < pos.Offset {
			inline = true
			return false
		}
		return true
	})
	return inline
}

// IsNolint reports whether a diagnostic of the given category at pos is
// suppressed. Every matching directive is marked used.
func (m *Manager) IsNolint(pos token.Position, name string) bool {
	suppressed := false
	for _, d := range m.directives {
		if pos.Line < d.start.Line || pos.Line > d.end.Line {
			continue
		}
		if d.Covers(name) {
			d.used = true
			suppressed = true
		}
	}
	return suppressed
}

// Directives returns every parsed directive in source order.
func (m *Manager) Directives() []*Directive {
	return m.directives
}

// Unused returns the directives that have not suppressed anything yet.
func (m *Manager) Unused() []*Directive {
	var out []*Directive
	for _, d := range m.directives {
		if !d.used {
			out = append(out, d)
		}
	}
	return out
}
