package internal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/metrics"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
	"github.com/gnolang/tclean/internal/rules"
	tt "github.com/gnolang/tclean/internal/types"
)

// stubRule replaces the whole first line of a unit, or panics.
type stubRule struct {
	name  string
	text  string
	panic bool
}

func (r *stubRule) Name() string { return r.name }

func (r *stubRule) Keys() []options.Key { return []options.Key{options.Key(r.name)} }

func (r *stubRule) Enabled(o options.Options) bool { return o.Enabled(options.Key(r.name)) }

func (r *stubRule) Preview(options.Options) string { return "" }

func (r *stubRule) Requirements(o options.Options) rule.Requirements {
	if !r.Enabled(o) {
		return rule.Requirements{}
	}
	return rule.Requirements{NeedsTree: true}
}

func (r *stubRule) Fix(p *rule.Pass) (rule.Result, error) {
	if r.panic {
		panic("boom")
	}
	op := fixer.Replace(tt.Range{Start: 0, End: len("package a")}, r.text, r.name)
	return rule.Changes("stub "+r.name, []fixer.Operation{op}), nil
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	return e
}

func testUnit(src string) tt.Unit {
	return tt.Unit{ID: "a.go", Path: "a.go", Text: []byte(src), GoVersion: "1.22"}
}

func TestCleanCompositeLiteral(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	o := options.Enable(options.SimplifyCompositeLiteral)

	src := "package a\n\ntype T struct{ v int }\n\nvar a = []T{T{1}}\n"
	c, err := e.Clean(context.Background(), e.NewSession(o), testUnit(src))
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "package a\n\ntype T struct{ v int }\n\nvar a = []T{{1}}\n", string(c.NewText))
	assert.Equal(t, []string{"Remove redundant types from composite literals"}, c.Steps)
	assert.Equal(t, 1, c.Iterations)
	assert.False(t, c.Capped)
}

func TestCleanDisabled(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	o := options.New(map[string]string{string(options.SimplifyCompositeLiteral): "false"})

	assert.False(t, e.Requirements(o).NeedsTree)

	c, err := e.Clean(context.Background(), e.NewSession(o), testUnit("package a\n\nvar a = []T{T{1}}\n"))
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCleanTwoRulesOnePass(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	o := options.Enable(options.SimplifySliceExpr, options.SimplifyCompositeLiteral)

	src := `package a

type T struct{ v int }

func f(s []int) {
	a := []T{T{1}}
	_ = s[1:len(s)]
	_ = a
}
`
	c, err := e.Clean(context.Background(), e.NewSession(o), testUnit(src))
	require.NoError(t, err)
	require.NotNil(t, c)

	require.Len(t, c.Passes, 1)
	assert.Len(t, c.Edits(), 2)
	assert.Equal(t, []string{
		"Remove redundant types from composite literals",
		"Remove unnecessary len() from slice expressions",
	}, c.Steps)
	assert.Contains(t, string(c.NewText), "a := []T{{1}}")
	assert.Contains(t, string(c.NewText), "_ = s[1:]")
}

func TestRunSkipsUnparsableUnit(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	o := options.Enable(options.RemoveUnusedImport)

	src := MemorySource{
		"broken.go": {ID: "broken.go", Path: "broken.go", Text: []byte("package a\n\nimport \"os\"\n\nfunc f( {\n")},
		"ok.go":     {ID: "ok.go", Path: "ok.go", Text: []byte("package a\n\nimport \"os\"\n\nfunc f() {}\n")},
	}
	report, err := e.Run(context.Background(), o, src, []string{"broken.go", "ok.go"})
	require.NoError(t, err)

	require.Len(t, report.Changes, 2)
	assert.Nil(t, report.Changes[0])
	require.NotNil(t, report.Changes[1])
	assert.Equal(t, "package a\n\nfunc f() {}\n", string(report.Changes[1].NewText))
	assert.Empty(t, report.Failures)
}

func TestRunMissingUnit(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	o := options.Enable(options.SimplifyCompositeLiteral)

	report, err := e.Run(context.Background(), o, MemorySource{}, []string{"gone.go"})
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], ErrModelAccess)
	assert.Equal(t, "gone.go", report.Failures[0].ID)
}

func TestCleanIdempotent(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	o := options.Defaults()

	src := `package a

import "fmt"

type T struct{ v int }

func f(s []int, ok bool) {
	for _ = range s {
	}
	a := []T{T{1}}
	if ok == true {
		_ = s[1:len(s)]
	}
	switch len(a) {
	case 1:
		break
	}
}
`
	s := e.NewSession(o)
	first, err := e.Clean(context.Background(), s, testUnit(src))
	require.NoError(t, err)
	require.NotNil(t, first)

	for _, pass := range first.Passes {
		for i, a := range pass.Operations {
			for _, b := range pass.Operations[i+1:] {
				assert.False(t, fixer.Conflict(a, b), "%s overlaps %s", a, b)
			}
		}
	}

	second, err := e.Clean(context.Background(), s, testUnit(string(first.NewText)))
	require.NoError(t, err)
	assert.Nil(t, second, "second run changed:\n%s", first.NewText)
}

func TestCleanFixedPoint(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	o := options.Enable(options.RemoveUnusedLocal)

	src := "package a\n\nfunc f() {\n\ty := 2\n\tx := y\n}\n"
	c, err := e.Clean(context.Background(), e.NewSession(o), testUnit(src))
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "package a\n\nfunc f() {\n}\n", string(c.NewText))
	assert.Len(t, c.Passes, 2)
	assert.Equal(t, 3, c.Iterations)
	assert.False(t, c.Capped)
	assert.Equal(t, []string{"Remove unused local variables"}, c.Steps)

	edits := c.Edits()
	require.Len(t, edits, 1)
	out := string(c.OldText()[:edits[0].Range.Start]) + edits[0].NewText + string(c.OldText()[edits[0].Range.End:])
	assert.Equal(t, string(c.NewText), out)
}

func TestCleanSuppressionConverges(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	o := options.Enable(options.RemoveUnnecessarySuppression)

	src := "package a\n\nfunc f() {\n\tx := 1 //nolint:unused-variable\n\t_ = x\n}\n"
	c, err := e.Clean(context.Background(), e.NewSession(o), testUnit(src))
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "package a\n\nfunc f() {\n\tx := 1\n\t_ = x\n}\n", string(c.NewText))
	assert.LessOrEqual(t, c.Iterations, 2)
}

func TestCleanLocalWithUnusedDirective(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	o := options.Enable(options.RemoveUnusedLocal, options.RemoveUnnecessarySuppression)

	src := "package a\n\nfunc f() {\n\tx := 1 //nolint:type-error\n}\n"
	report, err := e.Run(context.Background(), o, MemorySource{"a.go": testUnit(src)}, []string{"a.go"})
	require.NoError(t, err)
	require.Empty(t, report.Failures)
	require.NotNil(t, report.Changes[0])

	c := report.Changes[0]
	assert.Equal(t, "package a\n\nfunc f() {\n}\n", string(c.NewText))
	assert.Len(t, c.Passes, 2)
	assert.False(t, c.Capped)
	assert.Equal(t, []string{"Remove unnecessary //nolint directives", "Remove unused local variables"}, c.Steps)
}

func TestCleanLogsRequestedDiagnostics(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.DebugLevel)
	e := newTestEngine(t, WithLogger(zap.New(core)))
	o := options.Enable(options.RemoveUnusedLocal, options.RemoveUnnecessarySuppression)

	_, err := e.Clean(context.Background(), e.NewSession(o), testUnit("package a\n"))
	require.NoError(t, err)

	entries := logs.FilterMessage("cleaning unit").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a.go", entries[0].ContextMap()["unit"])
	assert.Equal(t, int64(2), entries[0].ContextMap()["rules"])
	assert.Equal(t,
		[]tt.Category{tt.CategoryUnusedSuppression, tt.CategoryUnusedVariable},
		entries[0].ContextMap()["diagnostics"])
}

func TestCleanIterationCap(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	e := newTestEngine(t, WithMaxIterations(1), WithMetrics(m))
	o := options.Enable(options.RemoveUnusedLocal)

	src := "package a\n\nfunc f() {\n\ty := 2\n\tx := y\n}\n"
	c, err := e.Clean(context.Background(), e.NewSession(o), testUnit(src))
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.True(t, c.Capped)
	assert.Equal(t, "package a\n\nfunc f() {\n\ty := 2\n}\n", string(c.NewText))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CappedTotal))
}

func TestCleanRulePanic(t *testing.T) {
	t.Parallel()
	reg := rule.NewRegistry()
	reg.MustRegister(rules.NewSimplifyCompositeLiteral(), &stubRule{name: "explode", panic: true})
	m := metrics.New(prometheus.NewRegistry())
	e := newTestEngine(t, WithRegistry(reg), WithMetrics(m))
	o := options.Enable(options.SimplifyCompositeLiteral, "explode")

	c, err := e.Clean(context.Background(), e.NewSession(o), testUnit("package a\n\nvar a = []T{T{1}}\n"))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "package a\n\nvar a = []T{{1}}\n", string(c.NewText))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleFailuresTotal.WithLabelValues("explode")))
}

func TestRunCompositionError(t *testing.T) {
	t.Parallel()
	reg := rule.NewRegistry()
	reg.MustRegister(&stubRule{name: "first", text: "package b"}, &stubRule{name: "second", text: "package c"})
	e := newTestEngine(t, WithRegistry(reg))
	o := options.Enable("first", "second")

	src := MemorySource{"a.go": testUnit("package a\n")}
	report, err := e.Run(context.Background(), o, src, []string{"a.go"})
	require.NoError(t, err)

	assert.Nil(t, report.Changes[0])
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], fixer.ErrComposition)
	assert.Equal(t, 1, strings.Count(report.Failures[0].Error(), "a.go"))
}

func TestRunDeduplicatesIdenticalEdits(t *testing.T) {
	t.Parallel()
	reg := rule.NewRegistry()
	reg.MustRegister(&stubRule{name: "first", text: "package b"}, &stubRule{name: "second", text: "package b"})
	e := newTestEngine(t, WithRegistry(reg))
	o := options.Enable("first", "second")

	c, err := e.Clean(context.Background(), e.NewSession(o), testUnit("package a\n"))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "package b\n", string(c.NewText))
	assert.Len(t, c.Passes[0].Operations, 1)
	assert.Equal(t, []string{"stub first", "stub second"}, c.Steps)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := MemorySource{"a.go": testUnit("package a\n\nvar a = []T{T{1}}\n")}
	report, err := e.Run(ctx, options.Defaults(), src, []string{"a.go"})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, report)
}

func TestRunFatalPrecondition(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithMaxIterations(0))

	report, err := e.Run(context.Background(), options.Defaults(), MemorySource{}, nil)
	require.ErrorIs(t, err, ErrFatalRun)
	require.NotNil(t, report)
	assert.True(t, report.Status.HasFatal())
}

func TestCheckPreconditionsWarnings(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	st := e.CheckPreconditions(options.New(map[string]string{"bogus": "true"}))
	assert.False(t, st.HasFatal())
	assert.NoError(t, st.Err())
	assert.Equal(t, []string{`unknown option "bogus" is ignored`, "no rule is enabled"}, st.Warnings())
}

func TestRunUsesResultCache(t *testing.T) {
	t.Parallel()
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	e := newTestEngine(t, WithCache(cache), WithMetrics(m))
	o := options.Defaults()

	src := MemorySource{"a.go": testUnit("package a\n\nfunc f() {}\n")}
	for i := 0; i < 2; i++ {
		report, err := e.Run(context.Background(), o, src, []string{"a.go"})
		require.NoError(t, err)
		assert.Empty(t, report.Changed())
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitsTotal.WithLabelValues(metrics.OutcomeUnchanged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitsTotal.WithLabelValues(metrics.OutcomeCached)))
}

func TestCleanFormatSource(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	o := options.Enable(options.FormatSource)

	c, err := e.Clean(context.Background(), e.NewSession(o), testUnit("package a\nfunc f(){}\n"))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "package a\n\nfunc f() {}\n", string(c.NewText))
	assert.Equal(t, []string{"Format source"}, c.Steps)
}

func TestPreviewDependsOnReadKeysOnly(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	a := options.Enable(options.SimplifyCompositeLiteral)
	b := a.With("unrelated", "true")

	assert.Equal(t, e.Preview(a), e.Preview(b))
	assert.NotEqual(t, e.Preview(a), e.Preview(a.With(options.SimplifyCompositeLiteralPointers, "true")))
	assert.Empty(t, e.Preview(options.Options{}))
}

func TestMinimalEdit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		old, updated string
		want         tt.Range
		text         string
	}{
		{"abc", "abc", tt.Range{Start: 3, End: 3}, ""},
		{"abc", "abXc", tt.Range{Start: 2, End: 2}, "X"},
		{"abcd", "ad", tt.Range{Start: 1, End: 3}, ""},
		{"aaa", "aa", tt.Range{Start: 2, End: 3}, ""},
	}
	for _, tc := range tests {
		op := minimalEdit([]byte(tc.old), []byte(tc.updated), "l")
		assert.Equal(t, tc.want, op.Range, "%q -> %q", tc.old, tc.updated)
		assert.Equal(t, tc.text, op.NewText)
	}
}
