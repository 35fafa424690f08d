package internal

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/tclean/internal/compile"
	"github.com/gnolang/tclean/internal/fixer"
	"github.com/gnolang/tclean/internal/metrics"
	"github.com/gnolang/tclean/internal/options"
	"github.com/gnolang/tclean/internal/rule"
	"github.com/gnolang/tclean/internal/rules"
	tt "github.com/gnolang/tclean/internal/types"
)

// DefaultMaxIterations bounds the fixed-point loop of one unit.
const DefaultMaxIterations = 3

// Engine drives the clean-up pipeline: it aggregates the requirements of the
// enabled rules, compiles each unit accordingly, runs the rules, composes
// their operations and repeats while a rule asks for another pass.
type Engine struct {
	registry      *rule.Registry
	compiler      *compile.Compiler
	cache         *Cache
	metrics       *metrics.Metrics
	logger        *zap.Logger
	maxIterations int
	jobs          int
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithRegistry(r *rule.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

func WithCompiler(c *compile.Compiler) Option {
	return func(e *Engine) { e.compiler = c }
}

// WithCache makes Run skip units recorded as stable under the same options.
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithMaxIterations(n int) Option {
	return func(e *Engine) { e.maxIterations = n }
}

// WithJobs sets how many units Run processes in parallel. Zero selects
// GOMAXPROCS.
func WithJobs(n int) Option {
	return func(e *Engine) {
		if n == 0 {
			n = runtime.GOMAXPROCS(0)
		}
		e.jobs = n
	}
}

// NewEngine creates an engine running the built-in rules unless a registry
// is given.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		maxIterations: DefaultMaxIterations,
		jobs:          runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.registry == nil {
		e.registry = rules.Default()
	}
	if e.compiler == nil {
		c, err := compile.New(compile.DefaultCacheSize, e.logger)
		if err != nil {
			return nil, fmt.Errorf("creating compiler: %w", err)
		}
		e.compiler = c
	}
	return e, nil
}

func (e *Engine) Registry() *rule.Registry { return e.registry }

// NewSession starts a run over o.
func (e *Engine) NewSession(o options.Options) *rule.Session {
	id := uuid.NewString()
	return &rule.Session{
		ID:      id,
		Options: o,
		Logger:  e.logger.With(zap.String("session", id)),
	}
}

// Requirements returns what the rules enabled in o need from the front-end.
func (e *Engine) Requirements(o options.Options) rule.Requirements {
	return rule.Aggregate(e.registry.Enabled(o), o)
}

// Preview renders the before/after sample of every rule enabled in o, in
// registration order.
func (e *Engine) Preview(o options.Options) string {
	var parts []string
	for _, r := range e.registry.Enabled(o) {
		if p := r.Preview(o); p != "" {
			parts = append(parts, "# "+r.Name()+"\n"+p)
		}
	}
	return strings.Join(parts, "\n")
}

// CheckPreconditions validates the engine settings and o before a run.
func (e *Engine) CheckPreconditions(o options.Options) *Status {
	st := &Status{}
	if e.maxIterations < 1 {
		st.Fatal("max-iterations must be at least 1, got %d", e.maxIterations)
	}
	if e.jobs < 1 {
		st.Fatal("jobs must be at least 1, got %d", e.jobs)
	}
	for _, k := range options.Unknown(o.Map()) {
		st.Warn("unknown option %q is ignored", k)
	}
	if len(e.registry.Enabled(o)) == 0 && !o.Enabled(options.FormatSource) {
		st.Warn("no rule is enabled")
	}
	return st
}

// Clean runs the fixed-point loop on one unit. It returns nil when nothing
// changed. On error no partial change is returned.
func (e *Engine) Clean(ctx context.Context, s *rule.Session, unit tt.Unit) (*Change, error) {
	o := s.Options
	active := e.registry.Enabled(o)
	req := rule.Aggregate(active, o)
	format := o.Enabled(options.FormatSource)
	if !req.NeedsTree && !format {
		return nil, nil
	}

	logger := s.Logger
	if logger == nil {
		logger = e.logger
	}
	logger = logger.With(zap.String("unit", unit.Path))
	logger.Debug("cleaning unit",
		zap.Int("rules", len(active)),
		zap.Any("diagnostics", req.Categories()))

	change := &Change{Unit: unit}
	text := unit.Text
	if req.NeedsTree {
		for iter := 1; iter <= e.maxIterations; iter++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			current := unit
			current.Text = text
			fix, err := e.pass(ctx, s, logger, current, active, req, iter)
			if err != nil {
				return nil, err
			}
			change.Iterations = iter
			if fix == nil {
				break
			}
			next, err := fix.Apply(text)
			if err != nil {
				return nil, err
			}
			text = next
			change.Passes = append(change.Passes, fix)
			if !req.NeedsSecondIteration {
				break
			}
			if iter == e.maxIterations {
				change.Capped = true
				logger.Warn("iteration cap reached, keeping changes so far",
					zap.Int("max_iterations", e.maxIterations))
			}
		}
		e.metrics.RecordIterations(change.Iterations, change.Capped)
	}

	if format {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		formatted, err := fixer.Format(unit.Path, text)
		switch {
		case err != nil:
			logger.Debug("skipping format", zap.Error(err))
		case string(formatted) != string(text):
			op := minimalEdit(text, formatted, "format")
			op.Rule = string(options.FormatSource)
			change.Passes = append(change.Passes, &fixer.Fix{
				Unit:       unit.Path,
				Operations: []fixer.Operation{op},
				Steps:      []string{"Format source"},
				Label:      "format " + unit.Path,
			})
			text = formatted
		}
	}

	if len(change.Passes) == 0 {
		return nil, nil
	}
	change.NewText = text
	change.Steps = collectSteps(change.Passes)
	return change, nil
}

// pass compiles unit once and runs every active rule on it.
func (e *Engine) pass(
	ctx context.Context,
	s *rule.Session,
	logger *zap.Logger,
	unit tt.Unit,
	active []rule.Rule,
	req rule.Requirements,
	iter int,
) (*fixer.Fix, error) {
	res, err := e.compiler.Compile(ctx, unit, compile.Request{
		Fresh:       req.NeedsFreshTree,
		Diagnostics: req.Diagnostics,
	})
	if err != nil {
		return nil, err
	}
	e.metrics.RecordCompile(res.Cached)
	if res.ParseErr != nil {
		logger.Debug("unit does not parse", zap.Int("iteration", iter), zap.Error(res.ParseErr))
	}

	p := &rule.Pass{
		Session:              s,
		Unit:                 unit,
		Text:                 unit.Text,
		Fset:                 res.Fset,
		File:                 res.File,
		Diagnostics:          res.Diagnostics,
		DiagnosticsAvailable: res.DiagnosticsAvailable,
		Iteration:            iter,
	}

	var contributions []fixer.RuleOperations
	for _, r := range active {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := rule.Run(r, p)
		if err != nil {
			logger.Error("rule failed",
				zap.String("rule", r.Name()),
				zap.Int("iteration", iter),
				zap.Error(err))
			e.metrics.RecordRuleFailure(r.Name())
			continue
		}
		if result.Kind != rule.KindChanges {
			continue
		}
		e.metrics.RecordOperations(r.Name(), len(result.Operations))
		contributions = append(contributions, fixer.RuleOperations{
			Rule:       r.Name(),
			Step:       result.Step,
			Operations: result.Operations,
		})
	}

	fix, err := fixer.Compose(unit.Path, contributions)
	if err != nil {
		e.metrics.RecordCompositionError()
		return nil, err
	}
	return fix, nil
}

// Report is the outcome of Run. Changes is indexed like the ids passed to
// Run; a nil entry means the unit was left as is.
type Report struct {
	Changes  []*Change
	Failures []*UnitError
	Status   *Status
}

// Changed returns the non-nil changes in input order.
func (r *Report) Changed() []*Change {
	var out []*Change
	for _, c := range r.Changes {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Run cleans every unit of src named by ids. Units are independent and are
// processed in parallel; a failing unit is logged and skipped. Run returns
// an error only when the run as a whole cannot proceed: a fatal status or
// cancellation of ctx.
func (e *Engine) Run(ctx context.Context, o options.Options, src Source, ids []string) (*Report, error) {
	st := e.CheckPreconditions(o)
	for _, w := range st.Warnings() {
		e.logger.Warn(w)
	}
	if err := st.Err(); err != nil {
		return &Report{Status: st}, err
	}

	s := e.NewSession(o)
	fingerprint := e.Fingerprint(o)
	changes := make([]*Change, len(ids))
	failures := make([]*UnitError, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)
	for i, id := range ids {
		g.Go(func() error {
			start := time.Now()
			c, outcome, err := e.cleanOne(gctx, s, src, id, fingerprint)
			e.metrics.RecordUnit(outcome, time.Since(start))
			if err == nil {
				changes[i] = c
				return nil
			}
			var ue *UnitError
			if errors.As(err, &ue) {
				s.Logger.Error("skipping unit", zap.String("unit", id), zap.Error(err))
				failures[i] = ue
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Save(); err != nil {
			st.Warn("saving result cache: %v", err)
			e.logger.Warn("saving result cache", zap.Error(err))
		}
	}

	r := &Report{Changes: changes, Status: st}
	for _, f := range failures {
		if f != nil {
			r.Failures = append(r.Failures, f)
		}
	}
	return r, nil
}

// cleanOne loads and cleans one unit. Every error other than cancellation
// is returned as a *UnitError.
func (e *Engine) cleanOne(ctx context.Context, s *rule.Session, src Source, id, fingerprint string) (*Change, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, metrics.OutcomeCancelled, err
	}
	unit, err := src.Load(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, metrics.OutcomeCancelled, ctx.Err()
		}
		return nil, metrics.OutcomeFailed, &UnitError{ID: id, Err: fmt.Errorf("%w: %w", ErrModelAccess, err)}
	}
	if e.cache != nil && e.cache.Stable(unit, fingerprint) {
		return nil, metrics.OutcomeCached, nil
	}

	c, err := e.Clean(ctx, s, unit)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil, metrics.OutcomeCancelled, ctx.Err()
	default:
		return nil, metrics.OutcomeFailed, &UnitError{ID: id, Err: err}
	}

	if c == nil {
		if e.cache != nil {
			e.cache.MarkStable(unit, fingerprint)
		}
		return nil, metrics.OutcomeUnchanged, nil
	}
	return c, metrics.OutcomeChanged, nil
}

// Fingerprint identifies the options that affect the outcome of a run.
func (e *Engine) Fingerprint(o options.Options) string {
	keys := append(e.registry.Keys(), options.FormatSource)
	return fmt.Sprintf("v%d:%d:%s", options.CatalogVersion, e.maxIterations, o.Fingerprint(keys...))
}

func collectSteps(passes []*fixer.Fix) []string {
	var steps []string
	seen := make(map[string]bool)
	for _, f := range passes {
		for _, s := range f.Steps {
			if !seen[s] {
				seen[s] = true
				steps = append(steps, s)
			}
		}
	}
	return steps
}
