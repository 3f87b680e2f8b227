package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"smartcast/internal/binding"
	"smartcast/internal/checks"
	"smartcast/internal/diag"
	"smartcast/internal/facts"
	"smartcast/internal/observ"
	"smartcast/internal/smartcast"
	"smartcast/internal/source"
	"smartcast/internal/trace"
	"smartcast/internal/typeops"
	"smartcast/internal/unit"
)

// Options configures AnalyzeUnits.
type Options struct {
	Jobs           int // <= 0 means GOMAXPROCS
	MaxDiagnostics int // per unit, <= 0 means unlimited
	Markers        unit.MarkerNames
	Only           []string // checker names, empty means all
	Progress       ProgressSink
	Timings        bool   // append an ObsTimings diagnostic per unit
	BaseDir        string // for relative paths in diagnostics
}

// Result is the outcome of one unit. Unit is nil when loading failed; the
// failure is then the first diagnostic of Bag.
type Result struct {
	Path      string
	Unit      *unit.Unit
	Files     *source.FileSet
	Bag       *diag.Bag
	Casts     map[facts.ExprID]smartcast.Info
	Receivers map[facts.ExprID][]smartcast.ReceiverCast
	Timing    observ.Report
}

// Failed reports whether the unit could not be loaded.
func (r *Result) Failed() bool { return r.Unit == nil }

// AnalyzeUnits loads, checks and queries every unit in parallel. Results
// are returned in the order of paths. Unit-level problems become
// diagnostics; the returned error is reserved for cancellation and
// internal failures, and results may be partially filled when it is set.
func AnalyzeUnits(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "analyze", trace.ParentSpan(ctx))
	span.WithExtra("units", strconv.Itoa(len(paths)))
	ctx = trace.WithSpan(ctx, span)

	for _, p := range paths {
		emit(opts.Progress, Event{Unit: p, Stage: StageLoad, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			res, err := analyzeOne(gctx, path, opts)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		span.End("error")
		return results, err
	}
	span.End("")
	return results, nil
}

func analyzeOne(ctx context.Context, path string, opts Options) (Result, error) {
	ctx = trace.WithUnit(ctx, path)
	fs := source.NewFileSetWithBase(opts.BaseDir)
	res := Result{Path: path, Files: fs, Bag: diag.NewBag(opts.MaxDiagnostics)}
	if err := typeops.CheckCancel(ctx); err != nil {
		return res, err
	}

	timer := observ.NewTimer()
	total := timer.Begin("unit")
	finish := func() Result {
		timer.End(total, path)
		res.Timing = timer.Report()
		return res
	}

	u, err := runStage(ctx, opts.Progress, timer, path, StageLoad, func() (*unit.Unit, error) {
		return unit.Load(ctx, path, fs)
	})
	if err != nil {
		var ue *unit.Error
		if !errors.As(err, &ue) {
			return finish(), err
		}
		reportLoadError(res.Bag, fs, ue)
		return finish(), nil
	}
	res.Unit = u
	ctx = trace.WithEpoch(ctx, uint64(u.Epoch()))

	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})
	_, err = runStage(ctx, opts.Progress, timer, path, StageCheck, func() (struct{}, error) {
		return struct{}{}, checks.RunAll(ctx, u.CheckInput(), reporter, checks.Options{
			Markers: u.MarkerOptions(opts.Markers),
			Only:    opts.Only,
		})
	})
	if err != nil {
		return finish(), err
	}
	if n, byCode := reporter.Suppressed(); n > 0 {
		extra := make([]string, 0, 2*len(byCode))
		for code, c := range byCode {
			extra = append(extra, code.ID(), strconv.Itoa(c))
		}
		trace.PointCtx(ctx, trace.ScopeUnit, "dedup", strconv.Itoa(n)+" repeated diagnostics", extra...)
	}

	_, err = runStage(ctx, opts.Progress, timer, path, StageQuery, func() (struct{}, error) {
		return struct{}{}, queryUnit(ctx, u, &res)
	})
	if err != nil {
		return finish(), err
	}

	res.Bag.Sort()
	out := finish()
	if opts.Timings {
		appendTimingDiagnostic(out.Bag, u.File, path, out.Timing)
	}
	return out, nil
}

// runStage wraps fn with progress events and a timer phase.
func runStage[T any](ctx context.Context, sink ProgressSink, timer *observ.Timer, path string, stage Stage, fn func() (T, error)) (T, error) {
	emit(sink, Event{Unit: path, Stage: stage, Status: StatusWorking})
	idx := timer.Begin(string(stage))
	start := time.Now()
	span := trace.BeginCtx(ctx, trace.ScopeUnit, string(stage))

	out, err := fn()

	timer.End(idx, "")
	if err != nil {
		span.End("error")
		emit(sink, Event{Unit: path, Stage: stage, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return out, err
	}
	span.End("")
	emit(sink, Event{Unit: path, Stage: stage, Status: StatusDone, Elapsed: time.Since(start)})
	return out, nil
}

// queryUnit resolves every expression and receiver cast of u. Inconsistent
// facts become SemaInconsistentFacts diagnostics; other errors abort.
func queryUnit(ctx context.Context, u *unit.Unit, res *Result) error {
	eng := smartcast.New(u.Session)
	epoch := u.Epoch()
	r := diag.BagReporter{Bag: res.Bag}
	anchor := source.Span{File: u.File}

	casts, err := eng.QueryAll(ctx, epoch)
	if err != nil {
		if casts == nil {
			return err
		}
		if err := reportInvariants(r, anchor, err); err != nil {
			return err
		}
	}
	res.Casts = casts

	res.Receivers = make(map[facts.ExprID][]smartcast.ReceiverCast)
	for _, expr := range u.Snapshot.Store().Exprs() {
		if len(u.Snapshot.Receivers(expr)) == 0 {
			continue
		}
		rc, err := eng.QueryImplicitReceivers(ctx, expr, epoch)
		if err != nil {
			if err := reportInvariants(r, anchor, err); err != nil {
				return err
			}
			continue
		}
		if len(rc) > 0 {
			res.Receivers[expr] = rc
		}
	}
	return nil
}

// reportInvariants reports every *smartcast.InvariantError in err and
// returns whatever is left.
func reportInvariants(r diag.Reporter, anchor source.Span, err error) error {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	var rest []error
	for _, e := range errs {
		var inv *smartcast.InvariantError
		if !errors.As(e, &inv) {
			rest = append(rest, e)
			continue
		}
		diag.ReportError(r, diag.SemaInconsistentFacts, anchor).
			WithNote(anchor, inv.Error()).
			Emit()
	}
	return errors.Join(rest...)
}

func reportLoadError(bag *diag.Bag, fs *source.FileSet, ue *unit.Error) {
	file := fs.AddVirtual(ue.Path, nil)
	code := ue.Code
	if code == diag.UnknownCode {
		code = diag.ProjUnitInvalid
	}
	sp := source.Span{File: file}
	diag.ReportError(diag.BagReporter{Bag: bag}, code, sp).
		WithNote(sp, ue.Error()).
		Emit()
}

// IsAbort reports whether err stopped a run rather than describing a unit.
func IsAbort(err error) bool {
	return errors.Is(err, typeops.ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, binding.ErrStaleSnapshot)
}

// Summary aggregates counts over results.
type Summary struct {
	Units     int
	Failed    int
	Errors    int
	Warnings  int
	Casts     int
	Receivers int
	Dropped   int
}

// Summarize folds results into a Summary.
func Summarize(results []Result) Summary {
	var s Summary
	for i := range results {
		r := &results[i]
		s.Units++
		if r.Failed() {
			s.Failed++
		}
		if r.Bag != nil {
			for _, d := range r.Bag.Items() {
				switch d.Severity {
				case diag.SevError:
					s.Errors++
				case diag.SevWarning:
					s.Warnings++
				}
			}
			s.Dropped += r.Bag.Dropped()
		}
		s.Casts += len(r.Casts)
		for _, rc := range r.Receivers {
			s.Receivers += len(rc)
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d unit(s), %d failed: %d error(s), %d warning(s), %d cast(s), %d receiver cast(s)",
		s.Units, s.Failed, s.Errors, s.Warnings, s.Casts, s.Receivers)
}
