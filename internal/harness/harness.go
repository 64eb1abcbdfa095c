package harness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/invoke"
	"github.com/roach88/optharness/internal/ir"
	"github.com/roach88/optharness/internal/report"
	"github.com/roach88/optharness/internal/stress"
)

// Config describes one run over one suite.
type Config struct {
	// Suite names the run in records, logs and history.
	Suite string

	// Registry holds the suite's tests. Required.
	Registry *catalog.Registry

	// Selector and Comparator drive discovery. nil means all tests,
	// case-sensitive.
	Selector   catalog.Selector
	Comparator catalog.Comparator

	// Args are bound to every invoked test.
	Args []ir.Value

	// StressTest names the test paired with a stress worker. Empty means no
	// test is stressed.
	StressTest string

	// Stress configures the paired worker.
	Stress stress.Options
}

// Options carries the collaborators of a Harness.
type Options struct {
	Reporter  *report.Reporter
	Logger    *slog.Logger
	Clock     SeqSource
	RunIDs    RunIDGenerator
	Observers []Observer

	// Now stamps run start times. Defaults to time.Now.
	Now func() time.Time
}

// Harness executes runs. It keeps no state between runs.
type Harness struct {
	reporter  *report.Reporter
	logger    *slog.Logger
	clock     SeqSource
	runIDs    RunIDGenerator
	observers []Observer
	now       func() time.Time
}

// New creates a Harness. A Reporter is required; the other options have
// defaults.
func New(opts Options) *Harness {
	h := &Harness{
		reporter:  opts.Reporter,
		logger:    opts.Logger,
		clock:     opts.Clock,
		runIDs:    opts.RunIDs,
		observers: opts.Observers,
		now:       opts.Now,
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	if h.clock == nil {
		h.clock = NewClock()
	}
	if h.runIDs == nil {
		h.runIDs = UUIDv7Generator{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// run is the state of a single Run call.
type run struct {
	h       *Harness
	cfg     Config
	invoker *invoke.Invoker
	logger  *slog.Logger
	state   State
	result  *RunResult

	mu sync.Mutex // guards result.Events; the stress worker appends too
}

// Run discovers and executes every eligible test of cfg's suite.
//
// Every discovered test is processed exactly once, in discovery order.
// Test failures and harness-internal failures are data in the returned
// result. An error means the run could not start, the context was
// cancelled, or output could not be written.
func (h *Harness) Run(ctx context.Context, cfg Config) (*RunResult, error) {
	if err := h.validate(cfg); err != nil {
		return nil, err
	}

	started := h.now()
	r := &run{
		h:       h,
		cfg:     cfg,
		invoker: invoke.New(cfg.Registry, h.logger),
		state:   StateIdle,
		result: &RunResult{
			RunID:       h.runIDs.Generate(),
			Suite:       cfg.Suite,
			StartedAt:   started,
			Records:     []Record{},
			Diagnostics: []Diagnostic{},
			Events:      []Event{},
		},
	}
	r.logger = h.logger.With("suite", cfg.Suite, "run_id", r.result.RunID)

	if err := r.execute(ctx); err != nil {
		return nil, err
	}
	r.result.Duration = h.now().Sub(started)

	for _, obs := range h.observers {
		if err := obs.RunFinished(ctx, r.result); err != nil {
			r.logger.Warn("observer failed", "stage", "run_finished", "error", err)
		}
	}
	return r.result, nil
}

func (h *Harness) validate(cfg Config) error {
	if h.reporter == nil {
		return &RunError{Code: ErrCodeInvalidConfig, Suite: cfg.Suite, Message: "reporter is required"}
	}
	if cfg.Registry == nil {
		return &RunError{Code: ErrCodeInvalidConfig, Suite: cfg.Suite, Message: "registry is required"}
	}
	if cfg.StressTest != "" {
		if _, ok := cfg.Registry.Lookup(cfg.StressTest); !ok {
			return &RunError{
				Code:    ErrCodeInvalidConfig,
				Suite:   cfg.Suite,
				Message: fmt.Sprintf("stress test %q is not registered", cfg.StressTest),
			}
		}
	}
	return nil
}

func (r *run) execute(ctx context.Context) error {
	if err := r.transition(StateDiscovering); err != nil {
		return err
	}
	descs := r.cfg.Registry.Discover(catalog.DiscoverOptions{
		Selector:   r.cfg.Selector,
		Comparator: r.cfg.Comparator,
	})
	r.stamp(EventDiscovered, "")
	r.logger.Debug("discovered tests", "count", len(descs), "selector", selectorName(r.cfg.Selector))

	info := RunInfo{
		RunID:     r.result.RunID,
		Suite:     r.cfg.Suite,
		Selector:  selectorName(r.cfg.Selector),
		StartedAt: r.result.StartedAt,
	}
	for _, obs := range r.h.observers {
		if err := obs.RunStarted(ctx, info); err != nil {
			r.logger.Warn("observer failed", "stage", "run_started", "error", err)
		}
	}

	for _, desc := range descs {
		if err := ctx.Err(); err != nil {
			return &RunError{Code: ErrCodeCanceled, Suite: r.cfg.Suite, Test: desc.Name, Message: "run cancelled", Err: err}
		}
		if err := r.runTest(ctx, desc); err != nil {
			return err
		}
	}

	return r.transition(StateDone)
}

// runTest carries one test through Invoking, optional Stressing and
// Reporting.
func (r *run) runTest(ctx context.Context, desc catalog.Descriptor) error {
	if err := r.transition(StateInvoking); err != nil {
		return err
	}

	stressed := desc.Name == r.cfg.StressTest
	var worker *stress.Handle
	if stressed {
		opts := r.cfg.Stress
		opts.OnExit = func(int64) { r.stamp(EventStressExited, desc.Name) }
		worker = stress.Start(ctx, opts)
		r.stamp(EventStressStarted, desc.Name)
	}

	begin := time.Now()
	r.stamp(EventInvokeBegin, desc.Name)
	outcome := r.invoker.Invoke(ctx, desc, r.cfg.Args)
	r.stamp(EventInvokeEnd, desc.Name)
	elapsed := time.Since(begin)

	var rounds int64
	if stressed {
		if err := r.transition(StateStressing); err != nil {
			return err
		}
		worker.Stop()
		if err := worker.Join(); err != nil {
			r.logger.Warn("stress worker ended with error", "test", desc.Name, "error", err)
		}
		rounds = worker.Rounds()
		r.stamp(EventStressJoined, desc.Name)
	}

	if err := r.transition(StateReporting); err != nil {
		return err
	}
	rec := Record{
		Suite:        r.cfg.Suite,
		Test:         desc.Name,
		Outcome:      outcome,
		Stressed:     stressed,
		StressRounds: rounds,
		Duration:     elapsed,
	}

	if err := r.h.reporter.Report(desc, outcome); err != nil {
		return &RunError{Code: ErrCodeOutput, Suite: r.cfg.Suite, Test: desc.Name, Message: "write result", Err: err}
	}
	if f, ok := outcome.(invoke.Failure); ok && invoke.IsHarnessError(outcome) {
		rec.Seq = r.stamp(EventDiagnosed, desc.Name)
		r.result.Diagnostics = append(r.result.Diagnostics, Diagnostic{
			Seq:     rec.Seq,
			Test:    desc.Name,
			Kind:    f.Kind,
			Message: f.Cause.Message,
		})
	} else {
		rec.Seq = r.stamp(EventReported, desc.Name)
	}
	r.result.Records = append(r.result.Records, rec)

	for _, obs := range r.h.observers {
		if err := obs.RecordFinished(ctx, r.result.RunID, rec); err != nil {
			r.logger.Warn("observer failed", "stage", "record_finished", "test", desc.Name, "error", err)
		}
	}
	return nil
}

func (r *run) transition(to State) error {
	if !CanTransition(r.state, to) {
		return &RunError{
			Code:    ErrCodeInvalidTransition,
			Suite:   r.cfg.Suite,
			Message: fmt.Sprintf("%s -> %s", r.state, to),
		}
	}
	r.state = to
	return nil
}

// stamp appends an event and returns its sequence number.
func (r *run) stamp(kind EventKind, test string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.h.clock.Next()
	r.result.Events = append(r.result.Events, Event{Seq: seq, Kind: kind, Test: test})
	return seq
}

func selectorName(sel catalog.Selector) string {
	if sel == nil {
		return catalog.All{}.String()
	}
	return sel.String()
}
