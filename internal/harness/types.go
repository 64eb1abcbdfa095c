package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/optharness/internal/invoke"
)

// State is a step of the run state machine.
type State int

const (
	StateIdle State = iota
	StateDiscovering
	StateInvoking
	StateStressing
	StateReporting
	StateDone
)

var stateNames = [...]string{"idle", "discovering", "invoking", "stressing", "reporting", "done"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// transitions lists the legal successors of each state.
var transitions = map[State][]State{
	StateIdle:        {StateDiscovering},
	StateDiscovering: {StateInvoking, StateDone},
	StateInvoking:    {StateStressing, StateReporting},
	StateStressing:   {StateReporting},
	StateReporting:   {StateInvoking, StateDone},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EventKind names an entry of the run event log.
type EventKind string

const (
	EventDiscovered    EventKind = "discovered"
	EventStressStarted EventKind = "stress_started"
	EventInvokeBegin   EventKind = "invoke_begin"
	EventInvokeEnd     EventKind = "invoke_end"
	EventStressExited  EventKind = "stress_exited"
	EventStressJoined  EventKind = "stress_joined"
	EventReported      EventKind = "reported"
	EventDiagnosed     EventKind = "diagnosed"
)

// Event is one stamped step of a run.
type Event struct {
	Seq  int64     `json:"seq"`
	Kind EventKind `json:"kind"`
	Test string    `json:"test,omitempty"`
}

// Record is the result of one test.
type Record struct {
	Seq          int64
	Suite        string
	Test         string
	Outcome      invoke.Outcome
	Stressed     bool
	StressRounds int64
	Duration     time.Duration
}

// Reported reports whether the record produced a result line (as opposed
// to a diagnostic).
func (r Record) Reported() bool {
	return !invoke.IsHarnessError(r.Outcome)
}

// Diagnostic is a harness-internal failure, logged instead of reported.
type Diagnostic struct {
	Seq     int64
	Test    string
	Kind    invoke.FailureKind
	Message string
}

// RunInfo identifies a run to observers before any test executes.
type RunInfo struct {
	RunID     string
	Suite     string
	Selector  string
	StartedAt time.Time
}

// RunResult is everything a finished run observed.
type RunResult struct {
	RunID       string
	Suite       string
	StartedAt   time.Time
	Duration    time.Duration
	Records     []Record
	Diagnostics []Diagnostic
	Events      []Event
}

// Counts tallies records by category: successes, test failures and
// harness-internal failures.
func (r *RunResult) Counts() (passed, failed, harnessErrors int) {
	for _, rec := range r.Records {
		switch o := rec.Outcome.(type) {
		case invoke.Success:
			passed++
		case invoke.Failure:
			if o.Kind == invoke.InvocationFailure {
				failed++
			} else {
				harnessErrors++
			}
		}
	}
	return passed, failed, harnessErrors
}

// StressRounds sums the worker rounds of all stressed records.
func (r *RunResult) StressRounds() int64 {
	var total int64
	for _, rec := range r.Records {
		total += rec.StressRounds
	}
	return total
}

// Observer receives run progress. Implementations must not retain the
// RunResult beyond the call.
type Observer interface {
	RunStarted(ctx context.Context, info RunInfo) error
	RecordFinished(ctx context.Context, runID string, rec Record) error
	RunFinished(ctx context.Context, result *RunResult) error
}
