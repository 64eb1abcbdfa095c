package invoke

import (
	"fmt"

	"github.com/roach88/optharness/internal/ir"
)

// FailureKind classifies where a failed invocation went wrong.
type FailureKind int

const (
	// AccessDenied: the test exists but may not be called, or is unknown to
	// the registry the descriptor came from. A harness bug.
	AccessDenied FailureKind = iota + 1

	// InvalidArgument: the bound arguments do not match the declared
	// parameters. A harness bug.
	InvalidArgument

	// InvocationFailure: the test body itself raised a fault. This is the
	// expected, reportable case.
	InvocationFailure
)

func (k FailureKind) String() string {
	switch k {
	case AccessDenied:
		return "AccessDenied"
	case InvalidArgument:
		return "InvalidArgument"
	case InvocationFailure:
		return "InvocationFailure"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// ParseFailureKind is the inverse of FailureKind.String.
func ParseFailureKind(name string) (FailureKind, error) {
	for _, k := range []FailureKind{AccessDenied, InvalidArgument, InvocationFailure} {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown failure kind %q", name)
}

// MaxFrames bounds ErrorInfo.Frames.
const MaxFrames = 2

// ErrorInfo describes the cause of a failure.
type ErrorInfo struct {
	// CauseClass is the category name of the underlying fault.
	CauseClass string

	// Frames holds at most MaxFrames call locations, innermost first.
	Frames []string

	// Message is the full error text. It is logged for harness-internal
	// failures and never printed on result lines.
	Message string
}

// Outcome is the classified result of one invocation: exactly one of
// Success or Failure.
type Outcome interface {
	outcome()
}

// Success carries the value the test returned.
type Success struct {
	Value ir.Value
}

// Failure carries the failure category and its cause.
type Failure struct {
	Kind  FailureKind
	Cause ErrorInfo
}

func (Success) outcome() {}
func (Failure) outcome() {}

// IsHarnessError reports whether o is a harness-internal failure, which
// belongs on the diagnostic channel rather than on a result line.
func IsHarnessError(o Outcome) bool {
	f, ok := o.(Failure)
	return ok && (f.Kind == AccessDenied || f.Kind == InvalidArgument)
}

// Label names the outcome for metrics, storage and JSON output:
// "success", or the failure kind.
func Label(o Outcome) string {
	switch v := o.(type) {
	case Success:
		return "success"
	case Failure:
		return v.Kind.String()
	default:
		return "unknown"
	}
}

// Canonical returns the outcome as a canonical-JSON-ready map. Failure
// messages and frames are omitted: they carry file locations and wording
// that may change without the observable outcome changing.
func Canonical(o Outcome) map[string]any {
	switch v := o.(type) {
	case Success:
		value := v.Value
		if value == nil {
			value = ir.Null{}
		}
		return map[string]any{"outcome": "success", "value": value}
	case Failure:
		return map[string]any{
			"outcome": v.Kind.String(),
			"cause":   v.Cause.CauseClass,
		}
	default:
		return map[string]any{"outcome": "unknown"}
	}
}

// Digest returns the content digest of an outcome. Equal digests mean the
// observable outcome is the same.
func Digest(o Outcome) (string, error) {
	return ir.Digest(ir.DomainOutcome, Canonical(o))
}
