package invoke

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/ir"
)

// Cause categories reported for runtime faults.
const (
	ClassArithmetic  = "ArithmeticException"
	ClassIndex       = "ArrayIndexOutOfBoundsException"
	ClassNilPointer  = "NullPointerException"
	ClassRuntime     = "RuntimeException"
	ClassTypeAssert  = "ClassCastException"
	ClassNegativeLen = "NegativeArraySizeException"
)

// Classify names the category of a test fault.
//
// A *ir.Fault anywhere in the chain names itself. Runtime panics are mapped
// by their message; anything else is a generic runtime fault.
func Classify(err error) string {
	var fault *ir.Fault
	if errors.As(err, &fault) {
		return fault.Class
	}

	var rtErr runtime.Error
	if errors.As(err, &rtErr) {
		msg := rtErr.Error()
		switch {
		case strings.Contains(msg, "divide by zero"):
			return ClassArithmetic
		case strings.Contains(msg, "index out of range"),
			strings.Contains(msg, "slice bounds out of range"):
			return ClassIndex
		case strings.Contains(msg, "nil pointer dereference"),
			strings.Contains(msg, "nil map"):
			return ClassNilPointer
		case strings.Contains(msg, "interface conversion"):
			return ClassTypeAssert
		case strings.Contains(msg, "makeslice: len out of range"):
			return ClassNegativeLen
		}
	}
	return ClassRuntime
}

// panicError turns a recovered panic into an error carrying the stack at
// the point of recovery, which still includes the panicking frames.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return pkgerrors.WithStack(err)
	}
	return pkgerrors.WithStack(&ir.Fault{Class: ClassRuntime, Message: fmt.Sprint(r)})
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// innermostStack returns the deepest stack trace recorded in err's chain.
func innermostStack(err error) pkgerrors.StackTrace {
	var st pkgerrors.StackTrace
	for e := err; e != nil; e = errors.Unwrap(e) {
		if tracer, ok := e.(stackTracer); ok {
			st = tracer.StackTrace()
		}
	}
	return st
}

var (
	invokePackage  = reflect.TypeOf(Invoker{}).PkgPath()
	catalogPackage = reflect.TypeOf(catalog.Descriptor{}).PkgPath()
	irPackage      = reflect.TypeOf(ir.Fault{}).PkgPath()
)

// frames extracts at most limit call locations of the test body, innermost
// first.
//
// Leading frames that belong to the runtime, to this package's recovery path
// or to ir.Throw are skipped. Every runtime.gopanic frame restarts collection,
// so a fault that was recovered and panicked again is reported from the
// function that first failed. Collection stops at the dispatch boundary
// (this package or the catalog adapters), so frames never leak harness
// internals.
func frames(st pkgerrors.StackTrace, limit int) []string {
	out := make([]string, 0, limit)
	if len(st) == 0 {
		return out
	}
	pcs := make([]uintptr, len(st))
	for i, f := range st {
		pcs[i] = uintptr(f)
	}

	started := false
	iter := runtime.CallersFrames(pcs)
	for more := true; more; {
		var frame runtime.Frame
		frame, more = iter.Next()
		pkg := packageOf(frame.Function)

		switch {
		case frame.Function == "runtime.gopanic":
			out, started = out[:0], false
		case pkg == invokePackage || pkg == catalogPackage:
			if started {
				return out
			}
		case pkg == "runtime" || frame.Function == "" || strings.HasSuffix(frame.Function, "-fm"):
		case !started && pkg == irPackage:
		default:
			started = true
			if len(out) < limit {
				out = append(out, fmt.Sprintf("%s(%s:%d)", shortName(frame.Function), baseName(frame.File), frame.Line))
			}
		}
	}
	return out
}

// packageOf returns the import path of a fully qualified function name,
// e.g. "example.com/x/invoke.call.func1" -> "example.com/x/invoke".
func packageOf(name string) string {
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	if dot < 0 {
		return name
	}
	return name[:slash+1+dot]
}

// shortName drops the import path but keeps the package name.
func shortName(name string) string {
	return name[strings.LastIndex(name, "/")+1:]
}

func baseName(file string) string {
	return file[strings.LastIndex(file, "/")+1:]
}
