package invoke

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/ir"
)

// Invoker calls registered tests and turns whatever happens into an Outcome.
// Nothing a test does escapes Invoke: errors and panics become Failure values.
type Invoker struct {
	registry *catalog.Registry
	logger   *slog.Logger
}

// New creates an Invoker over registry. A nil logger discards debug output.
func New(registry *catalog.Registry, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Invoker{registry: registry, logger: logger}
}

// Invoke binds args to the test named by desc, runs it against a fresh
// instance and classifies the result.
//
// AccessDenied and InvalidArgument are returned before the test body runs;
// the body never sees a malformed call.
func (inv *Invoker) Invoke(ctx context.Context, desc catalog.Descriptor, args []ir.Value) Outcome {
	entry, ok := inv.registry.Lookup(desc.Name)
	if !ok {
		return harnessFailure(AccessDenied, "AccessDenied",
			fmt.Sprintf("test %s is not registered in group %s", desc.Name, inv.registry.Group()))
	}
	if entry.Descriptor.Visibility == catalog.Private {
		return harnessFailure(AccessDenied, "AccessDenied",
			fmt.Sprintf("test %s is not accessible", entry.Descriptor.Signature()))
	}
	if err := bind(entry.Descriptor, args); err != nil {
		return harnessFailure(InvalidArgument, "InvalidArgument", err.Error())
	}

	inv.logger.Debug("invoking test", "test", desc.Name, "args", len(args))

	value, err := call(ctx, entry.New(), args)
	if err != nil {
		info := ErrorInfo{
			CauseClass: Classify(err),
			Frames:     frames(innermostStack(err), MaxFrames),
			Message:    err.Error(),
		}
		inv.logger.Debug("test failed", "test", desc.Name, "cause", info.CauseClass, "frames", len(info.Frames))
		return Failure{Kind: InvocationFailure, Cause: info}
	}
	if value == nil {
		value = ir.Null{}
	}
	return Success{Value: value}
}

// bind checks args against the declared parameter kinds.
func bind(desc catalog.Descriptor, args []ir.Value) error {
	if len(args) != desc.Arity() {
		return fmt.Errorf("%s: expected %d argument(s), got %d", desc.Signature(), desc.Arity(), len(args))
	}
	for i, arg := range args {
		if arg == nil {
			return fmt.Errorf("%s: argument %d is nil", desc.Signature(), i)
		}
		if arg.Kind() != desc.Kinds[i] {
			return fmt.Errorf("%s: argument %d is %s, expected %s", desc.Signature(), i, arg.Kind(), desc.Kinds[i])
		}
	}
	return nil
}

// call runs the test body, recovering panics into errors that carry the
// stack of the panicking goroutine.
func call(ctx context.Context, test catalog.Invocable, args []ir.Value) (value ir.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = panicError(r)
		}
	}()
	return test.Run(ctx, args)
}

func harnessFailure(kind FailureKind, class, message string) Failure {
	return Failure{
		Kind:  kind,
		Cause: ErrorInfo{CauseClass: class, Frames: []string{}, Message: message},
	}
}
