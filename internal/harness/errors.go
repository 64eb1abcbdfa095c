package harness

import (
	"errors"
	"fmt"
)

// RunErrorCode categorizes errors that stop a run.
type RunErrorCode string

const (
	// ErrCodeInvalidConfig: the run configuration is unusable (no registry,
	// unknown stress test). Detected before discovery.
	ErrCodeInvalidConfig RunErrorCode = "INVALID_CONFIG"

	// ErrCodeOutput: the result writer failed.
	ErrCodeOutput RunErrorCode = "OUTPUT_FAILED"

	// ErrCodeInvalidTransition: the run state machine was driven out of
	// order. Indicates a harness bug.
	ErrCodeInvalidTransition RunErrorCode = "INVALID_TRANSITION"

	// ErrCodeCanceled: the context was cancelled between tests.
	ErrCodeCanceled RunErrorCode = "CANCELED"
)

// RunError is returned by Run when a run cannot complete.
type RunError struct {
	Code    RunErrorCode
	Suite   string
	Test    string
	Message string
	Err     error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Test != "" {
		msg = fmt.Sprintf("%s (suite=%s, test=%s)", msg, e.Suite, e.Test)
	} else if e.Suite != "" {
		msg = fmt.Sprintf("%s (suite=%s)", msg, e.Suite)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a configuration RunError.
func IsConfigError(err error) bool {
	var re *RunError
	return errors.As(err, &re) && re.Code == ErrCodeInvalidConfig
}

// IsOutputError reports whether err is an output RunError.
func IsOutputError(err error) bool {
	var re *RunError
	return errors.As(err, &re) && re.Code == ErrCodeOutput
}
