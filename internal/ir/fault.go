package ir

import (
	"fmt"

	"github.com/pkg/errors"
)

// Fault is an error raised deliberately by a test body. Class names the
// category reported on the first diagnostic line of a failed test, e.g.
// "ArithmeticException".
type Fault struct {
	Class   string
	Message string
}

func (f *Fault) Error() string {
	if f.Message == "" {
		return f.Class
	}
	return fmt.Sprintf("%s: %s", f.Class, f.Message)
}

// Throw returns a Fault carrying the caller's stack, for test bodies that
// fail without a runtime panic.
func Throw(class, format string, args ...any) error {
	return errors.WithStack(&Fault{Class: class, Message: fmt.Sprintf(format, args...)})
}
