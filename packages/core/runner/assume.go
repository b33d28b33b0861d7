package runner

import (
	"errors"
	"fmt"
)

// ErrAssumption marks an invocation whose precondition did not hold. Such
// invocations are reported as skipped and never retried.
var ErrAssumption = errors.New("assumption failed")

// AssumptionError is returned by a body whose precondition did not hold.
type AssumptionError struct {
	Reason string
	Err    error
}

func (e *AssumptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assumption failed: %s: %v", e.Reason, e.Err)
	}
	return "assumption failed: " + e.Reason
}

func (e *AssumptionError) Unwrap() error { return e.Err }

func (e *AssumptionError) Is(target error) bool { return target == ErrAssumption }

// Assume returns an AssumptionError when cond is false.
func Assume(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return &AssumptionError{Reason: fmt.Sprintf(format, args...)}
}

// IsAssumption reports whether err is an assumption failure.
func IsAssumption(err error) bool {
	return errors.Is(err, ErrAssumption)
}
