package vm

import (
	"fmt"

	"github.com/pkg/errors"
)

// runtimeError is the internal panic payload a running process raises to
// unwind out of step() on a trapped condition (§7 Runtime errors): division
// by zero, type mismatches, arity mismatches, stack over/underflow, an
// undefined global, or calling a non-callable value.
type runtimeError struct {
	msg string
}

func (e runtimeError) Error() string { return e.msg }

// RuntimeError is what a process's step reports outward once wrapped with
// the offending process and source line (§7: "runtime errors carry the
// source line of the failing instruction").
type RuntimeError struct {
	ProcessID   uint32
	ProcessName string
	Line        int
	Cause       error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("process %d (%s) line %d: %v", e.ProcessID, e.ProcessName, e.Line, e.Cause)
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// wrapRuntimeError gives the raw panic payload a real cause chain: the
// trapped condition itself (re.msg) wrapped with the process that trapped
// it, so internal/diag's errors.Cause unwind recovers the bare message while
// RuntimeError.Error's %v sees the full "process ... crashed: msg" chain.
func (p *Process) wrapRuntimeError(re runtimeError, line int) *RuntimeError {
	cause := errors.Wrapf(errors.New(re.msg), "process %d (%s) crashed", p.id, p.name)
	return &RuntimeError{
		ProcessID:   p.id,
		ProcessName: p.name,
		Line:        line,
		Cause:       cause,
	}
}
