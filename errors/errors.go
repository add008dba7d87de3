package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in the signal protocol the error occurred
type Phase string

const (
	PhaseAttach Phase = "attach" // export discovery and cell validation
	PhaseSignal Phase = "signal" // cell reads and writes
	PhaseAwait  Phase = "await"  // waiting for a request to be observed
	PhaseBuild  Phase = "build"  // guest module synthesis
)

// Kind categorizes the error
type Kind string

const (
	KindNoExport     Kind = "no_export"
	KindNoMemory     Kind = "no_memory"
	KindBadAddress   Kind = "bad_address"
	KindMemoryAccess Kind = "memory_access"
	KindCanceled     Kind = "canceled"
	KindLayout       Kind = "layout"
)

// Error is the structured error type used by the host and tooling packages.
// Guest-side check operations never produce it; their one error value is
// wasmsignal.Signal.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Export string
	Detail string
	Addr   uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Export != "" {
		b.WriteString(" on ")
		b.WriteString(strconv.Quote(e.Export))
	}

	if e.Addr != 0 {
		b.WriteString(" at 0x")
		b.WriteString(strconv.FormatUint(uint64(e.Addr), 16))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// NoExport reports that a module publishes no signal cell address under
// either probed export name.
func NoExport(globalName, funcName string) *Error {
	return &Error{
		Phase:  PhaseAttach,
		Kind:   KindNoExport,
		Detail: fmt.Sprintf("module exports neither global %q nor function %q", globalName, funcName),
	}
}

// NoMemory reports that a module has no linear memory to hold the cell.
func NoMemory() *Error {
	return &Error{
		Phase:  PhaseAttach,
		Kind:   KindNoMemory,
		Detail: "module has no linear memory",
	}
}

// BadAddress reports a published cell address that cannot hold a 4-byte cell.
func BadAddress(phase Phase, addr uint32, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindBadAddress,
		Addr:   addr,
		Detail: detail,
	}
}

// MemoryAccess reports a failed 4-byte read or write of the cell.
func MemoryAccess(phase Phase, addr uint32, op string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMemoryAccess,
		Addr:   addr,
		Detail: fmt.Sprintf("cannot %s 4 bytes", op),
	}
}

// Canceled reports that the context expired while a raised request was
// still pending.
func Canceled(cause error) *Error {
	return &Error{
		Phase:  PhaseAwait,
		Kind:   KindCanceled,
		Detail: "request not observed",
		Cause:  cause,
	}
}

// Layout reports an invalid guest module layout during synthesis.
func Layout(addr uint32, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseBuild,
		Kind:   KindLayout,
		Addr:   addr,
		Detail: detail,
	}
}
