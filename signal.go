package wasmsignal

import (
	"errors"
	"fmt"
)

// Names under which a guest publishes the signal cell's linear-memory
// address. A guest exports one or both; hosts probe the global first.
const (
	// ExportAddrGlobal is an exported i32 global whose value is the cell
	// address. This is the surface emitted by toolchains that can export
	// data symbols (Rust, C).
	ExportAddrGlobal = "WASM_SIGNAL_ADDR"

	// ExportAddrFunc is an exported nullary function returning the cell
	// address. This is the surface a Go guest emits, since go:wasmexport
	// covers functions only.
	ExportAddrFunc = "wasm_signal_addr"
)

// Code is a signal code. Zero means no pending signal; any nonzero value is
// an opaque, host-defined code. No value other than zero is reserved.
type Code uint32

// CodeNone is the cleared state of the signal cell.
const CodeNone Code = 0

// Signal is an interruption carrying exactly one code. It is the error value
// surfaced by guest check operations and the panic payload of the aborting
// check. Signals are compared by code alone, so
// errors.Is(err, Signal{Code: 42}) matches any chain containing that signal.
type Signal struct {
	Code Code
}

// Error implements error.
func (s Signal) Error() string {
	return fmt.Sprintf("signal received: code %d", uint32(s.Code))
}

// AsSignal extracts a Signal from err's chain.
func AsSignal(err error) (Signal, bool) {
	var s Signal
	ok := errors.As(err, &s)
	return s, ok
}

// Recovered extracts a Signal from a recover() value. It recognizes the
// Signal itself and any error whose chain contains one; other values,
// including nil, report false.
func Recovered(v any) (Signal, bool) {
	err, ok := v.(error)
	if !ok {
		return Signal{}, false
	}
	return AsSignal(err)
}

// Handler decides what happens when a check operation observes a nonzero
// code. Returning nil treats the signal as handled and execution continues;
// returning a non-nil error propagates it as the check's outcome. The error
// is surfaced verbatim, so a handler may remap the code or substitute its
// own error; Signal is the conventional value.
//
// The cell is already cleared when Decide runs: a re-entrant check inside a
// handler observes zero unless the host has written again.
type Handler interface {
	Decide(code Code) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(Code) error

// Decide implements Handler.
func (f HandlerFunc) Decide(code Code) error { return f(code) }
