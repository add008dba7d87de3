package guest

import (
	wasmsignal "github.com/wippyai/wasm-signal"
)

// std is the process-wide cell. It lives for the whole process; the wasip1
// build publishes the address of its signal word to the host.
var std Cell

// Default returns the process-wide cell the package-level functions operate
// on and the wasip1 export surface publishes.
func Default() *Cell { return &std }

// Peek returns the pending code of the process-wide cell without consuming it.
func Peek() wasmsignal.Code { return std.Peek() }

// Clear resets the process-wide cell and returns the code present before the
// reset.
func Clear() wasmsignal.Code { return std.Clear() }

// Set unconditionally overwrites the process-wide cell.
func Set(code wasmsignal.Code) { std.Set(code) }

// SetHandler installs h on the process-wide cell and returns the previous
// handler, or nil.
func SetHandler(h wasmsignal.Handler) wasmsignal.Handler { return std.SetHandler(h) }

// ClearHandler removes the process-wide cell's handler and returns it, or nil.
func ClearHandler() wasmsignal.Handler { return std.ClearHandler() }

// HasHandler reports whether the process-wide cell has a handler installed.
func HasHandler() bool { return std.HasHandler() }

// TryCheck polls the process-wide cell. See Cell.TryCheck.
func TryCheck() error { return std.TryCheck() }

// Check polls the process-wide cell and aborts on a pending signal. See
// Cell.Check.
func Check() { std.Check() }
