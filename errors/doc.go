// Package errors provides structured error types for the wasm-signal library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes the probed export name, the offending
// cell address, and a cause chain.
//
// Use the convenience constructors:
//
//	err := errors.NoExport("WASM_SIGNAL_ADDR", "wasm_signal_addr")
//	err := errors.BadAddress(errors.PhaseAttach, addr, "cell is not 4-byte aligned")
//
// All errors implement the standard error interface and support errors.Is/As.
// Guest-side check operations do not use this package; the signal they
// propagate is the root package's Signal value.
package errors
