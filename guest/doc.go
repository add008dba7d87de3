// Package guest implements the guest side of the wasm-signal protocol: the
// signal cell, the handler registry, and the polling check operations.
//
// A guest cannot be preempted by its host. Instead the host writes a 32-bit
// code into the signal cell, and guest code observes it at poll points it
// chooses. Observation is edge-triggered: the first check that sees a
// nonzero code consumes it.
//
// # Polling
//
// Hot loops poll with TryCheck, which is one atomic load on the common path:
//
//	for _, item := range items {
//	    if err := guest.TryCheck(); err != nil {
//	        return err
//	    }
//	    process(item)
//	}
//
// Check is the aborting variant: it panics with the propagated error as
// payload, to be caught by a recover boundary the embedding environment
// provides. wasmsignal.Recovered extracts the signal at that boundary.
//
// # Handlers
//
// At most one handler is installed at a time. When a check consumes a
// nonzero code, the handler decides the outcome: nil continues execution,
// a non-nil error (conventionally a wasmsignal.Signal, possibly remapped)
// propagates. Installing a handler returns the previous one so behavior can
// be chained:
//
//	prev := guest.SetHandler(wasmsignal.HandlerFunc(func(code wasmsignal.Code) error {
//	    audit(code)
//	    if prev != nil {
//	        return prev.Decide(code)
//	    }
//	    return wasmsignal.Signal{Code: code}
//	}))
//
// The cell is cleared before the handler runs, so a handler polling
// re-entrantly observes zero unless the host has written again.
//
// # Process-Wide Cell
//
// The package-level functions operate on one process-wide cell, which is
// what the wasip1 build publishes to the host (the wasm_signal_addr export).
// Code that needs isolated state, such as tests, can construct private Cell
// values; their zero value is ready for use.
package guest
