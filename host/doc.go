// Package host implements the host side of the wasm-signal protocol for
// embedders running guests under wazero.
//
// A host cannot preempt a guest. Attach locates the guest's signal cell
// through the module's export surface, and the returned Signaler exercises
// the write contract: Raise stores a 32-bit code at the cell address, the
// guest observes it at its next poll.
//
//	sig, err := host.Attach(ctx, mod, host.Config{})
//	if err != nil {
//	    return err
//	}
//	if err := sig.Raise(42); err != nil {
//	    return err
//	}
//
// AwaitObserved waits for the guest to consume a request, and RaiseOnCancel
// turns a context's cancellation into a raised code.
//
// The package logs attach resolution and signaling activity at debug level
// through a package logger (no-op unless SetLogger is called).
package host
