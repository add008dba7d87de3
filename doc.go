// Package wasmsignal provides a cooperative-interruption protocol for
// WebAssembly guests supervised by an external host.
//
// The host cannot preempt a running guest. Instead it writes a 32-bit signal
// code into a shared cell inside the guest's linear memory, and the guest
// polls that cell at points it chooses. Polling is edge-triggered: a code is
// consumed the first time it is observed and does not re-fire until the host
// writes again.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	wasmsignal/          Root package with the shared protocol vocabulary
//	├── guest/           Guest-side signal cell, handler registry, and checks
//	├── host/            Host-side signaler bound to a loaded wazero module
//	├── guestgen/        Synthesizes minimal conformant guest modules
//	└── errors/          Structured error types for the host and tooling
//
// # Guest Side
//
// Guest code polls at self-chosen points:
//
//	for _, item := range items {
//	    if err := guest.TryCheck(); err != nil {
//	        return err // interrupted, err carries the signal code
//	    }
//	    process(item)
//	}
//
// A handler can claim signals before they propagate:
//
//	prev := guest.SetHandler(wasmsignal.HandlerFunc(func(code wasmsignal.Code) error {
//	    if code == codeFlush {
//	        flush()
//	        return nil // handled, keep running
//	    }
//	    return wasmsignal.Signal{Code: code}
//	}))
//
// # Host Side
//
// The host locates the cell through the module's export surface and writes
// codes into it:
//
//	sig, err := host.Attach(ctx, mod, host.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sig.Raise(42)
//
// # Wire Contract
//
// The cell is exactly 4 bytes, little-endian, naturally aligned, interpreted
// as an unsigned 32-bit integer. Zero means no pending signal; any nonzero
// value is an opaque, host-defined code. Its address is published once at
// module initialization, either as an exported global whose value is the
// address (ExportAddrGlobal) or as an exported nullary function returning it
// (ExportAddrFunc). Writing a nonzero value requests interruption; writing
// zero withdraws a pending request.
//
// # Delivery Model
//
// There is no delivery-time bound: a written code is observed no later than
// the first poll that executes after the write. There is no queuing; a
// second write before the first is observed overwrites it. There is exactly
// one cell per guest instance.
package wasmsignal
