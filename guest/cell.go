package guest

import (
	"sync/atomic"

	wasmsignal "github.com/wippyai/wasm-signal"
)

// Cell is one signal word plus one handler slot. The zero value is ready for
// use: no pending signal, no handler.
//
// The word is mutated from two independent sides, the host (an external
// 4-byte write into linear memory) and the guest (clear-on-observe), so
// every access is a single aligned 32-bit atomic operation. The handler slot
// is mutated only by guest code; an atomic pointer swap keeps replacement
// indivisible with respect to concurrent inspection.
type Cell struct {
	// word must stay a plain uint32 field: the wasip1 build exports its
	// address, which an opaque atomic wrapper could not provide.
	word    uint32
	handler atomic.Pointer[wasmsignal.Handler]
}

// Peek returns the pending code without consuming it. It never mutates the
// cell and is safe to call any number of times.
func (c *Cell) Peek() wasmsignal.Code {
	return wasmsignal.Code(atomic.LoadUint32(&c.word))
}

// Clear atomically resets the cell to CodeNone and returns the code present
// immediately before the reset, so callers can tell whether they consumed a
// pending request or the cell was already clear.
func (c *Cell) Clear() wasmsignal.Code {
	return wasmsignal.Code(atomic.SwapUint32(&c.word, uint32(wasmsignal.CodeNone)))
}

// Set unconditionally overwrites the cell. This is the in-guest equivalent
// of the host's write contract; test harnesses use it in place of a host.
func (c *Cell) Set(code wasmsignal.Code) {
	atomic.StoreUint32(&c.word, uint32(code))
}

// SetHandler installs h and returns the previously installed handler, or nil
// if there was none. The previous handler is handed back rather than
// dropped, so a caller can capture it and delegate to it from its own
// Decide. A nil h behaves like ClearHandler.
func (c *Cell) SetHandler(h wasmsignal.Handler) wasmsignal.Handler {
	var p *wasmsignal.Handler
	if h != nil {
		p = &h
	}
	return load(c.handler.Swap(p))
}

// ClearHandler removes the installed handler and returns it, or nil if there
// was none. Afterward a consumed signal propagates unhandled.
func (c *Cell) ClearHandler() wasmsignal.Handler {
	return load(c.handler.Swap(nil))
}

// HasHandler reports whether a handler is installed, without exposing it.
func (c *Cell) HasHandler() bool {
	return c.handler.Load() != nil
}

func load(p *wasmsignal.Handler) wasmsignal.Handler {
	if p == nil {
		return nil
	}
	return *p
}

// TryCheck polls the cell and decides the outcome of a pending signal.
//
// When the cell is clear it returns nil; that path is one atomic load, no
// allocation, and never consults the handler slot. When a nonzero code is
// pending, TryCheck atomically consumes it (a later poll sees zero unless
// the host writes again) and then either returns the installed handler's
// decision verbatim or, with no handler, wasmsignal.Signal carrying the
// code.
func (c *Cell) TryCheck() error {
	if atomic.LoadUint32(&c.word) == 0 {
		return nil
	}

	code := c.Clear()
	if code == wasmsignal.CodeNone {
		// Another checker consumed it between the load and the swap.
		return nil
	}

	if h := load(c.handler.Load()); h != nil {
		return h.Decide(code)
	}
	return wasmsignal.Signal{Code: code}
}

// Check polls like TryCheck but aborts on a pending signal: it panics with
// the propagated error as the panic payload. The embedding environment must
// supply a recover boundary for the abort to be survivable; this package
// cannot guarantee one. wasmsignal.Recovered extracts the signal from the
// recovered value.
func (c *Cell) Check() {
	if err := c.TryCheck(); err != nil {
		panic(err)
	}
}
