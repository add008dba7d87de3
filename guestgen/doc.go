// Package guestgen synthesizes minimal conformant guest modules.
//
// A generated module is a self-contained core-wasm binary with no imports:
// linear memory holding the 4-byte signal cell, the protocol's address
// export surface (global and/or function), and a handful of functions that
// exercise the guest side of the protocol (peek, poll, raise, work). Host
// tests and examples instantiate these modules under a real runtime instead
// of shipping prebuilt binaries.
package guestgen
