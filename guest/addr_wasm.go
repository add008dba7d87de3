//go:build wasip1

package guest

import "unsafe"

// CellAddr returns the linear-memory address of the process-wide cell's
// signal word, the location the host writes codes into.
func CellAddr() uint32 {
	return uint32(uintptr(unsafe.Pointer(&std.word)))
}

// wasmSignalAddr publishes the cell address to the host under the protocol's
// function export name (wasmsignal.ExportAddrFunc). Functions are the only
// symbols go:wasmexport can expose, so Go guests publish through a call
// where Rust and C guests export an address-valued global.
//
//go:wasmexport wasm_signal_addr
func wasmSignalAddr() uint32 {
	return CellAddr()
}
