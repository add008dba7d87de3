//go:build !wasip1

package guest

// CellAddr returns the linear-memory address of the process-wide cell's
// signal word. Outside a wasm build there is no linear memory and no export
// surface; it returns 0.
func CellAddr() uint32 {
	return 0
}
