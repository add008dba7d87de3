package guestgen

import (
	wasmsignal "github.com/wippyai/wasm-signal"
	"github.com/wippyai/wasm-signal/errors"
)

// Config controls the layout and export surface of a generated guest.
// The zero value builds a one-page module with the cell at offset 1024,
// publishing the address under both protocol export names.
type Config struct {
	// CellAddr is the linear-memory offset of the 4-byte signal cell.
	// 0 means the default, 1024. Must be 4-aligned and leave room for the
	// cell inside memory.
	CellAddr uint32

	// Pages is the linear memory size in 64KiB pages. 0 means 1.
	Pages uint32

	// GlobalExport overrides the name of the exported address global.
	// Empty means wasmsignal.ExportAddrGlobal.
	GlobalExport string

	// FuncExport overrides the name of the exported address function.
	// Empty means wasmsignal.ExportAddrFunc.
	FuncExport string

	// OmitGlobal suppresses the address global export.
	OmitGlobal bool

	// OmitFunc suppresses the address function export.
	OmitFunc bool
}

const (
	defaultCellAddr = 1024
	pageSize        = 65536
	maxPages        = 65536
)

// Build emits the bytes of a minimal core-wasm module implementing the guest
// side of the signal protocol. The module exports:
//
//	memory            linear memory holding the cell
//	<address global>  i32 global whose value is the cell address
//	<address func>    () -> i32 returning the cell address
//	peek   () -> i32  plain load of the cell
//	poll   () -> i32  edge-triggered check: returns the cell and clears it
//	raise  (i32)      store into the cell
//	work   (i32) -> i32  bounded loop polling each iteration; returns the
//	                  first nonzero code observed, or 0 if the budget ran out
//
// The result instantiates under any core-wasm runtime; no imports are
// required.
func Build(cfg Config) ([]byte, error) {
	addr := cfg.CellAddr
	if addr == 0 {
		addr = defaultCellAddr
	}
	pages := cfg.Pages
	if pages == 0 {
		pages = 1
	}

	if pages > maxPages {
		return nil, errors.Layout(addr, "memory size %d pages exceeds the wasm maximum %d", pages, maxPages)
	}
	if addr%4 != 0 {
		return nil, errors.Layout(addr, "cell address is not 4-byte aligned")
	}
	if uint64(addr)+4 > uint64(pages)*pageSize {
		return nil, errors.Layout(addr, "cell ends beyond %d bytes of memory", uint64(pages)*pageSize)
	}

	globalName := cfg.GlobalExport
	if globalName == "" {
		globalName = wasmsignal.ExportAddrGlobal
	}
	funcName := cfg.FuncExport
	if funcName == "" {
		funcName = wasmsignal.ExportAddrFunc
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d} // magic
	out = append(out, 0x01, 0x00, 0x00, 0x00)

	// Type section: 0 = () -> i32, 1 = (i32) -> (), 2 = (i32) -> i32.
	var types []byte
	types = append(types, uleb128(3)...)
	types = append(types, formFunc, 0x00, 0x01, valI32)
	types = append(types, formFunc, 0x01, valI32, 0x00)
	types = append(types, formFunc, 0x01, valI32, 0x01, valI32)
	out = append(out, section(secType, types)...)

	// Function index space: optional address func, then peek, poll, raise,
	// work. Their bodies appear in the same order in the code section.
	typeIdx := []byte{0x00, 0x00, 0x01, 0x02} // peek, poll, raise, work
	if !cfg.OmitFunc {
		typeIdx = append([]byte{0x00}, typeIdx...)
	}
	var funcs []byte
	funcs = append(funcs, uleb128(uint32(len(typeIdx)))...)
	funcs = append(funcs, typeIdx...)
	out = append(out, section(secFunc, funcs)...)

	// Memory section: one memory, min = max omitted.
	var mem []byte
	mem = append(mem, 0x01, 0x00)
	mem = append(mem, uleb128(pages)...)
	out = append(out, section(secMemory, mem)...)

	// Global section: the address global is emitted even when unexported so
	// the export section is the only thing that varies between surfaces.
	var globals []byte
	globals = append(globals, 0x01, valI32, 0x00)
	globals = append(globals, i32Const(addr)...)
	globals = append(globals, opEnd)
	out = append(out, section(secGlobal, globals)...)

	// Export section.
	firstFunc := uint32(0)
	if !cfg.OmitFunc {
		firstFunc = 1 // index 0 is the address function
	}
	type export struct {
		name string
		kind byte
		idx  uint32
	}
	exports := []export{{"memory", kindMemory, 0}}
	if !cfg.OmitGlobal {
		exports = append(exports, export{globalName, kindGlobal, 0})
	}
	if !cfg.OmitFunc {
		exports = append(exports, export{funcName, kindFunc, 0})
	}
	exports = append(exports,
		export{"peek", kindFunc, firstFunc},
		export{"poll", kindFunc, firstFunc + 1},
		export{"raise", kindFunc, firstFunc + 2},
		export{"work", kindFunc, firstFunc + 3},
	)
	var exp []byte
	exp = append(exp, uleb128(uint32(len(exports)))...)
	for _, e := range exports {
		exp = append(exp, name(e.name)...)
		exp = append(exp, e.kind)
		exp = append(exp, uleb128(e.idx)...)
	}
	out = append(out, section(secExport, exp)...)

	// Code section.
	var bodies [][]byte
	if !cfg.OmitFunc {
		bodies = append(bodies, addrBody(addr))
	}
	bodies = append(bodies, peekBody(addr), pollBody(addr), raiseBody(addr), workBody(addr))

	var code []byte
	code = append(code, uleb128(uint32(len(bodies)))...)
	for _, b := range bodies {
		code = append(code, b...)
	}
	out = append(out, section(secCode, code)...)

	return out, nil
}

// addrBody returns the cell address: the function form of the export surface
// for toolchains that cannot export data symbols.
func addrBody(addr uint32) []byte {
	var in []byte
	in = append(in, i32Const(addr)...)
	in = append(in, opEnd)
	return funcBody(0, in)
}

func peekBody(addr uint32) []byte {
	var in []byte
	in = append(in, i32Const(addr)...)
	in = append(in, i32Load()...)
	in = append(in, opEnd)
	return funcBody(0, in)
}

// pollBody is the edge-triggered check: load the cell, store 0 if it was
// nonzero, return the loaded value. Local 0 holds the observed code.
func pollBody(addr uint32) []byte {
	var in []byte
	in = append(in, i32Const(addr)...)
	in = append(in, i32Load()...)
	in = append(in, opLocalTee, 0x00)
	in = append(in, opIf, blockVoid)
	in = append(in, i32Const(addr)...)
	in = append(in, i32Const(0)...)
	in = append(in, i32Store()...)
	in = append(in, opEnd)
	in = append(in, opLocalGet, 0x00)
	in = append(in, opEnd)
	return funcBody(1, in)
}

func raiseBody(addr uint32) []byte {
	var in []byte
	in = append(in, i32Const(addr)...)
	in = append(in, opLocalGet, 0x00)
	in = append(in, i32Store()...)
	in = append(in, opEnd)
	return funcBody(0, in)
}

// workBody is a bounded hot loop polling once per iteration: the shape of
// guest code choosing its own poll points. Local 0 is the remaining budget
// (the parameter), local 1 the observed code.
func workBody(addr uint32) []byte {
	var in []byte
	in = append(in, opBlock, blockVoid)
	in = append(in, opLoop, blockVoid)
	// budget exhausted: leave the loop, fall through to return 0
	in = append(in, opLocalGet, 0x00)
	in = append(in, opI32Eqz)
	in = append(in, opBrIf, 0x01)
	// poll: consume and return the first nonzero code
	in = append(in, i32Const(addr)...)
	in = append(in, i32Load()...)
	in = append(in, opLocalTee, 0x01)
	in = append(in, opIf, blockVoid)
	in = append(in, i32Const(addr)...)
	in = append(in, i32Const(0)...)
	in = append(in, i32Store()...)
	in = append(in, opLocalGet, 0x01)
	in = append(in, opReturn)
	in = append(in, opEnd)
	// budget--, next iteration
	in = append(in, opLocalGet, 0x00)
	in = append(in, i32Const(1)...)
	in = append(in, opI32Sub)
	in = append(in, opLocalSet, 0x00)
	in = append(in, opBr, 0x00)
	in = append(in, opEnd)
	in = append(in, opEnd)
	in = append(in, i32Const(0)...)
	in = append(in, opEnd)
	return funcBody(1, in)
}
