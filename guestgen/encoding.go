package guestgen

// Core-wasm binary encoding helpers: LEB128 integers, sized sections, and
// the opcode subset the generated guests use.

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

func sleb128(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			out = append(out, b)
			break
		}
		out = append(out, b|0x80)
	}
	return out
}

// name encodes a length-prefixed UTF-8 name.
func name(s string) []byte {
	out := uleb128(uint32(len(s)))
	return append(out, s...)
}

// section wraps a section body with its id and byte length.
func section(id byte, body []byte) []byte {
	out := []byte{id}
	out = append(out, uleb128(uint32(len(body)))...)
	return append(out, body...)
}

// Section ids.
const (
	secType   = 0x01
	secFunc   = 0x03
	secMemory = 0x05
	secGlobal = 0x06
	secExport = 0x07
	secCode   = 0x0a
)

// Export kinds.
const (
	kindFunc   = 0x00
	kindMemory = 0x02
	kindGlobal = 0x03
)

// Value and form markers.
const (
	valI32   = 0x7f
	formFunc = 0x60
)

// Opcodes.
const (
	opBlock    = 0x02
	opLoop     = 0x03
	opEnd      = 0x0b
	opBr       = 0x0c
	opBrIf     = 0x0d
	opReturn   = 0x0f
	opIf       = 0x04
	opLocalGet = 0x20
	opLocalSet = 0x21
	opLocalTee = 0x22
	opI32Load  = 0x28
	opI32Store = 0x36
	opI32Const = 0x41
	opI32Eqz   = 0x45
	opI32Sub   = 0x6b

	blockVoid = 0x40
)

// instr builders for the handful of shapes the guest bodies need. Loads and
// stores use 4-byte alignment (log2 = 2) and a zero offset; the cell address
// is always a full absolute operand.

func i32Const(v uint32) []byte {
	return append([]byte{opI32Const}, sleb128(int32(v))...)
}

func i32Load() []byte {
	return []byte{opI32Load, 0x02, 0x00}
}

func i32Store() []byte {
	return []byte{opI32Store, 0x02, 0x00}
}

// funcBody wraps instructions (which must include the trailing end opcode)
// with a local declaration block of extraI32 i32 locals and the body size.
func funcBody(extraI32 uint32, instrs []byte) []byte {
	var body []byte
	if extraI32 == 0 {
		body = append(body, 0x00)
	} else {
		body = append(body, 0x01)
		body = append(body, uleb128(extraI32)...)
		body = append(body, valI32)
	}
	body = append(body, instrs...)

	out := uleb128(uint32(len(body)))
	return append(out, body...)
}
