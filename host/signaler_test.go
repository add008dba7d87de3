package host

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	wasmsignal "github.com/wippyai/wasm-signal"
	"github.com/wippyai/wasm-signal/errors"
	"github.com/wippyai/wasm-signal/guestgen"
)

// newGuest synthesizes a guest with the given config and instantiates it.
func newGuest(t *testing.T, cfg guestgen.Config) api.Module {
	t.Helper()
	ctx := context.Background()

	wasm, err := guestgen.Build(cfg)
	if err != nil {
		t.Fatalf("guestgen.Build: %v", err)
	}

	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	mod, err := rt.Instantiate(ctx, wasm)
	if err != nil {
		t.Fatalf("instantiate guest: %v", err)
	}
	return mod
}

// instantiateRaw instantiates hand-assembled module bytes.
func instantiateRaw(t *testing.T, wasm []byte) api.Module {
	t.Helper()
	ctx := context.Background()

	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	mod, err := rt.Instantiate(ctx, wasm)
	if err != nil {
		t.Fatalf("instantiate fixture: %v", err)
	}
	return mod
}

// badGuest assembles a module exporting one page of memory and an address
// global holding a hostile value (addrConst is the signed-LEB128 operand of
// the global's i32.const initializer). guestgen refuses to build these
// layouts, so the fixture is written by hand.
func badGuest(withMemory bool, addrConst []byte) []byte {
	mod := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
	}

	if withMemory {
		// memory section: one memory, min 1 max 1 page
		mod = append(mod, 0x05, 0x04, 0x01, 0x01, 0x01, 0x01)
	}

	// global section: one immutable i32 initialized to the hostile address
	global := []byte{0x01, 0x7f, 0x00, 0x41}
	global = append(global, addrConst...)
	global = append(global, 0x0b)
	mod = append(mod, 0x06, byte(len(global)))
	mod = append(mod, global...)

	// export section: memory (when present) and the address global
	var exp []byte
	if withMemory {
		exp = append(exp, 0x02)
	} else {
		exp = append(exp, 0x01)
	}
	if withMemory {
		exp = append(exp, byte(len("memory")))
		exp = append(exp, "memory"...)
		exp = append(exp, 0x02, 0x00)
	}
	exp = append(exp, byte(len(wasmsignal.ExportAddrGlobal)))
	exp = append(exp, wasmsignal.ExportAddrGlobal...)
	exp = append(exp, 0x03, 0x00)
	mod = append(mod, 0x07, byte(len(exp)))
	mod = append(mod, exp...)

	return mod
}

func guestPoll(t *testing.T, mod api.Module) uint32 {
	t.Helper()
	res, err := mod.ExportedFunction("poll").Call(context.Background())
	if err != nil {
		t.Fatalf("guest poll: %v", err)
	}
	return uint32(res[0])
}

func TestAttach_GlobalExport(t *testing.T) {
	mod := newGuest(t, guestgen.Config{})

	sig, err := Attach(context.Background(), mod, Config{})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if got := sig.Addr(); got != 1024 {
		t.Errorf("Addr = %d, want 1024", got)
	}
}

func TestAttach_FuncExport(t *testing.T) {
	mod := newGuest(t, guestgen.Config{OmitGlobal: true, CellAddr: 2048})

	sig, err := Attach(context.Background(), mod, Config{})
	if err != nil {
		t.Fatalf("Attach via address function: %v", err)
	}
	if got := sig.Addr(); got != 2048 {
		t.Errorf("Addr = %d, want 2048", got)
	}
}

func TestAttach_CustomNames(t *testing.T) {
	mod := newGuest(t, guestgen.Config{GlobalExport: "sigaddr"})

	sig, err := Attach(context.Background(), mod, Config{GlobalExport: "sigaddr"})
	if err != nil {
		t.Fatalf("Attach with custom global name: %v", err)
	}
	if got := sig.Addr(); got != 1024 {
		t.Errorf("Addr = %d, want 1024", got)
	}
}

func TestAttach_NoExport(t *testing.T) {
	mod := newGuest(t, guestgen.Config{OmitGlobal: true, OmitFunc: true})

	_, err := Attach(context.Background(), mod, Config{})
	if err == nil {
		t.Fatal("Attach succeeded, want no-export error")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAttach, Kind: errors.KindNoExport}) {
		t.Errorf("error = %v, want [attach] no_export", err)
	}
}

func TestAttach_NoMemory(t *testing.T) {
	mod := instantiateRaw(t, badGuest(false, []byte{0x80, 0x08})) // addr 1024

	_, err := Attach(context.Background(), mod, Config{})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAttach, Kind: errors.KindNoMemory}) {
		t.Errorf("error = %v, want [attach] no_memory", err)
	}
}

func TestAttach_BadAddress(t *testing.T) {
	tests := []struct {
		name      string
		addrConst []byte // signed LEB128
	}{
		{"misaligned", []byte{0xff, 0x07}},          // 1023
		{"out of bounds", []byte{0x80, 0x80, 0x04}}, // 65536, past one page
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := instantiateRaw(t, badGuest(true, tt.addrConst))

			_, err := Attach(context.Background(), mod, Config{})
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAttach, Kind: errors.KindBadAddress}) {
				t.Errorf("error = %v, want [attach] bad_address", err)
			}
		})
	}
}

func TestSignaler_RaisePollRoundTrip(t *testing.T) {
	mod := newGuest(t, guestgen.Config{})
	sig, err := Attach(context.Background(), mod, Config{})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if err := sig.Raise(7); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if code, err := sig.Peek(); err != nil || code != 7 {
		t.Fatalf("Peek = (%d, %v), want (7, nil)", code, err)
	}

	if got := guestPoll(t, mod); got != 7 {
		t.Errorf("guest poll = %d, want 7", got)
	}
	if code, err := sig.Peek(); err != nil || code != wasmsignal.CodeNone {
		t.Errorf("Peek after guest poll = (%d, %v), want (0, nil)", code, err)
	}
}

func TestSignaler_Clear(t *testing.T) {
	mod := newGuest(t, guestgen.Config{})
	sig, err := Attach(context.Background(), mod, Config{})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if err := sig.Raise(9); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if err := sig.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	// The withdrawn request never reaches the guest.
	if got := guestPoll(t, mod); got != 0 {
		t.Errorf("guest poll after Clear = %d, want 0", got)
	}
}

func TestSignaler_RaiseOverwrites(t *testing.T) {
	mod := newGuest(t, guestgen.Config{})
	sig, err := Attach(context.Background(), mod, Config{})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}

	// Last write wins: no queuing.
	if err := sig.Raise(1); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if err := sig.Raise(2); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if got := guestPoll(t, mod); got != 2 {
		t.Errorf("guest poll = %d, want 2", got)
	}
	if got := guestPoll(t, mod); got != 0 {
		t.Errorf("second guest poll = %d, want 0", got)
	}
}

func TestSignaler_WorkInterruption(t *testing.T) {
	mod := newGuest(t, guestgen.Config{})
	sig, err := Attach(context.Background(), mod, Config{})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if err := sig.Raise(99); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	res, err := mod.ExportedFunction("work").Call(context.Background(), 1_000_000)
	if err != nil {
		t.Fatalf("guest work: %v", err)
	}
	if got := uint32(res[0]); got != 99 {
		t.Errorf("work = %d, want 99 (interrupted)", got)
	}
	if code, _ := sig.Peek(); code != wasmsignal.CodeNone {
		t.Errorf("Peek after interruption = %d, want 0", code)
	}
}

func TestSignaler_AwaitObserved(t *testing.T) {
	mod := newGuest(t, guestgen.Config{})
	sig, err := Attach(context.Background(), mod, Config{})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}

	t.Run("immediate on clear cell", func(t *testing.T) {
		if err := sig.AwaitObserved(context.Background()); err != nil {
			t.Errorf("AwaitObserved = %v, want nil", err)
		}
	})

	t.Run("after guest consumption", func(t *testing.T) {
		if err := sig.Raise(5); err != nil {
			t.Fatalf("Raise: %v", err)
		}
		if got := guestPoll(t, mod); got != 5 {
			t.Fatalf("guest poll = %d, want 5", got)
		}
		if err := sig.AwaitObserved(context.Background()); err != nil {
			t.Errorf("AwaitObserved = %v, want nil", err)
		}
	})

	t.Run("deadline while pending", func(t *testing.T) {
		if err := sig.Raise(5); err != nil {
			t.Fatalf("Raise: %v", err)
		}
		t.Cleanup(func() { sig.Clear() })

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := sig.AwaitObserved(ctx)
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAwait, Kind: errors.KindCanceled}) {
			t.Fatalf("error = %v, want [await] canceled", err)
		}
		if !stderrors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, should wrap context.DeadlineExceeded", err)
		}
	})
}

func TestSignaler_RaiseOnCancel(t *testing.T) {
	t.Run("fires on cancel", func(t *testing.T) {
		mod := newGuest(t, guestgen.Config{})
		sig, err := Attach(context.Background(), mod, Config{})
		if err != nil {
			t.Fatalf("Attach: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		stop := sig.RaiseOnCancel(ctx, 13)
		cancel()
		stop() // waits for the watcher, so the write is visible below

		if code, _ := sig.Peek(); code != 13 {
			t.Errorf("Peek = %d, want 13 raised on cancel", code)
		}
	})

	t.Run("not after stop", func(t *testing.T) {
		mod := newGuest(t, guestgen.Config{})
		sig, err := Attach(context.Background(), mod, Config{})
		if err != nil {
			t.Fatalf("Attach: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		stop := sig.RaiseOnCancel(ctx, 13)
		stop()
		cancel()

		if code, _ := sig.Peek(); code != wasmsignal.CodeNone {
			t.Errorf("Peek = %d, want 0 (watch detached before cancel)", code)
		}
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		mod := newGuest(t, guestgen.Config{})
		sig, err := Attach(context.Background(), mod, Config{})
		if err != nil {
			t.Fatalf("Attach: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		stop := sig.RaiseOnCancel(ctx, 1)
		stop()
		stop()
	})
}
