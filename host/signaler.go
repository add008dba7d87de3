package host

import (
	"context"
	"sync"

	"code.hybscloud.com/iox"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmsignal "github.com/wippyai/wasm-signal"
	"github.com/wippyai/wasm-signal/errors"
)

// Config holds export names for cell discovery. The zero value probes the
// protocol defaults from the root package.
type Config struct {
	// GlobalExport is the name of the address global to probe first.
	// Empty means wasmsignal.ExportAddrGlobal.
	GlobalExport string

	// FuncExport is the name of the address function probed when the
	// global is absent. Empty means wasmsignal.ExportAddrFunc.
	FuncExport string
}

// Signaler is the host side of the signal protocol, bound to one loaded
// guest instance. It writes and reads the guest's 4-byte signal cell through
// the instance's linear memory.
//
// Memory access goes through wazero's api.Memory, which is not synchronized
// with a concurrently executing guest. Callers coordinate with the guest's
// execution the way any wazero host does; the protocol itself tolerates a
// write landing at any point between two guest polls.
type Signaler struct {
	mem  api.Memory
	addr uint32
}

// Attach discovers the signal cell of an instantiated module and returns a
// Signaler bound to it.
//
// Discovery probes the address global first, then the nullary address
// function. The resolved address must point at a 4-aligned, in-bounds
// 4-byte cell; violations return a structured attach error.
func Attach(ctx context.Context, mod api.Module, cfg Config) (*Signaler, error) {
	globalName := cfg.GlobalExport
	if globalName == "" {
		globalName = wasmsignal.ExportAddrGlobal
	}
	funcName := cfg.FuncExport
	if funcName == "" {
		funcName = wasmsignal.ExportAddrFunc
	}

	mem := mod.Memory()
	if mem == nil {
		return nil, errors.NoMemory()
	}

	var addr uint32
	var via string
	if g := mod.ExportedGlobal(globalName); g != nil {
		addr = uint32(g.Get())
		via = globalName
	} else if f := mod.ExportedFunction(funcName); f != nil {
		res, err := f.Call(ctx)
		if err != nil {
			return nil, &errors.Error{
				Phase:  errors.PhaseAttach,
				Kind:   errors.KindBadAddress,
				Export: funcName,
				Detail: "address function call failed",
				Cause:  err,
			}
		}
		if len(res) != 1 {
			return nil, &errors.Error{
				Phase:  errors.PhaseAttach,
				Kind:   errors.KindBadAddress,
				Export: funcName,
				Detail: "address function returned no value",
			}
		}
		addr = uint32(res[0])
		via = funcName
	} else {
		return nil, errors.NoExport(globalName, funcName)
	}

	if addr%4 != 0 {
		return nil, errors.BadAddress(errors.PhaseAttach, addr, "cell is not 4-byte aligned")
	}
	if uint64(addr)+4 > uint64(mem.Size()) {
		return nil, errors.BadAddress(errors.PhaseAttach, addr, "cell ends beyond %d bytes of memory", mem.Size())
	}

	Logger().Debug("attached to signal cell",
		zap.String("export", via),
		zap.Uint32("addr", addr))

	return &Signaler{mem: mem, addr: addr}, nil
}

// Addr returns the resolved cell address. It is fixed for the lifetime of
// the guest instance.
func (s *Signaler) Addr() uint32 {
	return s.addr
}

// Raise writes code into the cell, requesting interruption with that code.
// A second Raise before the guest polls overwrites the first; writing
// wasmsignal.CodeNone withdraws a pending request.
func (s *Signaler) Raise(code wasmsignal.Code) error {
	if !s.mem.WriteUint32Le(s.addr, uint32(code)) {
		return errors.MemoryAccess(errors.PhaseSignal, s.addr, "write")
	}
	Logger().Debug("raised signal",
		zap.Uint32("code", uint32(code)),
		zap.Uint32("addr", s.addr))
	return nil
}

// Clear withdraws a pending request the guest has not polled yet.
func (s *Signaler) Clear() error {
	return s.Raise(wasmsignal.CodeNone)
}

// Peek reads the cell without modifying it, reporting whether a raised code
// is still pending.
func (s *Signaler) Peek() (wasmsignal.Code, error) {
	v, ok := s.mem.ReadUint32Le(s.addr)
	if !ok {
		return wasmsignal.CodeNone, errors.MemoryAccess(errors.PhaseSignal, s.addr, "read")
	}
	return wasmsignal.Code(v), nil
}

// AwaitObserved polls until the cell reads zero, meaning the guest consumed
// the pending request or the host cleared it. It backs off adaptively
// between reads and returns a canceled-kind error wrapping ctx.Err() if the
// context expires while the request is still pending.
func (s *Signaler) AwaitObserved(ctx context.Context) error {
	var bo iox.Backoff
	for {
		code, err := s.Peek()
		if err != nil {
			return err
		}
		if code == wasmsignal.CodeNone {
			Logger().Debug("signal observed", zap.Uint32("addr", s.addr))
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Canceled(ctx.Err())
		default:
		}
		bo.Wait()
	}
}

// RaiseOnCancel binds Go cancellation to the protocol: when ctx is done,
// code is raised. The returned stop function detaches the watch and blocks
// until the watcher goroutine has exited, so after stop returns the caller
// has exclusive use of the cell again. stop is idempotent.
func (s *Signaler) RaiseOnCancel(ctx context.Context, code wasmsignal.Code) (stop func()) {
	stopCh := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
			if err := s.Raise(code); err != nil {
				Logger().Warn("raise on cancel failed", zap.Error(err))
			}
		case <-stopCh:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopCh) })
		<-done
	}
}
