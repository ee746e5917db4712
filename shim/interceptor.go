package shim

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/ligne12/nockpool-miner-launcher/shim/ptx"
)

// MaxImageLen caps how far the ABI layer scans an unterminated module
// image for its NUL terminator. Images larger than this are passed
// through without inspection.
const MaxImageLen = 16 << 20

// Resolver locates the real driver entry point in the process's loaded
// symbol space. Resolve is invoked at most once per Interceptor; the
// outcome, success or failure, is cached for the process lifetime.
type Resolver interface {
	Resolve() error
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func() error

func (f ResolverFunc) Resolve() error { return f() }

// Dispatch invokes the resolved driver function for one call. The ABI
// layer binds the call's remaining arguments (module slot, JIT options)
// into the closure. A non-nil image replaces the caller's module image;
// nil means "forward the caller's original pointer unchanged".
type Dispatch func(image []byte) Result

// Interceptor orchestrates one module-load call: lazy symbol
// resolution, classification, rewrite, dispatch to the real function,
// and diagnostics. It is safe for concurrent use; the call counter is
// atomic and resolution is once-guarded, so racing first calls resolve
// exactly once and never observe a torn state.
type Interceptor struct {
	cfg      Config
	resolver Resolver

	resolveOnce sync.Once
	resolveErr  error

	// calls numbers classified calls for diagnostic filenames.
	calls atomic.Uint64
}

// New returns an Interceptor that resolves the real function through
// resolver on first use.
func New(cfg Config, resolver Resolver) *Interceptor {
	return &Interceptor{cfg: cfg, resolver: resolver}
}

// Config returns the interceptor's configuration.
func (ic *Interceptor) Config() Config { return ic.cfg }

// LoadData handles one intercepted module-load call. image is a
// borrowed view of the caller's module bytes, valid only for the
// duration of the call; it may be nil when the caller passed no image.
//
// The result of the real function is returned unchanged. If the real
// function could not be resolved, ErrInvalidValue is returned without
// the payload ever being inspected.
func (ic *Interceptor) LoadData(image []byte, dispatch Dispatch) Result {
	if err := ic.resolve(); err != nil {
		return ErrInvalidValue
	}

	log := ic.cfg.Logger()

	if image == nil || !ptx.Retargetable(image) {
		return dispatch(nil)
	}

	call := ic.calls.Add(1)
	log.Info("intercepted PTX module", "call", call, "bytes", len(image))

	patched, count := ptx.Retarget(image, ic.cfg.TargetArch)
	if count > 0 && !bytes.Contains(patched, []byte(ic.cfg.TargetArch)) {
		// Whole-buffer sanity check failed; never hand the driver a
		// suspect rewrite.
		log.Info("discarding rewrite, sanity check failed", "call", call)
		patched, count = nil, 0
	}

	var res Result
	if count > 0 {
		log.Info("retargeted PTX module",
			"call", call, "arch", ic.cfg.TargetArch, "replacements", count)
		res = dispatch(patched)
	} else {
		log.Info("no retargetable token, passing through", "call", call)
		res = dispatch(nil)
	}

	ic.dump(log, call, image, patched, res)
	return res
}

// resolve performs the once-per-process symbol resolution. Failure is
// terminal: every subsequent call observes the same error.
func (ic *Interceptor) resolve() error {
	ic.resolveOnce.Do(func() {
		ic.resolveErr = ic.resolver.Resolve()
		if ic.resolveErr != nil {
			ic.cfg.Logger().Error("resolving real driver function failed",
				"error", ic.resolveErr)
		}
	})
	return ic.resolveErr
}
