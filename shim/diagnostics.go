package shim

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// dump persists the original and rewritten buffers for offline
// inspection. The original is written whenever dumping is enabled; the
// rewrite is additionally written when the real call failed under
// verbose mode, to aid debugging otherwise-silent driver rejections.
//
// Dumps are best-effort: write failures never affect the call's
// outcome.
func (ic *Interceptor) dump(log *slog.Logger, call uint64, original, patched []byte, res Result) {
	if ic.cfg.Dump {
		ic.writeDump(log, call, "orig", original)
	}
	if patched == nil {
		return
	}
	if ic.cfg.Dump || (res != Success && ic.cfg.Verbose) {
		// Strip the NUL sentinel; dumps hold the raw text only.
		ic.writeDump(log, call, "fixed", patched[:len(patched)-1])
	}
}

func (ic *Interceptor) writeDump(log *slog.Logger, call uint64, kind string, buf []byte) {
	name := fmt.Sprintf("ptx_perf_%d_%d.%s.ptx", os.Getpid(), call, kind)
	path := filepath.Join(ic.cfg.DumpDir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		log.Info("dump failed", "path", path, "error", err)
		return
	}
	log.Info("wrote dump", "path", path, "bytes", len(buf))
}
