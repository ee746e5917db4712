//go:build linux && cgo

// Package cudriver is the narrow ABI adapter between the interception
// layer and the real CUDA driver. It owns all raw pointer handling:
// resolving cuModuleLoadDataEx from the process's symbol space and
// invoking the resolved pointer through a C trampoline. Nothing else
// in the shim touches dlfcn or an unchecked pointer.
package cudriver

/*
#cgo CFLAGS: -D_GNU_SOURCE
#cgo LDFLAGS: -ldl

#include <dlfcn.h>
#include <stdlib.h>

typedef int (*module_load_data_ex_t)(void *module, const void *image,
                                     unsigned int num_options, void *options,
                                     void **option_values);

static int call_module_load_data_ex(void *fn, void *module, const void *image,
                                    unsigned int num_options, void *options,
                                    void *option_values) {
	return ((module_load_data_ex_t)fn)(module, image, num_options, options,
	                                   (void **)option_values);
}

// RTLD_NEXT and RTLD_DEFAULT are pointer-valued macros, unusable from
// Go directly.
static void *dlsym_next(const char *name)    { return dlsym(RTLD_NEXT, name); }
static void *dlsym_default(const char *name) { return dlsym(RTLD_DEFAULT, name); }
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/ligne12/nockpool-miner-launcher/shim"
)

// SymbolName is the driver entry point this shim interposes.
const SymbolName = "cuModuleLoadDataEx"

// realFn is the resolved driver function. Written once under the
// interceptor's resolution guard, read-only afterwards.
var realFn unsafe.Pointer

// Resolve locates the genuine cuModuleLoadDataEx. RTLD_NEXT skips this
// shim's own interposed definition when loaded via LD_PRELOAD;
// RTLD_DEFAULT is the fallback when the shim was linked in some other
// way. Resolve is called at most once per process, through the
// interception layer's once-guard.
func Resolve() error {
	name := C.CString(SymbolName)
	defer C.free(unsafe.Pointer(name))

	if p := C.dlsym_next(name); p != nil {
		realFn = p
		return nil
	}
	if p := C.dlsym_default(name); p != nil {
		realFn = p
		return nil
	}
	return fmt.Errorf("dlsym %s: %s", SymbolName, C.GoString(C.dlerror()))
}

// Call invokes the resolved driver function with the original call's
// arguments. image is whichever module image survived the rewrite
// decision. Call must not be used before a successful Resolve.
func Call(module, image unsafe.Pointer, numOptions uint32, options, optionValues unsafe.Pointer) shim.Result {
	r := C.call_module_load_data_ex(realFn, module, image,
		C.uint(numOptions), options, optionValues)
	return shim.Result(r)
}
