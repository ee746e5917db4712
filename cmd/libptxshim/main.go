//go:build linux && cgo

// libptxshim is the LD_PRELOAD library that interposes the CUDA
// driver's module-loading entry points and retargets PTX before the
// real driver sees it.
//
// Build:
//
//	go build -buildmode=c-shared -o libptxshim.so ./cmd/libptxshim
//
// Use:
//
//	LD_PRELOAD=/path/to/libptxshim.so PTX_PERF_TARGET_ARCH=sm_89 <app>
//
// The exported symbols shadow libcuda's cuModuleLoadData and
// cuModuleLoadDataEx for every caller in the host process; the genuine
// implementations are still reached through RTLD_NEXT.
package main

import "C"

import (
	"bytes"
	"sync"
	"unsafe"

	"github.com/ligne12/nockpool-miner-launcher/shim"
	"github.com/ligne12/nockpool-miner-launcher/shim/cudriver"
)

// interceptor is built on the first intercepted call, so the process
// environment is read exactly once, lazily.
var interceptor = sync.OnceValue(func() *shim.Interceptor {
	return shim.New(shim.ConfigFromEnv(), shim.ResolverFunc(cudriver.Resolve))
})

//export cuModuleLoadDataEx
func cuModuleLoadDataEx(module, image unsafe.Pointer, numOptions C.uint, options, optionValues unsafe.Pointer) C.int {
	res := interceptor().LoadData(boundedView(image), func(patched []byte) shim.Result {
		img := image
		if patched != nil {
			img = unsafe.Pointer(&patched[0])
		}
		return cudriver.Call(module, img, uint32(numOptions), options, optionValues)
	})
	return C.int(res)
}

//export cuModuleLoadData
func cuModuleLoadData(module, image unsafe.Pointer) C.int {
	return cuModuleLoadDataEx(module, image, 0, nil, nil)
}

// boundedView exposes the caller's NUL-terminated module image as a
// byte slice, excluding the terminator. The scan never runs past
// shim.MaxImageLen; an image with no terminator inside the cap is
// treated as opaque and returned as nil so it passes through
// unmodified.
func boundedView(image unsafe.Pointer) []byte {
	if image == nil {
		return nil
	}
	raw := unsafe.Slice((*byte)(image), shim.MaxImageLen)
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		return raw[:i]
	}
	return nil
}

// main is required for -buildmode=c-shared; it never runs.
func main() {}
