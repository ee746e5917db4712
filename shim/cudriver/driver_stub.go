//go:build !linux || !cgo

// Stub adapter for platforms without dlfcn-based interposition. The
// shim only ships on Linux; everywhere else resolution fails and every
// intercepted call surfaces the terminal failure code.
package cudriver

import (
	"errors"
	"unsafe"

	"github.com/ligne12/nockpool-miner-launcher/shim"
)

// SymbolName is the driver entry point this shim interposes.
const SymbolName = "cuModuleLoadDataEx"

// Resolve always fails: symbol interposition requires Linux and cgo.
func Resolve() error {
	return errors.New("driver interposition requires linux and cgo")
}

// Call is never reachable because Resolve never succeeds.
func Call(module, image unsafe.Pointer, numOptions uint32, options, optionValues unsafe.Pointer) shim.Result {
	return shim.ErrInvalidValue
}
