package shim

// Result mirrors the CUDA driver API's CUresult code. The shim never
// interprets values beyond Success; whatever the real function returns
// is passed through to the caller unchanged.
type Result uint32

const (
	// Success is CUDA_SUCCESS.
	Success Result = 0

	// ErrInvalidValue is CUDA_ERROR_INVALID_VALUE. It is the fixed
	// code returned for every call once symbol resolution has failed;
	// that failure is terminal for the process and never retried.
	ErrInvalidValue Result = 1
)
