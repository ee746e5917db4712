// Package gpu contains best-effort probes for NVIDIA driver presence.
//
// The launcher does not talk to the GPU itself; the probes exist so the
// doctor command can report why the miner is likely to fail before it
// is started.
package gpu

import (
	"os"
	"path/filepath"
	"strings"
)

// Check is the outcome of one probe.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Probe inspects the host for signs of a usable NVIDIA driver stack.
// Every probe is advisory; a failing check does not prevent the miner
// from being launched.
func Probe() []Check {
	return []Check{
		driverVersion(),
		deviceNodes(),
		driverLibrary(),
	}
}

func driverVersion() Check {
	c := Check{Name: "kernel driver"}
	data, err := os.ReadFile("/proc/driver/nvidia/version")
	if err != nil {
		c.Detail = "/proc/driver/nvidia/version not readable"
		return c
	}
	c.OK = true
	if line, _, ok := strings.Cut(string(data), "\n"); ok {
		c.Detail = strings.TrimSpace(line)
	}
	return c
}

func deviceNodes() Check {
	c := Check{Name: "device nodes"}
	matches, err := filepath.Glob("/dev/nvidia[0-9]*")
	if err != nil || len(matches) == 0 {
		c.Detail = "no /dev/nvidia* device nodes"
		return c
	}
	c.OK = true
	c.Detail = strings.Join(matches, ", ")
	return c
}

// driverLibrary looks for the CUDA driver library in the usual
// ldconfig locations.
func driverLibrary() Check {
	c := Check{Name: "libcuda"}
	dirs := []string{
		"/usr/lib/x86_64-linux-gnu",
		"/usr/lib64",
		"/usr/lib",
		"/usr/local/cuda/lib64",
	}
	for _, dir := range dirs {
		path := filepath.Join(dir, "libcuda.so.1")
		if _, err := os.Stat(path); err == nil {
			c.OK = true
			c.Detail = path
			return c
		}
	}
	c.Detail = "libcuda.so.1 not found in standard library paths"
	return c
}
