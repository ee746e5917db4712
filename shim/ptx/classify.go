// Package ptx implements the byte-level PTX inspection and retargeting
// routines used by the interception shim. Everything in this package is
// pure: no I/O, no globals, no pointers — callers hand in a byte view
// and get back either a fresh buffer or "no change".
package ptx

import "bytes"

const (
	// minClassifyLen is the smallest buffer worth inspecting. Real
	// PTX modules always carry at least a header block.
	minClassifyLen = 100

	// classifyWindow bounds the marker search so classification stays
	// cheap even for multi-megabyte modules.
	classifyWindow = 1000
)

var (
	versionMarker = []byte(".version")
	targetMarker  = []byte(".target")
)

// Retargetable reports whether buf looks like PTX assembly text whose
// target directive could be rewritten. It is a fast-path gate: a false
// negative just means the buffer is forwarded untouched, and a false
// positive is caught later when no architecture token matches.
//
// PTX modules open with either a comment ("//") or a directive ("."),
// and declare both a .version and a .target near the top.
func Retargetable(buf []byte) bool {
	if len(buf) < minClassifyLen {
		return false
	}
	if buf[0] != '/' && buf[0] != '.' {
		return false
	}
	win := buf
	if len(win) > classifyWindow {
		win = win[:classifyWindow]
	}
	return bytes.Contains(win, versionMarker) && bytes.Contains(win, targetMarker)
}
