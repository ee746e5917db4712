package ptx

import "bytes"

const (
	// Slack is the extra capacity allocated for a rewritten module so
	// a longer replacement token never forces a second allocation.
	// Rewritten output is never longer than the input plus Slack.
	Slack = 256

	// minTargetLine is the shortest line that can hold a target
	// directive with a two-digit architecture token and its newline.
	minTargetLine = 14
)

var archMarker = []byte(" sm_")

// Retarget scans buf line by line for PTX target directives and
// replaces their sm_NN or sm_NNN compute-capability token with arch.
// Every byte outside the replaced tokens is preserved verbatim,
// including CR bytes and the final line's missing terminator. The
// returned buffer is NUL-terminated for handoff across the C ABI.
//
// Returns nil and zero when no token was replaced; the caller then
// forwards its original buffer.
func Retarget(buf []byte, arch string) ([]byte, int) {
	out := make([]byte, 0, len(buf)+Slack)
	replaced := 0

	// The NUL sentinel takes one byte of the slack; the rest bounds
	// cumulative growth from longer replacement tokens. A replacement
	// that would overrun the budget is skipped and its line copied
	// verbatim, keeping the output within len(buf)+Slack.
	budget := Slack - 1

	for start := 0; start < len(buf); {
		var line []byte
		if nl := bytes.IndexByte(buf[start:], '\n'); nl < 0 {
			line = buf[start:]
			start = len(buf)
		} else {
			line = buf[start : start+nl+1]
			start += nl + 1
		}

		var grown int
		var ok bool
		out, grown, ok = retargetLine(out, line, arch, budget)
		if ok {
			replaced++
			budget -= grown
		}
	}

	if replaced == 0 {
		return nil, 0
	}
	out = append(out, 0)
	return out, replaced
}

// retargetLine appends line to out, substituting arch for the first
// valid architecture token if line is a target directive and the
// substitution's growth fits within budget. The line includes its
// '\n' terminator when one exists. Returns the growth in bytes
// (negative for a shorter replacement) alongside whether a
// substitution happened.
//
// The token guard: two mandatory decimal digits after " sm_", then
// either a delimiter (space, comma, CR, LF) or a third digit, which is
// consumed. Anything else — one digit, end of line, an unexpected
// byte — leaves the line untouched.
func retargetLine(out, line []byte, arch string, budget int) ([]byte, int, bool) {
	if len(line) < minTargetLine || !bytes.HasPrefix(line, targetMarker) {
		return append(out, line...), 0, false
	}

	rel := bytes.Index(line[len(targetMarker):], archMarker)
	if rel < 0 {
		return append(out, line...), 0, false
	}
	mark := len(targetMarker) + rel // index of the marker's space
	tok := mark + len(archMarker)   // index of the first digit

	if tok+1 >= len(line) || !isDigit(line[tok]) || !isDigit(line[tok+1]) {
		return append(out, line...), 0, false
	}

	end := tok + 2
	if end >= len(line) {
		// Two digits and then nothing, not even a terminator.
		return append(out, line...), 0, false
	}
	switch {
	case isDigit(line[end]):
		end++ // three-digit compute capability
	case line[end] == ' ', line[end] == ',', line[end] == '\r', line[end] == '\n':
	default:
		return append(out, line...), 0, false
	}

	grown := len(arch) - (end - mark - 1) // replaced token spans [mark+1, end)
	if grown > budget {
		return append(out, line...), 0, false
	}

	out = append(out, line[:mark+1]...)
	out = append(out, arch...)
	out = append(out, line[end:]...)
	return out, grown, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
