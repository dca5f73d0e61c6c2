// Package gid exposes the identity of the calling goroutine.
//
// The Go runtime deliberately hides goroutine IDs, so Current parses the
// header line of a single-goroutine stack trace ("goroutine 42 [running]:").
// This is the established trick for runtime identity when a reentrancy or
// thread-affinity check genuinely needs one.
//
// The ID is a best-effort identity signal. Callers must not use it for
// correctness-critical decisions beyond matching an ID they captured
// themselves earlier on the same goroutine.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

// stackBufSize is large enough for the header line of any stack trace.
const stackBufSize = 64

var goroutinePrefix = []byte("goroutine ")

// Current returns the ID of the calling goroutine.
//
// If the stack header cannot be parsed (which would indicate a runtime
// format change), Current returns 0. Callers treat 0 as "unknown"; it is
// never a valid goroutine ID.
func Current() int64 {
	buf := make([]byte, stackBufSize)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	// Header format: "goroutine 42 [running]:\n..."
	if !bytes.HasPrefix(buf, goroutinePrefix) {
		return 0
	}
	buf = buf[len(goroutinePrefix):]

	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return 0
	}

	id, err := strconv.ParseInt(string(buf[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
