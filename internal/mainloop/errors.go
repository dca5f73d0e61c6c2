package mainloop

import "errors"

// Domain errors for the mainloop package.
var (
	// ErrAlreadyRunning is returned when Run is called on a Loop that is
	// already running or has already finished. A Loop binds to exactly one
	// goroutine for its whole life; there is no safe way to rebind it.
	ErrAlreadyRunning = errors.New("mainloop: loop already started")
)
