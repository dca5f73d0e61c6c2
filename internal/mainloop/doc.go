// Package mainloop provides the designated UI-thread run loop and the
// dispatcher that guarantees a function executes on it.
//
// Mobile and desktop platforms require UI side effects to happen on one
// specific thread. The Go analog is a Loop goroutine locked to its OS
// thread; platform adapters that touch native UI hand their work to the
// loop instead of running it wherever the caller happens to be.
//
// RunOnMain takes the fast path when the caller is already the loop
// goroutine: the function runs synchronously before RunOnMain returns,
// avoiding a scheduling round-trip. From any other goroutine the function
// is appended to an unbounded FIFO queue and RunOnMain returns without
// waiting, because blocking there could deadlock a background goroutine that the
// loop itself is waiting on.
//
//	loop := mainloop.New()
//	go func() {
//	    loop.RunOnMain(func() { /* runs on the loop goroutine */ })
//	}()
//	loop.Run(ctx) // blocks; this goroutine becomes the UI thread
package mainloop
