package mainloop

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/tetherhq/tether-core/internal/gid"
)

// Logger defines the logging interface used by the Loop.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Loop is the designated UI-thread run loop.
//
// The goroutine that calls Run becomes the loop goroutine and is locked to
// its OS thread for the duration. Work submitted via RunOnMain executes on
// that goroutine in submission order.
//
// Thread Safety: all methods are safe for concurrent use.
type Loop struct {
	mu   sync.Mutex
	cond *sync.Cond

	// queue holds pending work in FIFO order. Unbounded so the async
	// dispatch path never blocks the submitting goroutine.
	queue   []func()
	started bool
	done    bool

	// loopGID is the goroutine ID of the running loop, 0 before Run.
	loopGID atomic.Int64

	logger Logger
}

// New creates a Loop. It does not run until Run is called.
func New() *Loop {
	l := &Loop{logger: noopLogger{}}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// SetLogger sets the logger for the loop.
func (l *Loop) SetLogger(logger Logger) {
	l.mu.Lock()
	l.logger = logger
	l.mu.Unlock()
}

// Run turns the calling goroutine into the loop goroutine and processes
// queued work until ctx is cancelled. It locks the goroutine to its OS
// thread, which is what makes it a usable stand-in for a platform UI
// thread.
//
// Run returns nil on a clean shutdown. Calling Run a second time, on any
// goroutine, returns ErrAlreadyRunning.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.started = true
	l.mu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.loopGID.Store(gid.Current())

	// Wake the loop when the context is cancelled so it can observe done.
	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		l.done = true
		l.mu.Unlock()
		l.cond.Signal()
	})
	defer stop()

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.done {
			l.cond.Wait()
		}
		if l.done {
			dropped := len(l.queue)
			l.queue = nil
			l.mu.Unlock()
			if dropped > 0 {
				l.logger.Warn("main loop stopped with queued work", "dropped", dropped)
			}
			return nil
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.invoke(fn)
	}
}

// RunOnMain guarantees fn executes on the loop goroutine.
//
// Called from the loop goroutine itself, fn runs synchronously and its
// side effects are visible when RunOnMain returns. From any other
// goroutine fn is queued and RunOnMain returns immediately; fn runs after
// all previously queued work, once the loop gets to it.
//
// Work submitted after shutdown is dropped with a warning, since by then there
// is no UI thread left to run it on.
func (l *Loop) RunOnMain(fn func()) {
	if l.IsMain() {
		// Synchronous path: the caller is on the UI thread, so a panic has
		// a caller to propagate to. Only queued work is panic-contained.
		fn()
		return
	}

	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		l.logger.Warn("work submitted after main loop shutdown, dropping")
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.cond.Signal()
}

// IsMain reports whether the calling goroutine is the loop goroutine.
//
// This is a pure identity query with no side effects. It is advisory: use
// it to skip a dispatch round-trip, never as the basis for a correctness
// argument elsewhere.
func (l *Loop) IsMain() bool {
	g := gid.Current()
	return g != 0 && g == l.loopGID.Load()
}

// Pending returns the number of queued, not-yet-executed functions.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// invoke runs fn, containing panics so a broken callback cannot take the
// loop goroutine down with it.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in main loop callback", "panic", r)
		}
	}()
	fn()
}
