package relock

import (
	"sync"
	"sync/atomic"

	"github.com/tetherhq/tether-core/internal/gid"
)

// Lock is a reentrant mutual-exclusion lock.
//
// The zero value is an unlocked Lock ready for use. A Lock must not be
// copied after first use.
//
// Thread Safety: all methods are safe for concurrent use. The goroutine
// holding the lock may acquire it again without deadlocking; other
// goroutines block until the outermost release.
type Lock struct {
	mu sync.Mutex

	// owner is the goroutine ID of the current holder, or 0 when free.
	// Written only while mu is held; read lock-free for the reentrancy
	// fast path.
	owner atomic.Int64

	// depth is the recursion count. Touched only by the owning goroutine,
	// so it needs no further synchronisation.
	depth int
}

// Acquire takes the lock, blocking until it is available.
//
// If the calling goroutine already holds the lock, Acquire increments the
// recursion count and returns immediately. Every Acquire must be paired
// with exactly one Release; prefer Do, which guarantees the pairing.
func (l *Lock) Acquire() {
	g := gid.Current()
	if g != 0 && l.owner.Load() == g {
		l.depth++
		return
	}

	l.mu.Lock()
	l.owner.Store(g)
	l.depth = 1
}

// Release gives up one level of the lock. The lock becomes free only when
// the outermost acquisition is released.
//
// Release panics if the calling goroutine does not hold the lock; that is
// a programming error, not a runtime condition.
func (l *Lock) Release() {
	g := gid.Current()
	if l.owner.Load() != g {
		panic("relock: Release called by goroutine that does not hold the lock")
	}

	l.depth--
	if l.depth > 0 {
		return
	}
	l.owner.Store(0)
	l.mu.Unlock()
}

// Do runs body while holding the lock.
//
// The lock is released on every exit path, including a panic inside body,
// and the panic is then re-raised. Do returns whatever body returns.
// Nested Do calls from the same goroutine are safe.
func (l *Lock) Do(body func() error) error {
	l.Acquire()
	defer l.Release()
	return body()
}

// Held reports whether the calling goroutine currently holds the lock.
func (l *Lock) Held() bool {
	g := gid.Current()
	return g != 0 && l.owner.Load() == g
}
