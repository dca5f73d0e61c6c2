// Package relock provides a reentrant mutual-exclusion lock.
//
// Go's sync.Mutex is deliberately non-reentrant, but the capability hub
// allows implementations to call back into the hub from within an invoke
// (for example, a platform adapter that swaps itself out for a fallback).
// Lock supports that by letting the goroutine that currently holds the
// lock acquire it again, tracked with a recursion count. The lock only
// returns to the free state after the outermost release.
//
// The scoped form is preferred over raw Acquire/Release pairs:
//
//	err := lk.Do(func() error {
//	    // critical section, released on return or panic
//	    return nil
//	})
//
// # Identity caveat
//
// Reentrancy detection rests on goroutine identity from package gid. If
// the identity of the calling goroutine cannot be determined the lock
// degrades to plain non-reentrant mutex behaviour for that caller. Code
// outside this package must not use goroutine identity for its own
// reentrancy decisions.
package relock
