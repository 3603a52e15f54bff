// Package lock implements the kernel's synchronization primitives: a
// busy-wait Spinlock, a WaitChannel for parking threads, and the
// Semaphore/Mutex/CondVar/RWLock monitors built on top of them. The
// primitives mirror kern/thread/synch.c (see original_source/), translated
// from spinlock+wchan C structures into Go values that own a Spinlock and a
// WaitChannel, with explicit Mesa-style re-check loops on every wake (see
// DESIGN.md).
package lock

import (
	"runtime"
	"sync/atomic"

	"defs"
)

/// Spinlock is a busy-wait mutual-exclusion lock with owner tracking, used
/// to serialize short, non-blocking critical sections (coremap scans,
/// wait-channel queue manipulation, monitor state transitions).
type Spinlock struct {
	owner uint64 // defs.Tid_t; 0 means unlocked
}

/// Acquire spins until the lock is free and then claims it for tid. A
/// spinlock must only be held for bounded work; it never yields to a
/// blocked thread.
func (s *Spinlock) Acquire(tid defs.Tid_t) {
	defs.Assert(tid != 0, "spinlock: zero tid")
	for !atomic.CompareAndSwapUint64(&s.owner, 0, uint64(tid)) {
		runtime.Gosched()
	}
}

/// Release gives up the lock. It asserts tid currently holds it.
func (s *Spinlock) Release(tid defs.Tid_t) {
	ok := atomic.CompareAndSwapUint64(&s.owner, uint64(tid), 0)
	defs.Assert(ok, "spinlock: release by non-owner")
}

/// DoIHold reports whether tid currently holds the spinlock.
func (s *Spinlock) DoIHold(tid defs.Tid_t) bool {
	return atomic.LoadUint64(&s.owner) == uint64(tid)
}
