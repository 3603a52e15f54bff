package lock

import (
	"sync"

	"defs"
)

/// WaitChannel is an opaque queue of parked threads, the Go translation of
/// wchan_sleep/wchan_wakeone/wchan_wakeall. It owns none of the invariants
/// of the primitive that embeds it; the caller always holds that
/// primitive's Spinlock (or, for CondVar, the associated Mutex's Spinlock)
/// across Sleep/WakeOne/WakeAll.
type WaitChannel struct {
	mu      sync.Mutex
	waiters []chan struct{}
}

/// Sleep atomically releases sl and parks the calling thread on the wait
/// channel, then reacquires sl before returning. Registration happens
/// before sl is released, so a WakeOne/WakeAll that runs the instant after
/// release still finds this waiter queued. The ticket channel has a
/// one-slot buffer, so the wakeup is never lost even though the receive
/// below may happen arbitrarily later.
func (wc *WaitChannel) Sleep(sl *Spinlock, tid defs.Tid_t) {
	ch := make(chan struct{}, 1)
	wc.mu.Lock()
	wc.waiters = append(wc.waiters, ch)
	wc.mu.Unlock()

	sl.Release(tid)
	<-ch
	sl.Acquire(tid)
}

/// WakeOne wakes at most one waiter. No fairness guarantee is made about
/// which waiter is chosen; FIFO order is used only because it is the
/// simplest correct implementation, not because callers may rely on it.
func (wc *WaitChannel) WakeOne() {
	wc.mu.Lock()
	if len(wc.waiters) > 0 {
		ch := wc.waiters[0]
		wc.waiters = wc.waiters[1:]
		wc.mu.Unlock()
		ch <- struct{}{}
		return
	}
	wc.mu.Unlock()
}

/// WakeAll wakes every currently queued waiter.
func (wc *WaitChannel) WakeAll() {
	wc.mu.Lock()
	waiters := wc.waiters
	wc.waiters = nil
	wc.mu.Unlock()
	for _, ch := range waiters {
		ch <- struct{}{}
	}
}

/// Empty reports whether no thread is currently parked. Nothing in this
/// package calls it; tests use it to see that a waiter has registered.
func (wc *WaitChannel) Empty() bool {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return len(wc.waiters) == 0
}
