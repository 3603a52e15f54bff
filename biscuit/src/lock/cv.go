package lock

import "defs"

/// CondVar_t is a Mesa-style condition variable: {name, WaitChannel},
/// always used together with a caller-supplied Mutex_t. It has no
/// spinlock of its own; every operation takes the Mutex_t's spinlock.
//
// Release-and-park atomicity: Wait takes the associated
// mutex's own internal spinlock before dropping logical ownership of the
// mutex, and keeps it held until the wait channel has the waiter queued.
// A naive transliteration of kern/thread/synch.c's cv_wait (lock_release,
// *then* spinlock_acquire) leaves a window where a signaler can run between
// the two calls and lose the wakeup; taking the mutex's spinlock first
// closes that window.
type CondVar_t struct {
	Name string
	wc   WaitChannel
}

/// MkCondVar creates a condition variable.
func MkCondVar(name string) *CondVar_t {
	return &CondVar_t{Name: name}
}

/// Wait releases m (waking one pending Mutex_t.Acquire waiter, exactly as a
/// plain Release would), parks on the condition variable, and reacquires m
/// before returning. The caller must hold m on entry.
func (cv *CondVar_t) Wait(tid defs.Tid_t, m *Mutex_t) {
	defs.Assert(m.DoIHold(tid), "cv_wait: mutex not held")
	m.sl.Acquire(tid)
	m.wc.WakeOne()
	m.owner = 0
	cv.wc.Sleep(&m.sl, tid)
	m.sl.Release(tid)
	m.Acquire(tid)
}

/// Signal wakes at most one waiter. The caller must hold m.
func (cv *CondVar_t) Signal(tid defs.Tid_t, m *Mutex_t) {
	defs.Assert(m.DoIHold(tid), "cv_signal: mutex not held")
	m.sl.Acquire(tid)
	cv.wc.WakeOne()
	m.sl.Release(tid)
}

/// Broadcast wakes every waiter. The caller must hold m.
func (cv *CondVar_t) Broadcast(tid defs.Tid_t, m *Mutex_t) {
	defs.Assert(m.DoIHold(tid), "cv_broadcast: mutex not held")
	m.sl.Acquire(tid)
	cv.wc.WakeAll()
	m.sl.Release(tid)
}
