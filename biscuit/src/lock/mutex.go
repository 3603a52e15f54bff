package lock

import "defs"

/// Mutex_t is a non-recursive owned lock: {name, owner-or-none, WaitChannel,
/// Spinlock}. The invariant owner transitions none→T on Acquire and T→none
/// on Release by T.
type Mutex_t struct {
	Name  string
	sl    Spinlock
	wc    WaitChannel
	owner defs.Tid_t // 0 means unheld
}

/// MkMutex creates an unheld mutex.
func MkMutex(name string) *Mutex_t {
	return &Mutex_t{Name: name}
}

/// Acquire blocks until the mutex is free, then claims it for tid. It
/// panics if tid already holds the mutex; this lock is not recursive.
func (m *Mutex_t) Acquire(tid defs.Tid_t) {
	defs.Assert(!m.DoIHold(tid), "mutex: recursive acquire")
	m.sl.Acquire(tid)
	for {
		if m.owner == 0 {
			m.owner = tid
			break
		}
		m.wc.Sleep(&m.sl, tid)
	}
	m.sl.Release(tid)
}

/// Release gives up the mutex held by tid. The single waiter wake happens
/// before owner is cleared: under the spinlock that ordering is equivalent
/// to clearing first (the woken thread cannot run its re-check loop until
/// it acquires the spinlock, which it cannot do until Release returns), but
/// matching that order keeps the two equivalent without relying on it.
func (m *Mutex_t) Release(tid defs.Tid_t) {
	defs.Assert(m.DoIHold(tid), "mutex: release by non-owner")
	m.sl.Acquire(tid)
	m.wc.WakeOne()
	m.owner = 0
	m.sl.Release(tid)
}

/// DoIHold reports whether tid currently owns the mutex.
func (m *Mutex_t) DoIHold(tid defs.Tid_t) bool {
	return m.owner == tid
}
