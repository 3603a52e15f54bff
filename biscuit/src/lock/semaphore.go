package lock

import "defs"

/// Semaphore_t is a counting semaphore: {name, count, WaitChannel,
/// Spinlock}. Count never goes negative.
type Semaphore_t struct {
	Name  string
	sl    Spinlock
	wc    WaitChannel
	count int
}

/// MkSemaphore creates a semaphore with the given non-negative initial
/// count.
func MkSemaphore(name string, initial int) *Semaphore_t {
	defs.Assert(initial >= 0, "semaphore: negative initial count")
	return &Semaphore_t{Name: name, count: initial}
}

/// P decrements the semaphore, parking the caller while count is zero.
/// Ordering between waiters is not guaranteed; a fresh P may pass threads
/// already parked.
func (s *Semaphore_t) P(tid defs.Tid_t) {
	s.sl.Acquire(tid)
	for s.count == 0 {
		s.wc.Sleep(&s.sl, tid)
	}
	defs.Assert(s.count > 0, "semaphore: count not positive after wake")
	s.count--
	s.sl.Release(tid)
}

/// V increments the semaphore and wakes exactly one waiter, if any.
func (s *Semaphore_t) V(tid defs.Tid_t) {
	s.sl.Acquire(tid)
	s.count++
	defs.Assert(s.count > 0, "semaphore: count overflowed")
	s.wc.WakeOne()
	s.sl.Release(tid)
}

/// Count returns a racy snapshot of the count, for diagnostics/tests only.
func (s *Semaphore_t) Count(tid defs.Tid_t) int {
	s.sl.Acquire(tid)
	c := s.count
	s.sl.Release(tid)
	return c
}
