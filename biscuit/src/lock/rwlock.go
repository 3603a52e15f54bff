package lock

import "defs"

/// RWLock_t is a reader-writer lock: {name, Spinlock, WaitChannel,
/// reader_count, writer_count, is_writing}. writer_count counts writers
/// that are waiting *or* holding the lock, so a newly arriving reader can
/// tell a writer is pending and back off in its favor; readers that are
/// already blocked recheck the same condition on every wake. A queued
/// writer therefore gets the lock once the readers already inside drain,
/// however many readers keep arriving; readers can wait indefinitely under
/// a continuous stream of writers.
type RWLock_t struct {
	Name string
	sl   Spinlock
	wc   WaitChannel

	reader_count int
	writer_count int
	is_writing   bool
}

/// MkRWLock creates an unheld reader-writer lock.
func MkRWLock(name string) *RWLock_t {
	return &RWLock_t{Name: name}
}

/// readerBlocked reports whether an arriving or waiting reader must yield
/// to writers: a writer currently holds the lock, or at least one writer
/// is queued. Any comparison of reader_count against writer_count would
/// let a reader that re-arrives just after the last reader left
/// (reader_count==0) slip in ahead of the writer ReleaseRead has just
/// woken, so two readers trading off could hold a writer out forever.
func (l *RWLock_t) readerBlocked() bool {
	return l.is_writing || l.writer_count > 0
}

/// AcquireRead blocks while a writer holds the lock or is queued, then
/// joins as a reader.
func (l *RWLock_t) AcquireRead(tid defs.Tid_t) {
	l.sl.Acquire(tid)
	for l.readerBlocked() {
		l.wc.Sleep(&l.sl, tid)
	}
	l.reader_count++
	l.sl.Release(tid)
}

/// ReleaseRead leaves the reader set, waking parked threads if this was
/// the last reader (a waiting writer may now proceed).
func (l *RWLock_t) ReleaseRead(tid defs.Tid_t) {
	l.sl.Acquire(tid)
	defs.Assert(l.reader_count > 0, "rwlock: release_read with no readers")
	l.reader_count--
	if l.reader_count == 0 {
		l.wc.WakeAll()
	}
	l.sl.Release(tid)
}

/// AcquireWrite registers as a pending writer; writer_count stays
/// incremented for as long as this writer is waiting or holding the lock,
/// so arriving readers see it and back off, then blocks until no reader
/// or writer holds the lock.
func (l *RWLock_t) AcquireWrite(tid defs.Tid_t) {
	l.sl.Acquire(tid)
	l.writer_count++
	for l.is_writing || l.reader_count > 0 {
		l.wc.Sleep(&l.sl, tid)
	}
	l.is_writing = true
	l.sl.Release(tid)
}

/// ReleaseWrite gives up exclusive ownership, decrements writer_count, and
/// wakes every waiter; both blocked readers and blocked writers recheck
/// their own condition.
func (l *RWLock_t) ReleaseWrite(tid defs.Tid_t) {
	l.sl.Acquire(tid)
	defs.Assert(l.is_writing, "rwlock: release_write while not held")
	l.is_writing = false
	l.writer_count--
	l.wc.WakeAll()
	l.sl.Release(tid)
}
