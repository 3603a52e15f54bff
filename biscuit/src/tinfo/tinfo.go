// Package tinfo tracks per-thread bookkeeping: liveness, kill requests,
// and the doomed flag a killed thread checks at its next preemption
// point. A patched runtime can resolve "the current thread" through a
// goroutine-local pointer (runtime.Gptr/Setgptr); Go has no supported
// goroutine-local storage, so this core keys Tnote_t records by the
// same explicit defs.Tid_t every lock primitive already threads
// through its calls.
package tinfo

import "sync"

import "defs"

/// Tnote_t stores per-thread state used by the kernel's thread-kill
/// protocol.
type Tnote_t struct {
	// XXX "alive" should be "terminated"
	State    interface{}
	Alive    bool
	Killed   bool
	Isdoomed bool // XXX maybe don't need doomed, but can use killed?
	// protects killed, Killnaps.Cond and Kerr, and is a leaf lock
	sync.Mutex
	Killnaps struct {
		Killch chan bool
		Cond   *sync.Cond
		Kerr   defs.Err_t
	}
}

/// Doomed reports whether the thread is marked as doomed.
func (t *Tnote_t) Doomed() bool {
	return t.Isdoomed
}

/// Threadinfo_t tracks all thread notes, keyed by the defs.Tid_t the
/// rest of the kernel already uses to identify a thread to the lock
/// package.
type Threadinfo_t struct {
	Notes map[defs.Tid_t]*Tnote_t
	sync.Mutex
}

/// Init initializes the thread info map.
func (t *Threadinfo_t) Init() {
	t.Notes = make(map[defs.Tid_t]*Tnote_t)
}

/// Current returns tid's thread note, installing one on first use.
func (t *Threadinfo_t) Current(tid defs.Tid_t) *Tnote_t {
	t.Lock()
	defer t.Unlock()
	n, ok := t.Notes[tid]
	if !ok {
		n = &Tnote_t{Alive: true}
		t.Notes[tid] = n
	}
	return n
}

/// SetCurrent installs p as tid's thread note. Panics if tid already
/// has one; a thread's note is created once, at thread-start.
func (t *Threadinfo_t) SetCurrent(tid defs.Tid_t, p *Tnote_t) {
	if p == nil {
		panic("nuts")
	}
	t.Lock()
	defer t.Unlock()
	if _, ok := t.Notes[tid]; ok {
		panic("nuts")
	}
	t.Notes[tid] = p
}

/// ClearCurrent removes tid's thread note, at thread exit.
func (t *Threadinfo_t) ClearCurrent(tid defs.Tid_t) {
	t.Lock()
	defer t.Unlock()
	if _, ok := t.Notes[tid]; !ok {
		panic("nuts")
	}
	delete(t.Notes, tid)
}
