package proc

/// Exit marks p as exited, encoding code (and whether it was a signal
/// termination) into exit_code, then either wakes a waiting parent or,
/// if the parent has already exited itself, self-reaps, the two tricky
/// halves of the exit/wait rendezvous.
func Exit(p *Process, code int, isSig bool) {
	tid := p.Tid()

	p.Accnt.Finish(int(p.startNanos))

	p.exitLock.Acquire(tid)
	p.exitFlag.Store(true)
	if isSig {
		p.exitCode = _MKWAIT_SIG(code)
	} else {
		p.exitCode = _MKWAIT_EXIT(code)
	}

	// The parent-liveness check reads parent.exitFlag directly, never
	// through parent.exitLock: this goroutine is p's own thread, not the
	// parent's, so it holds no legitimate claim to lock identity under
	// parent.Tid(). Two children of the same parent can race this check
	// concurrently, and parent.exitFlag is an atomic.Bool precisely so that
	// races here never contend with (or get mistaken by Mutex_t's
	// recursive-acquire assert for) the parent's own exitLock use.
	parent := Table.lookup(p.Ppid)
	parentAlive := parent != nil && !parent.exitFlag.Load()

	if parentAlive {
		p.exitCv.Broadcast(tid, p.exitLock)
		p.exitLock.Release(tid)
		return
	}

	// Parent already gone: nobody will ever call Waitpid(p), so p
	// reaps itself instead of becoming a permanent zombie.
	p.exitLock.Release(tid)
	if p.As != nil {
		p.As.Destroy(tid)
	}
	Table.reap(p.Pid)
}
