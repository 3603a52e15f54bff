package proc

import "defs"

/// waitpid's options bits.
const (
	WNOHANG   = 0x1
	WUNTRACED = 0x2
)

/// _MKWAIT_EXIT encodes a normal exit's code into the wire status word
/// waitpid hands back, low byte reserved for the signal-terminated case
/// (all zero here) and the next byte carrying the exit code.
func _MKWAIT_EXIT(code int) int {
	return (code & 0xff) << 8
}

/// _MKWAIT_SIG encodes a signal-terminated exit; the low 7 bits carry
/// the signal number, distinguishing it from _MKWAIT_EXIT's always-zero
/// low byte.
func _MKWAIT_SIG(code int) int {
	return code & 0x7f
}

/// WIFEXITED reports whether status encodes a normal exit.
func WIFEXITED(status int) bool {
	return status&0x7f == 0
}

/// WEXITSTATUS extracts the exit code from a normal-exit status.
func WEXITSTATUS(status int) int {
	return (status >> 8) & 0xff
}

/// WIFSIGNALED reports whether status encodes a signal-terminated exit.
func WIFSIGNALED(status int) bool {
	return !WIFEXITED(status)
}

/// WTERMSIG extracts the terminating signal from a signaled status.
func WTERMSIG(status int) int {
	return status & 0x7f
}

/// Waitpid waits for the direct child named by pid to exit, reaps it,
/// and reports its encoded exit status through status. WNOHANG makes a
/// not-yet-exited child return (0, 0) instead of blocking.
///
/// Lock ownership for target.exitLock is claimed under parent.Tid(), the
/// identity of the thread calling Waitpid, while Exit (run by the
/// target's own thread) claims it under target.Tid(). The two sides
/// thus never present the same tid to the mutex or its spinlock.
func Waitpid(parent *Process, pid Pid_t, status *int, options int) (Pid_t, defs.Err_t) {
	if options != 0 && options != WNOHANG && options != WUNTRACED {
		return 0, -defs.EINVAL
	}
	if status == nil {
		return 0, -defs.EFAULT
	}
	if pid < PID_MIN || pid >= PID_MAX {
		return 0, -defs.ESRCH
	}

	target := Table.lookup(pid)
	if target == nil {
		return 0, -defs.ESRCH
	}
	if target.Ppid != parent.Pid {
		return 0, -defs.ECHILD
	}

	ptid := parent.Tid()
	target.exitLock.Acquire(ptid)
	for !target.exitFlag.Load() {
		if options == WNOHANG {
			target.exitLock.Release(ptid)
			*status = 0
			return 0, 0
		}
		target.exitCv.Wait(ptid, target.exitLock)
	}
	code := target.exitCode
	target.exitLock.Release(ptid)

	if target.As != nil {
		target.As.Destroy(ptid)
	}
	// Fold the reaped child's CPU accounting into the parent's, the way a
	// real wait4 accumulates a child's rusage into its parent's cru*
	// fields; the only place in this core where Process.Accnt is ever
	// read after Exit finalizes it.
	parent.Accnt.Add(&target.Accnt)
	Table.reap(target.Pid)

	*status = code
	return target.Pid, 0
}
