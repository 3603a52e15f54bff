// Package proc implements process lifecycle management: a fixed-size
// process table indexed by pid, fork/exec/waitpid/exit, sbrk, and the
// per-process file-descriptor table and working directory. Thread
// scheduling, trap entry, and the VFS/ELF loader are external
// collaborators reached only through the TrapFrame, Opener_i, and
// DirOpener_i interfaces defined alongside the operations that use them.
package proc

import (
	"sync"
	"sync/atomic"
	"time"

	"accnt"
	"defs"
	"fd"
	"limits"
	"lock"
	"mem"
	"tinfo"
	"vm"
)

/// Pid_t indexes the process table; a Process's pid doubles as its
/// defs.Tid_t for lock ownership (see defs.Tid_t's doc comment).
type Pid_t int

const (
	/// PID_MIN is the first pid the allocator ever hands out; 0 and 1
	/// are reserved (0 means "no thread" to the lock package, 1 is
	/// conventionally init in a Unix-like system though this core
	/// never actually spawns it).
	PID_MIN Pid_t = 2
	/// PID_MAX is one past the last valid pid.
	PID_MAX Pid_t = 256
)

/// Process is a live or zombie process: identity, address space,
/// file-descriptor table, working directory, CPU accounting, and the
/// exit_lock/exit_cv/exit_flag/exit_code rendezvous fork/exit/waitpid
/// use to synchronize.
type Process struct {
	Pid  Pid_t
	Ppid Pid_t
	Name string

	As *vm.AddressSpace
	cm *mem.Coremap_t

	fdMu sync.Mutex
	fds  map[int]*fd.Fd_t
	cwd  *fd.Cwd_t

	Accnt      accnt.Accnt_t
	startNanos int64 // accnt.Accnt_t.Now() at allocPID, finalized by Exit into Accnt.Sysns

	exitLock *lock.Mutex_t
	exitCv   *lock.CondVar_t
	// exitFlag is read by Exit's cross-process parent-liveness check from a
	// goroutine that is neither the parent's own thread nor the parent's
	// sole authorized waiter, so it cannot be guarded by exitLock (exitLock's
	// identity is claimed under a process's own defs.Tid_t; a third party
	// peeking at it under that same tid would collide with a concurrent
	// legitimate acquire under that tid and trip the non-recursive-acquire
	// assert). atomic.Bool lets that peek happen lock-free instead.
	exitFlag atomic.Bool
	exitCode int
}

/// Tid returns the defs.Tid_t this process's main thread uses to claim
/// the lock package's primitives: its pid, widened.
func (p *Process) Tid() defs.Tid_t {
	return defs.Tid_t(p.Pid)
}

/// Cwd returns the process's current-working-directory tracker.
func (p *Process) Cwd() *fd.Cwd_t {
	return p.cwd
}

/// ProcessTable_t is the fixed-size pid→*Process mapping. A slot is
/// non-nil iff that pid currently names a live or zombie process;
/// reaping (by waitpid or exit's self-reap path) clears it. Unlike the
/// source this is ported from, a table lock is explicit: that source
/// assumes a strict single physical CPU, but goroutines simulating this
/// kernel's "uniprocessor" may run on real OS threads concurrently.
type ProcessTable_t struct {
	mu    sync.Mutex
	procs [PID_MAX]*Process
	n     int
}

/// Table is the system-wide process table.
var Table = &ProcessTable_t{}

/// Threads tracks per-process liveness bookkeeping (see tinfo.Tnote_t),
/// keyed the same way every lock primitive already identifies a caller:
/// by defs.Tid_t. Every live process has a thread note from allocation to
/// reap; nothing in this core ever kills a thread externally (that
/// protocol belongs to a fuller port), so only the Alive lifecycle is
/// exercised here.
var Threads = &tinfo.Threadinfo_t{}

func init() {
	Threads.Init()
}

/// allocPID scans from PID_MIN for the first empty slot and installs a
/// freshly allocated Process there, subject to limits.Syslimit.Sysprocs.
func (t *ProcessTable_t) allocPID(name string, ppid Pid_t) (*Process, defs.Err_t) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.n >= limits.Syslimit.Sysprocs {
		limits.Lhits++
		return nil, -defs.EMPROC
	}

	for i := PID_MIN; i < PID_MAX; i++ {
		if t.procs[i] == nil {
			p := &Process{
				Pid:        i,
				Ppid:       ppid,
				Name:       name,
				fds:        make(map[int]*fd.Fd_t),
				startNanos: time.Now().UnixNano(),
				exitLock:   lock.MkMutex("exit"),
				exitCv:     lock.MkCondVar("exit"),
			}
			t.procs[i] = p
			t.n++
			Threads.SetCurrent(p.Tid(), &tinfo.Tnote_t{Alive: true})
			return p, 0
		}
	}
	limits.Lhits++
	return nil, -defs.EMPROC
}

/// lookup returns the process named by pid, or nil.
func (t *ProcessTable_t) lookup(pid Pid_t) *Process {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.procs[pid]
}

/// Lookup returns the process named by pid, or nil; the public face of
/// lookup, for callers outside the package (boot code, tests).
func (t *ProcessTable_t) Lookup(pid Pid_t) *Process {
	return t.lookup(pid)
}

/// reap clears pid's slot, dropping the table's reference to a process
/// that has already been fully torn down, either because waitpid or
/// exit's self-reap path finished with it, or because Fork is unwinding
/// a partially constructed child after a later stage failed.
func (t *ProcessTable_t) reap(pid Pid_t) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.procs[pid] != nil {
		tid := t.procs[pid].Tid()
		t.procs[pid] = nil
		t.n--
		Threads.ClearCurrent(tid)
	}
}

/// MkInitProcess allocates the first process in the table: no parent,
/// an empty address space, and a root working directory rooted at
/// rootfd. Used only by boot to seed the table before any fork.
func MkInitProcess(cm *mem.Coremap_t, rootfd *fd.Fd_t) (*Process, defs.Err_t) {
	p, err := Table.allocPID("init", 0)
	if err != 0 {
		return nil, err
	}
	p.cm = cm
	p.As = vm.Create(cm)
	p.cwd = fd.MkRootCwd(rootfd)
	return p, 0
}

/// Rusage returns a serialized rusage snapshot of the process's CPU
/// accounting; see accnt.Accnt_t.To_rusage. A supplemented feature:
/// the distillation this core is built from drops CPU accounting as
/// orthogonal to the VM/concurrency engineering, but nothing excludes
/// it and waitpid/exit are natural points to finalize it.
func (p *Process) Rusage() []uint8 {
	return p.Accnt.Fetch()
}
