package proc

import (
	"defs"
	"fd"
)

/// TrapFrame is the saved user-mode register state at a syscall trap;
/// the machine-specific calling convention (which registers hold the
/// syscall number, return value, program counter) is an external
/// collaborator's concern; core code only ever calls these methods.
/// Grounded on process_syscalls.c's child_forkentry and sys_execv,
/// which do the MIPS-specific equivalents inline.
type TrapFrame interface {
	/// Clone returns a deep copy suitable for handing to a child
	/// thread; fork copies the parent's trap frame verbatim.
	Clone() TrapFrame
	/// SetSyscallReturn zeroes the syscall return registers (v0/a3 in
	/// the convention child_forkentry follows) so the child observes
	/// a 0 return from fork, and advances the program counter past
	/// the trapping syscall instruction.
	SetSyscallReturn()
	/// ResumeUser is the non-returning jump into user mode using this
	/// trap frame's current register contents, as child_forkentry
	/// does via mips_usermode after installing the child's address
	/// space.
	ResumeUser()
	/// EnterUser is the non-returning jump into user mode exec uses:
	/// argc and the argv/envp/sp addresses on the freshly built user
	/// stack, and the ELF entry point, exactly as sys_execv's call to
	/// enter_new_process does.
	EnterUser(argc int, argv, envp, sp, entry uintptr)
}

/// Fork creates a child of parent: it clones the trap frame, deep-copies
/// the address space, allocates a new Process in the table, duplicates
/// the file table, and starts the child's thread. Failure at any stage
/// releases everything already allocated, in LIFO order, before
/// returning the failing stage's error (ENOMEM from the address-space
/// copy, EMPROC from a full process table, or the descriptor's own
/// reopen error), fixing a trap-frame leak on failure present in the
/// source this is ported from.
func Fork(parent *Process, tf TrapFrame) (Pid_t, defs.Err_t) {
	tid := parent.Tid()
	childtf := tf.Clone()

	childas, err := parent.As.Copy(tid)
	if err != 0 {
		return 0, err
	}

	child, err := Table.allocPID(parent.Name, parent.Pid)
	if err != 0 {
		childas.Destroy(tid)
		return 0, err
	}
	child.As = childas
	child.cm = parent.cm

	parentCwd, err := copyCwd(parent.cwd)
	if err != 0 {
		Table.reap(child.Pid)
		childas.Destroy(tid)
		return 0, err
	}
	child.cwd = parentCwd

	parent.fdMu.Lock()
	for fdnum, f := range parent.fds {
		nf, ferr := fd.Copyfd(f)
		if ferr != 0 {
			parent.fdMu.Unlock()
			for _, cf := range child.fds {
				fd.Close_panic(cf)
			}
			fd.Close_panic(child.cwd.Fd)
			Table.reap(child.Pid)
			childas.Destroy(tid)
			return 0, ferr
		}
		child.fds[fdnum] = nf
	}
	parent.fdMu.Unlock()

	childtf.SetSyscallReturn()
	go func() {
		child.As.Activate()
		childtf.ResumeUser()
	}()

	return child.Pid, 0
}

/// copyCwd duplicates a Cwd_t the way fork inherits a working directory:
/// the fd is reopened (bumping the underlying vnode's ref_count), the
/// path is shared by value since ustr.Ustr is treated as immutable.
func copyCwd(parent *fd.Cwd_t) (*fd.Cwd_t, defs.Err_t) {
	parent.Lock()
	defer parent.Unlock()
	nf, err := fd.Copyfd(parent.Fd)
	if err != 0 {
		return nil, err
	}
	return &fd.Cwd_t{Fd: nf, Path: parent.Path}, 0
}
