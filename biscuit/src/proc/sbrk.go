package proc

import (
	"defs"
	"mem"
	"util"
)

/// Sbrk adjusts p's heap break by amount (which may be negative) and
/// returns the break's previous value. Shrinking below heap_start is
/// refused. Serialized by exit_lock for lack of a dedicated
/// address-space lock; process_syscalls.c's sys_sbrk makes the same
/// choice, reusing curproc->exitlock rather than introducing a new one.
/// The new pages are not actually mapped here: growth only moves
/// heap_end, and vm.Fault lazily allocates and zeroes each page the
/// first time it's touched, which already implements the lazy mapping
/// a proper sbrk needs.
func Sbrk(p *Process, amount int) (uintptr, defs.Err_t) {
	tid := p.Tid()
	p.exitLock.Acquire(tid)
	defer p.exitLock.Release(tid)

	as := p.As
	ret := as.HeapEnd()

	newEnd := int(as.HeapEnd()) + amount
	if newEnd < int(as.HeapStart()) {
		return 0, -defs.EINVAL
	}

	aligned := uintptr(util.Roundup(newEnd, mem.PGSIZE))
	as.SetHeapEnd(aligned)
	return ret, 0
}
