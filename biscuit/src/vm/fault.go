package vm

import (
	"defs"
	"mem"
)

/// FaultKind enumerates the trap-reported reasons vm_fault is entered
/// (the fault handler).
type FaultKind int

const (
	FaultREAD FaultKind = iota
	FaultWRITE
	FaultREADONLY
)

/// stackWindowBytes is the width, below USERSTACK, of the implicit
/// user-stack growth region: exactly 1024 pages below USERSTACK.
const stackWindowBytes = uintptr(mem.PGSIZE) * 1024

/// Fault services a single page fault for this address space: it bounds-
/// checks faddr against the heap/region/stack windows, installs a demand-
/// paged mapping on first touch, and writes a TLB entry for the result.
/// as may be nil, modeling "no current address space" during early boot;
/// vm_fault returns a fault-fault in that case, same as upstream.
func Fault(as *AddressSpace, tid defs.Tid_t, kind FaultKind, faddr uintptr) defs.Err_t {
	faddr = pagedown(faddr)

	if as == nil {
		return -defs.EFAULT
	}

	switch kind {
	case FaultREADONLY:
		panic("vm: unexpected READONLY fault, every mapping is created writable")
	case FaultREAD, FaultWRITE:
		if err := as.checkBounds(faddr); err != 0 {
			return err
		}
	default:
		return -defs.EINVAL
	}

	vpn := VPN(faddr)
	ppn, ok := as.pageMap[vpn]
	if !ok {
		pa, ok := as.cm.Alloc(tid, 1)
		if !ok {
			return -defs.ENOMEM
		}
		as.cm.Zero(pa)
		ppn = PPN(pa)
		as.pageMap[vpn] = ppn
	}

	as.Tlb.Install(faddr, uintptr(ppn))
	return 0
}

/// checkBounds implements the READ/WRITE fault dispatch: legal
/// accesses are within the stack window just below USERSTACK, or within
/// some defined region below heap_start, or within the heap window
/// [heap_start, heap_end).
func (as *AddressSpace) checkBounds(faddr uintptr) defs.Err_t {
	stackFloor := mem.USERSTACK - stackWindowBytes
	switch {
	case faddr >= as.heapEnd && faddr < stackFloor:
		return -defs.EFAULT
	case faddr >= mem.USERSTACK:
		return -defs.EFAULT
	case faddr < as.heapStart:
		if !as.inAnyRegion(faddr) {
			return -defs.EFAULT
		}
		return 0
	default:
		// heap window [heap_start, heap_end) or the stack window
		// [stack_floor, USERSTACK), both legal.
		return 0
	}
}
