// Package vm implements per-process address spaces: an ordered region
// list, a demand-paged vpn→ppn mapping table, and a simulated hardware TLB.
// COW, file-backed mappings, and page replacement under memory pressure are
// not implemented.
package vm

import (
	"defs"
	"mem"
	"util"
)

/// VPN is a page-aligned virtual address used as a page-mapping key.
type VPN uintptr

/// PPN is the physical address of the backing frame for a VPN.
type PPN mem.Pa_t

func pagedown(v uintptr) uintptr {
	return uintptr(util.Rounddown(int(v), mem.PGSIZE))
}

/// Region is a permission-tagged span of virtual address space. Permission
/// bits are accepted but never enforced in the simulated TLB write, an
/// acknowledged corner.
type Region struct {
	Start   uintptr
	Len     uintptr
	R, W, X bool
}

/// End returns the address one past the region's last byte.
func (r Region) End() uintptr {
	return r.Start + r.Len
}

/// AddressSpace is a process's virtual memory: the region list, the
/// demand-paged mapping table, the heap window, and a private simulated
/// TLB. Mapping lookup and allocation are not protected by a per-AS lock
/// in this core: a single logical CPU is assumed throughout; a
/// multiprocessor port would need one.
type AddressSpace struct {
	cm *mem.Coremap_t

	regions   []Region
	pageMap   map[VPN]PPN
	heapStart uintptr
	heapEnd   uintptr

	Tlb *TLB
}

/// Create returns an empty address space backed by cm.
func Create(cm *mem.Coremap_t) *AddressSpace {
	return &AddressSpace{
		cm:      cm,
		pageMap: make(map[VPN]PPN),
		Tlb:     NewTLB(),
	}
}

/// Copy deep-copies src: the region list is duplicated entry-for-entry,
/// and every page mapping gets a freshly allocated frame whose contents
/// are copied from the source frame through the coremap's direct-mapped
/// window.
func (src *AddressSpace) Copy(tid defs.Tid_t) (*AddressSpace, defs.Err_t) {
	dst := Create(src.cm)
	dst.regions = append(dst.regions, src.regions...)
	for vpn, ppn := range src.pageMap {
		newpa, ok := src.cm.Alloc(tid, 1)
		if !ok {
			dst.Destroy(tid)
			return nil, -defs.ENOMEM
		}
		src.cm.Zero(newpa)
		copy(src.cm.Dmap(newpa), src.cm.Dmap(mem.Pa_t(ppn)))
		dst.pageMap[vpn] = PPN(newpa)
	}
	dst.heapStart = src.heapStart
	dst.heapEnd = src.heapEnd
	return dst, 0
}

/// DefineRegion page-aligns [vaddr, vaddr+size) outward, appends the
/// region, and plants the heap immediately after it; the last call to
/// DefineRegion thus determines where the heap begins.
/// Permission bits are recorded but not enforced.
func (as *AddressSpace) DefineRegion(vaddr, size uintptr, r, w, x bool) {
	base := pagedown(vaddr)
	end := uintptr(util.Roundup(int(vaddr+size), mem.PGSIZE))
	reg := Region{Start: base, Len: end - base, R: r, W: w, X: x}
	as.regions = append(as.regions, reg)
	as.heapStart = reg.End()
	as.heapEnd = reg.End()
}

/// PrepareLoad is a no-op hook: permission-tightening before a loader
/// writes a region belongs here in a production VM, left unimplemented as
/// an explicit hook for a future permission-enforcing port.
func (as *AddressSpace) PrepareLoad(Region) {}

/// CompleteLoad is a no-op hook, the counterpart of PrepareLoad.
func (as *AddressSpace) CompleteLoad(Region) {}

/// DefineStack returns the fixed top-of-user-stack address.
func (as *AddressSpace) DefineStack() uintptr {
	return mem.USERSTACK
}

/// Destroy frees the region list and every mapped frame, handing each
/// frame's physical address back to the coremap, and clears the
/// page-mapping table.
func (as *AddressSpace) Destroy(tid defs.Tid_t) {
	for _, ppn := range as.pageMap {
		as.cm.Free(tid, mem.Pa_t(ppn))
	}
	as.pageMap = nil
	as.regions = nil
}

/// Activate flushes every TLB entry, as happens on a context switch into
/// this address space.
func (as *AddressSpace) Activate() {
	as.Tlb.FlushAll()
}

/// HeapStart and HeapEnd report the current heap window, used by Sbrk.
func (as *AddressSpace) HeapStart() uintptr { return as.heapStart }
func (as *AddressSpace) HeapEnd() uintptr   { return as.heapEnd }

/// SetHeapEnd adjusts the heap window's end, used by Sbrk after validating
/// the requested size.
func (as *AddressSpace) SetHeapEnd(end uintptr) {
	as.heapEnd = end
}

/// inAnyRegion reports whether faddr lies within some defined region.
func (as *AddressSpace) inAnyRegion(faddr uintptr) bool {
	for _, r := range as.regions {
		if faddr >= r.Start && faddr < r.End() {
			return true
		}
	}
	return false
}
