package vm

import (
	"defs"
	"mem"
)

/// Userbuf_t assists copying between a kernel []byte and a span of user
/// virtual memory, one page at a time, driving Fault on first touch so
/// demand-paged pages materialize exactly as if the access came from a
/// real page-fault trap. The COW/locking machinery a hardware-PTE-backed
/// version would need is gone: an AddressSpace here has no lock of its own,
/// consistent with the single-logical-CPU corner it's built for.
type Userbuf_t struct {
	as     *AddressSpace
	tid    defs.Tid_t
	userva uintptr
	len    int
	off    int
}

/// MkUserbuf initializes a buffer over [uva, uva+n) in as.
func MkUserbuf(as *AddressSpace, tid defs.Tid_t, uva uintptr, n int) *Userbuf_t {
	if n < 0 {
		panic("negative length")
	}
	return &Userbuf_t{as: as, tid: tid, userva: uva, len: n}
}

/// Remain reports unconsumed bytes.
func (ub *Userbuf_t) Remain() int {
	return ub.len - ub.off
}

/// Uioread copies from user memory into dst, returning the number of bytes
/// copied and an error code.
func (ub *Userbuf_t) Uioread(dst []uint8) (int, defs.Err_t) {
	return ub.tx(dst, false)
}

/// Uiowrite copies src into user memory, returning the number of bytes
/// copied and an error code.
func (ub *Userbuf_t) Uiowrite(src []uint8) (int, defs.Err_t) {
	return ub.tx(src, true)
}

func (ub *Userbuf_t) tx(buf []uint8, write bool) (int, defs.Err_t) {
	ret := 0
	for len(buf) != 0 && ub.off != ub.len {
		va := ub.userva + uintptr(ub.off)
		kind := FaultREAD
		if write {
			kind = FaultWRITE
		}
		if err := Fault(ub.as, ub.tid, kind, va); err != 0 {
			return ret, err
		}
		pg := ub.as.cm.Dmap(mem.Pa_t(mem_pa(ub.as, va)))
		pgoff := int(va) % len(pg)
		avail := len(pg) - pgoff
		left := ub.len - ub.off
		if avail > left {
			avail = left
		}
		n := len(buf)
		if n > avail {
			n = avail
		}
		if write {
			n = copy(pg[pgoff:pgoff+avail], buf[:n])
		} else {
			n = copy(buf[:n], pg[pgoff:pgoff+avail])
		}
		buf = buf[n:]
		ub.off += n
		ret += n
	}
	return ret, 0
}

func mem_pa(as *AddressSpace, va uintptr) uintptr {
	vpn := VPN(pagedown(va))
	ppn, ok := as.pageMap[vpn]
	if !ok {
		panic("userbuf: page missing after fault")
	}
	return uintptr(ppn)
}
