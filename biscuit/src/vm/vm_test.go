package vm

import (
	"testing"

	"defs"
	"mem"
)

func mkTestAS() (*mem.Coremap_t, *AddressSpace) {
	cm := mem.MkCoremap(256*mem.PGSIZE, 0)
	return cm, Create(cm)
}

func TestDefineRegionPlantsHeapAfterLastRegion(t *testing.T) {
	_, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE), true, false, true)
	if as.HeapStart() != 0x401000 {
		t.Fatalf("heap start = %#x, want %#x", as.HeapStart(), 0x401000)
	}
	if as.HeapEnd() != as.HeapStart() {
		t.Fatalf("fresh heap end %#x != heap start %#x", as.HeapEnd(), as.HeapStart())
	}

	as.DefineRegion(0x500000, 10, false, true, false)
	// the second region rounds 10 bytes up to a full page and becomes the
	// new heap plant site.
	if as.HeapStart() != 0x501000 {
		t.Fatalf("heap start after second region = %#x, want %#x", as.HeapStart(), 0x501000)
	}
}

func TestDefineStackReturnsUserstack(t *testing.T) {
	_, as := mkTestAS()
	if as.DefineStack() != mem.USERSTACK {
		t.Fatalf("DefineStack() = %#x, want USERSTACK %#x", as.DefineStack(), mem.USERSTACK)
	}
}

func TestFaultNilAddressSpaceReturnsEFAULT(t *testing.T) {
	err := Fault(nil, defs.NewTid(), FaultREAD, 0x400000)
	if err != -defs.EFAULT {
		t.Fatalf("fault on nil as = %v, want EFAULT", err)
	}
}

func TestFaultInsideRegionInstallsMapping(t *testing.T) {
	_, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE), true, true, true)
	tid := defs.NewTid()

	if err := Fault(as, tid, FaultWRITE, 0x400000); err != 0 {
		t.Fatalf("fault inside region failed: %v", err)
	}
	if _, ok := as.Tlb.Lookup(0x400000); !ok {
		t.Fatal("fault did not install a tlb entry")
	}
}

func TestFaultInsideHeapWindowInstallsMapping(t *testing.T) {
	_, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE), true, false, true)
	tid := defs.NewTid()
	as.SetHeapEnd(as.HeapEnd() + uintptr(mem.PGSIZE))

	if err := Fault(as, tid, FaultWRITE, as.HeapStart()); err != 0 {
		t.Fatalf("fault inside heap window failed: %v", err)
	}
}

func TestFaultPastHeapBeforeStackIsEFAULT(t *testing.T) {
	_, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE), true, false, true)
	tid := defs.NewTid()

	// far past the heap end, nowhere near the stack window.
	gap := as.HeapEnd() + uintptr(mem.PGSIZE)*1_000_000
	if err := Fault(as, tid, FaultREAD, gap); err != -defs.EFAULT {
		t.Fatalf("fault in unmapped gap = %v, want EFAULT", err)
	}
}

func TestFaultInStackWindowInstallsMapping(t *testing.T) {
	_, as := mkTestAS()
	tid := defs.NewTid()
	stackAddr := mem.USERSTACK - uintptr(mem.PGSIZE)

	if err := Fault(as, tid, FaultWRITE, stackAddr); err != 0 {
		t.Fatalf("fault in stack window failed: %v", err)
	}
}

func TestFaultAtOrAboveUserstackIsEFAULT(t *testing.T) {
	_, as := mkTestAS()
	tid := defs.NewTid()
	if err := Fault(as, tid, FaultREAD, mem.USERSTACK); err != -defs.EFAULT {
		t.Fatalf("fault at USERSTACK = %v, want EFAULT", err)
	}
}

func TestFaultBeforeAnyRegionIsEFAULT(t *testing.T) {
	_, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE), true, false, true)
	tid := defs.NewTid()
	if err := Fault(as, tid, FaultREAD, 0x100000); err != -defs.EFAULT {
		t.Fatalf("fault before any region = %v, want EFAULT", err)
	}
}

func TestFaultReadonlyPanics(t *testing.T) {
	_, as := mkTestAS()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on READONLY fault")
		}
	}()
	Fault(as, defs.NewTid(), FaultREADONLY, 0x400000)
}

func TestFaultIsIdempotentOnSecondTouch(t *testing.T) {
	_, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE), true, true, true)
	tid := defs.NewTid()

	if err := Fault(as, tid, FaultWRITE, 0x400000); err != 0 {
		t.Fatalf("first fault failed: %v", err)
	}
	first := as.pageMap[VPN(0x400000)]
	if err := Fault(as, tid, FaultWRITE, 0x400000); err != 0 {
		t.Fatalf("second fault failed: %v", err)
	}
	if as.pageMap[VPN(0x400000)] != first {
		t.Fatal("second fault on the same page allocated a new frame")
	}
}

// TestAddressSpaceCopyIsDeep mirrors the invariant that Copy must produce
// distinct physical frames with identical contents, not aliases.
func TestAddressSpaceCopyIsDeep(t *testing.T) {
	_, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE), true, true, true)
	tid := defs.NewTid()

	if err := Fault(as, tid, FaultWRITE, 0x400000); err != 0 {
		t.Fatalf("fault failed: %v", err)
	}
	srcPPN := as.pageMap[VPN(0x400000)]
	srcPage := as.cm.Dmap(mem.Pa_t(srcPPN))
	for i := range srcPage {
		srcPage[i] = 0xab
	}

	dst, err := as.Copy(tid)
	if err != 0 {
		t.Fatalf("copy failed: %v", err)
	}
	if dst.HeapStart() != as.HeapStart() || dst.HeapEnd() != as.HeapEnd() {
		t.Fatal("copy did not preserve heap window")
	}

	dstPPN := dst.pageMap[VPN(0x400000)]
	if dstPPN == srcPPN {
		t.Fatal("copy aliased the source frame instead of allocating a new one")
	}
	dstPage := as.cm.Dmap(mem.Pa_t(dstPPN))
	for i, b := range dstPage {
		if b != 0xab {
			t.Fatalf("copied page byte %d = %#x, want 0xab", i, b)
		}
	}

	// mutating the copy must not affect the original.
	dstPage[0] = 0xcd
	if as.cm.Dmap(mem.Pa_t(srcPPN))[0] != 0xab {
		t.Fatal("mutating the copy's frame mutated the source's frame")
	}
}

func TestAddressSpaceDestroyFreesFrames(t *testing.T) {
	cm, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE), true, true, true)
	tid := defs.NewTid()
	if err := Fault(as, tid, FaultWRITE, 0x400000); err != 0 {
		t.Fatalf("fault failed: %v", err)
	}
	before := cm.UsedBytes(tid)
	if before == 0 {
		t.Fatal("fault did not consume any frames")
	}
	as.Destroy(tid)
	if got := cm.UsedBytes(tid); got != before-mem.PGSIZE {
		t.Fatalf("used bytes after destroy = %d, want %d", got, before-mem.PGSIZE)
	}
}

func TestActivateFlushesTLB(t *testing.T) {
	_, as := mkTestAS()
	as.Tlb.Install(0x400000, 0x1000)
	if _, ok := as.Tlb.Lookup(0x400000); !ok {
		t.Fatal("install did not take")
	}
	as.Activate()
	if _, ok := as.Tlb.Lookup(0x400000); ok {
		t.Fatal("activate did not flush the tlb")
	}
}

func TestTLBInstallAndLookup(t *testing.T) {
	tlb := NewTLB()
	if _, ok := tlb.Lookup(0x1000); ok {
		t.Fatal("fresh tlb should have no entries")
	}
	tlb.Install(0x1000, 0x2000)
	pa, ok := tlb.Lookup(0x1000)
	if !ok {
		t.Fatal("lookup after install failed")
	}
	if pa != 0x2000 {
		t.Fatalf("lookup returned %#x, want %#x", pa, 0x2000)
	}
}

func TestTLBFlushAllInvalidatesEverything(t *testing.T) {
	tlb := NewTLB()
	for i := uintptr(0); i < tlbSize; i++ {
		tlb.Install(i*uintptr(mem.PGSIZE), i)
	}
	tlb.FlushAll()
	for i := uintptr(0); i < tlbSize; i++ {
		if _, ok := tlb.Lookup(i * uintptr(mem.PGSIZE)); ok {
			t.Fatal("entry survived FlushAll")
		}
	}
}

func TestTLBShootdownPanics(t *testing.T) {
	tlb := NewTLB()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on shootdown")
		}
	}()
	tlb.Shootdown()
}

func TestUserbufWriteThenReadRoundTrip(t *testing.T) {
	_, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE)*2, true, true, true)
	tid := defs.NewTid()

	msg := []byte("hello from a userbuf write")
	wb := MkUserbuf(as, tid, 0x400000, len(msg))
	n, err := wb.Uiowrite(msg)
	if err != 0 {
		t.Fatalf("uiowrite failed: %v", err)
	}
	if n != len(msg) {
		t.Fatalf("uiowrite copied %d bytes, want %d", n, len(msg))
	}

	dst := make([]byte, len(msg))
	rb := MkUserbuf(as, tid, 0x400000, len(dst))
	n, err = rb.Uioread(dst)
	if err != 0 {
		t.Fatalf("uioread failed: %v", err)
	}
	if n != len(dst) || string(dst) != string(msg) {
		t.Fatalf("uioread got %q, want %q", dst, msg)
	}
}

// TestUserbufCrossesPageBoundary writes a buffer that starts 64 bytes
// before a page boundary and spans three pages, and reads it back,
// exercising the per-page Fault/Dmap loop in tx.
func TestUserbufCrossesPageBoundary(t *testing.T) {
	_, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE)*3, true, true, true)
	tid := defs.NewTid()

	size := mem.PGSIZE + 128
	src := make([]byte, size)
	for i := range src {
		src[i] = byte(i)
	}
	start := uintptr(mem.PGSIZE) - 64 + 0x400000

	wb := MkUserbuf(as, tid, start, size)
	if n, err := wb.Uiowrite(src); err != 0 || n != size {
		t.Fatalf("uiowrite across page boundary: n=%d err=%v", n, err)
	}

	dst := make([]byte, size)
	rb := MkUserbuf(as, tid, start, size)
	if n, err := rb.Uioread(dst); err != 0 || n != size {
		t.Fatalf("uioread across page boundary: n=%d err=%v", n, err)
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, dst[i], src[i])
		}
	}
}

func TestUserbufRemain(t *testing.T) {
	_, as := mkTestAS()
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE), true, true, true)
	tid := defs.NewTid()
	ub := MkUserbuf(as, tid, 0x400000, 10)
	if ub.Remain() != 10 {
		t.Fatalf("remain = %d, want 10", ub.Remain())
	}
	buf := make([]byte, 4)
	ub.Uioread(buf)
	if ub.Remain() != 6 {
		t.Fatalf("remain after partial read = %d, want 6", ub.Remain())
	}
}

func TestMkUserbufNegativeLengthPanics(t *testing.T) {
	_, as := mkTestAS()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on negative userbuf length")
		}
	}()
	MkUserbuf(as, defs.NewTid(), 0x400000, -1)
}
