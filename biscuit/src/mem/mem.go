// Package mem implements the kernel's physical memory allocator: a dense
// coremap over a simulated RAM arena, allocated and freed in contiguous
// frame runs (see DESIGN.md for the correspondence with
// kern/arch/mips/vm/mipsvm.c's coremap).
package mem

import (
	"fmt"
	"sync"

	"defs"
	"lock"
	"oommsg"
	"stats"
	"util"
)

/// PGSHIFT is the base-2 exponent for the page size.
const PGSHIFT uint = 12

/// PGSIZE is the size of a single page in bytes.
const PGSIZE int = 1 << PGSHIFT

/// PGOFFSET masks offsets within a page.
const PGOFFSET Pa_t = Pa_t(PGSIZE) - 1

/// PGMASK masks the page number of an address.
const PGMASK Pa_t = ^PGOFFSET

/// Pa_t represents a physical address: a byte offset into the RAM arena.
type Pa_t uintptr

/// frameState records whether a coremap frame is free or allocated.
type frameState uint8

const (
	frameFree frameState = iota
	frameFixed
)

/// frame_t is one entry of the coremap. chunk_size is only meaningful on the
/// first frame of an allocated run; it records how many frames free(base)
/// must release.
type frame_t struct {
	state      frameState
	chunk_size int
}

/// Coremap_t is the dense physical-frame allocator: a simulated RAM arena
/// plus a parallel array of frame_t recording allocation state.
/// coremap_base_frame is the index of the first frame the allocator may
/// hand out; frames before it back the coremap/kernel itself in a real
/// port, and here are simply reserved.
type Coremap_t struct {
	ram   []byte
	sl    lock.Spinlock
	boot  bool // one-shot flag: true once VM subsystem has booted
	boot1 sync.Once

	frames             []frame_t
	coremap_base_frame int
	used_frames        int

	// Stat counters, gated by stats.Stats exactly like the teacher's own
	// Counter_t fields (see stats.Stats2String), no-ops unless that flag
	// is flipped on, so production builds pay no cost for them.
	Nallocs stats.Counter_t
	Nfrees  stats.Counter_t
}

/// MkCoremap allocates a simulated RAM arena of ramBytes (rounded down to a
/// whole number of pages) and its coremap, reserving reservedFrames at the
/// low end (standing in for the memory the kernel image and the coremap
/// itself occupy in a real port).
func MkCoremap(ramBytes int, reservedFrames int) *Coremap_t {
	nframes := ramBytes / PGSIZE
	defs.Assert(reservedFrames <= nframes, "coremap: reserved frames exceed ram")
	cm := &Coremap_t{
		ram:                make([]byte, nframes*PGSIZE),
		frames:             make([]frame_t, nframes),
		coremap_base_frame: reservedFrames,
	}
	for i := 0; i < reservedFrames; i++ {
		cm.frames[i].state = frameFixed
	}
	return cm
}

/// Boot flips the one-shot flag that switches alloc/free/used_bytes from
/// the lockless pre-boot fast path (valid only while the kernel is known to
/// be single-threaded) to the locked path.
func (cm *Coremap_t) Boot() {
	cm.boot1.Do(func() { cm.boot = true })
}

func (cm *Coremap_t) withLock(tid defs.Tid_t, f func()) {
	if cm.boot {
		cm.sl.Acquire(tid)
		defer cm.sl.Release(tid)
	}
	f()
}

/// Alloc scans forward from coremap_base_frame for nframes consecutive FREE
/// frames, marks them FIXED, and stores nframes as the chunk_size of the
/// first frame. It returns the physical address of that first frame, or
/// false if no run of nframes free frames exists. First-fit, no
/// coalescing, O(frames) per call. tid is unused while the pre-boot fast
/// path is active; once Boot is called it identifies the caller to the
/// coremap's spinlock.
func (cm *Coremap_t) Alloc(tid defs.Tid_t, nframes int) (Pa_t, bool) {
	defs.Assert(nframes > 0, "coremap: alloc of non-positive frame count")
	var base Pa_t
	var ok bool
	cm.withLock(tid, func() {
		run := 0
		start := -1
		for i := cm.coremap_base_frame; i < len(cm.frames); i++ {
			if cm.frames[i].state == frameFree {
				if run == 0 {
					start = i
				}
				run++
				if run == nframes {
					for j := start; j < start+nframes; j++ {
						cm.frames[j].state = frameFixed
					}
					cm.frames[start].chunk_size = nframes
					cm.used_frames += nframes
					base = Pa_t(start * PGSIZE)
					ok = true
					return
				}
			} else {
				run = 0
				start = -1
			}
		}
	})
	if !ok {
		notifyOom(nframes * PGSIZE)
	} else {
		cm.Nallocs.Inc()
	}
	return base, ok
}

/// notifyOom is a best-effort, non-blocking nudge to anyone listening
/// on oommsg.OomCh for an allocation failure. A real reclaim daemon
/// would answer on Resume once it has freed something; absent a
/// listener this is a no-op rather than letting Alloc's caller block.
func notifyOom(need int) {
	select {
	case oommsg.OomCh <- oommsg.Oommsg_t{Need: need, Resume: make(chan bool, 1)}:
	default:
	}
}

/// Free releases the frame run that Alloc returned as base, reading its
/// remembered chunk_size and marking that many frames FREE again.
func (cm *Coremap_t) Free(tid defs.Tid_t, base Pa_t) {
	idx := int(base) / PGSIZE
	cm.withLock(tid, func() {
		defs.Assert(idx >= cm.coremap_base_frame && idx < len(cm.frames), "coremap: free of frame out of range")
		defs.Assert(cm.frames[idx].state == frameFixed, "coremap: double free")
		n := cm.frames[idx].chunk_size
		defs.Assert(n > 0, "coremap: free of non-chunk-base address")
		for j := idx; j < idx+n; j++ {
			cm.frames[j].state = frameFree
			cm.frames[j].chunk_size = 0
		}
		cm.used_frames -= n
	})
	cm.Nfrees.Inc()
}

/// UsedBytes counts the frames handed out by Alloc and not yet freed,
/// times page size. The reserved frames below coremap_base_frame are
/// FIXED but are not counted.
func (cm *Coremap_t) UsedBytes(tid defs.Tid_t) int {
	var bytes int
	cm.withLock(tid, func() {
		bytes = cm.used_frames * PGSIZE
	})
	return bytes
}

/// Dmap returns the direct-mapped byte slice backing physical address p,
/// standing in for the kernel direct-mapped window biscuit's Dmap provides
/// over real physical memory.
func (cm *Coremap_t) Dmap(p Pa_t) []byte {
	off := util.Rounddown(int(p), PGSIZE)
	if off < 0 || off+PGSIZE > len(cm.ram) {
		panic("dmap: address out of range")
	}
	return cm.ram[off : off+PGSIZE]
}

/// Zero fills the page at p with zero bytes.
func (cm *Coremap_t) Zero(p Pa_t) {
	pg := cm.Dmap(p)
	for i := range pg {
		pg[i] = 0
	}
}

/// Summary formats a one-line usage report, stdout-banner style.
func (cm *Coremap_t) Summary(tid defs.Tid_t) string {
	return fmt.Sprintf("coremap: %d/%d frames used (%d bytes)%s",
		cm.used_frames, len(cm.frames)-cm.coremap_base_frame, cm.UsedBytes(tid),
		stats.Stats2String(struct {
			Nallocs stats.Counter_t
			Nfrees  stats.Counter_t
		}{cm.Nallocs, cm.Nfrees}))
}
