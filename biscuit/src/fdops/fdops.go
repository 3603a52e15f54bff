// Package fdops declares the interfaces a file descriptor's operations and
// backing vnode must satisfy. The core process/fd machinery depends only on
// these interfaces; the VFS and ELF loader that implement them are
// external collaborators, reached only through here and never implemented
// beyond a test double (see proc.Loader_i for the loader side of the same
// boundary).
package fdops

import (
	"defs"
	"stat"
	"ustr"
)

/// Fdops_i is the operation set a file descriptor dispatches through.
/// Read/Write/Lseek move data and the seek offset; Reopen bumps the
/// underlying vnode's ref_count (used by fork and dup2); Close drops a
/// reference, destroying the vnode once it reaches zero.
type Fdops_i interface {
	Read(dst []uint8) (int, defs.Err_t)
	Write(src []uint8) (int, defs.Err_t)
	Lseek(off int, whence int) (int, defs.Err_t)
	Reopen() defs.Err_t
	Close() defs.Err_t
	Stat(*stat.Stat_t) defs.Err_t
}

/// Vnode_i is the filesystem object a path resolves to, with Lookup/Open
/// for path resolution. No code in this core calls it: exec and chdir
/// reach the VFS through proc.Opener_i and proc.DirOpener_i instead.
/// Everything else about a vnode (inode numbers, block layout, on-disk
/// format) belongs entirely to the collaborator.
type Vnode_i interface {
	Open(path ustr.Ustr, flags int, mode int) (Fdops_i, defs.Err_t)
	Lookup(name ustr.Ustr) (Vnode_i, defs.Err_t)
	Stat(*stat.Stat_t) defs.Err_t
}
