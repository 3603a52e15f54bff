// Package fd implements the process-visible side of the file descriptor
// table: Fd_t, a FileHandle consumer (the vnode itself is an external
// collaborator reached through fdops.Fdops_i), and Cwd_t, the per-process
// current-working-directory tracker.
package fd

import (
	"sync"

	"defs"
	"fdops"
	"ustr"
)

/// File descriptor permission bits.
const (
	FD_READ    = 0x1 /// read permission
	FD_WRITE   = 0x2 /// write permission
	FD_CLOEXEC = 0x4 /// close-on-exec flag
)

/// Fd_t is a FileHandle: {vnode, ref_count, offset, flags, lock}, where
/// vnode/ref_count/offset live behind Fops; core code only ever calls
/// Fops.Reopen/Fops.Close, never touches vnode state directly.
type Fd_t struct {
	Fops  fdops.Fdops_i /// descriptor operations, implemented externally
	Perms int           /// permission bits
}

/// Copyfd duplicates an open file descriptor by reopening it, bumping the
/// underlying vnode's ref_count.
func Copyfd(fd *Fd_t) (*Fd_t, defs.Err_t) {
	nfd := &Fd_t{}
	*nfd = *fd
	err := nfd.Fops.Reopen()
	if err != 0 {
		return nil, err
	}
	return nfd, 0
}

/// Close_panic closes the descriptor and panics on failure, used where
/// the caller has already established the descriptor must still be valid
/// (e.g. unwinding a partially built file table).
func Close_panic(f *Fd_t) {
	if f.Fops.Close() != 0 {
		panic("must succeed")
	}
}

/// Cwd_t tracks the current working directory for a process: the open
/// directory fd plus its canonical path, serialized against concurrent
/// chdir.
type Cwd_t struct {
	sync.Mutex
	Fd   *Fd_t
	Path ustr.Ustr
}

/// Fullpath joins cwd with p if p is not already absolute.
func (cwd *Cwd_t) Fullpath(p ustr.Ustr) ustr.Ustr {
	if p.IsAbsolute() {
		return p
	}
	return cwd.Path.Extend(p)
}

/// Canonicalpath resolves "." and ".." components out of p relative to
/// cwd, producing a clean absolute path. Symlink resolution is not
/// performed here; that belongs to the VFS collaborator that interprets
/// the result.
func (cwd *Cwd_t) Canonicalpath(p ustr.Ustr) ustr.Ustr {
	return canonicalize(cwd.Fullpath(p))
}

/// canonicalize collapses "." and ".." components of an absolute path
/// using only its lexical structure; it does not consult the
/// filesystem.
func canonicalize(p ustr.Ustr) ustr.Ustr {
	var comps []ustr.Ustr
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			if i > start {
				comps = append(comps, p[start:i])
			}
			start = i + 1
		}
	}

	var out []ustr.Ustr
	for _, c := range comps {
		switch {
		case c.Isdot():
			continue
		case c.Isdotdot():
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, c)
		}
	}

	ret := ustr.MkUstrRoot()
	if len(out) == 0 {
		return ret
	}
	ret = append(ustr.MkUstr(), '/')
	ret = append(ret, out[0]...)
	for _, c := range out[1:] {
		ret = ret.Extend(c)
	}
	return ret
}

/// MkRootCwd constructs a Cwd_t rooted at "/".
func MkRootCwd(fd *Fd_t) *Cwd_t {
	return &Cwd_t{Fd: fd, Path: ustr.MkUstrRoot()}
}
