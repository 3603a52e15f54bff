package proc

import (
	"defs"
	"fd"
	"limits"
	"ustr"
)

/// maxOpenFiles bounds a single process's open file-descriptor table,
/// a supplemented resource limit (see limits.Syslimit.Sysprocs's use in
/// allocPID for the process-count half of the same idea): the errno
/// taxonomy this core uses lists too-many-open-files but nothing
/// previously enforced it.
const maxOpenFiles = 512

/// AddFd installs f at the lowest unused descriptor number and returns
/// it, or fails with too-many-open-files once maxOpenFiles is reached.
func (p *Process) AddFd(f *fd.Fd_t) (int, defs.Err_t) {
	p.fdMu.Lock()
	defer p.fdMu.Unlock()
	if len(p.fds) >= maxOpenFiles {
		limits.Lhits++
		return -1, -defs.EMFILE
	}
	n := 0
	for {
		if _, ok := p.fds[n]; !ok {
			break
		}
		n++
	}
	p.fds[n] = f
	return n, 0
}

/// GetFd looks up an open descriptor by number.
func (p *Process) GetFd(n int) (*fd.Fd_t, defs.Err_t) {
	p.fdMu.Lock()
	defer p.fdMu.Unlock()
	f, ok := p.fds[n]
	if !ok {
		return nil, -defs.EBADF
	}
	return f, 0
}

/// CloseFd removes n from the table and closes the underlying
/// descriptor, dropping a reference to its vnode.
func (p *Process) CloseFd(n int) defs.Err_t {
	p.fdMu.Lock()
	f, ok := p.fds[n]
	if !ok {
		p.fdMu.Unlock()
		return -defs.EBADF
	}
	delete(p.fds, n)
	p.fdMu.Unlock()
	return f.Fops.Close()
}

/// Dup2 makes newfd refer to the same open file as oldfd, closing
/// whatever newfd previously named first. A no-op if oldfd == newfd.
func (p *Process) Dup2(oldfd, newfd int) (int, defs.Err_t) {
	if oldfd < 0 || newfd < 0 {
		return -1, -defs.EBADF
	}

	p.fdMu.Lock()
	of, ok := p.fds[oldfd]
	if !ok {
		p.fdMu.Unlock()
		return -1, -defs.EBADF
	}
	if oldfd == newfd {
		p.fdMu.Unlock()
		return newfd, 0
	}
	existing, hadExisting := p.fds[newfd]
	p.fdMu.Unlock()

	if hadExisting {
		fd.Close_panic(existing)
	}

	nf, err := fd.Copyfd(of)
	if err != 0 {
		return -1, err
	}

	p.fdMu.Lock()
	p.fds[newfd] = nf
	p.fdMu.Unlock()
	return newfd, 0
}

/// DirOpener_i resolves a canonical path to an open descriptor for the
/// directory it names, the VFS lookup Chdir needs, an external
/// collaborator reached only through here.
type DirOpener_i interface {
	OpenDir(path ustr.Ustr) (*fd.Fd_t, defs.Err_t)
}

/// Chdir resolves path against p's current working directory and, if
/// opener confirms it names a directory, makes it the new cwd.
func (p *Process) Chdir(opener DirOpener_i, path ustr.Ustr) defs.Err_t {
	p.cwd.Lock()
	canon := p.cwd.Canonicalpath(path)
	p.cwd.Unlock()

	nf, err := opener.OpenDir(canon)
	if err != 0 {
		return err
	}

	p.cwd.Lock()
	old := p.cwd.Fd
	p.cwd.Fd = nf
	p.cwd.Path = canon
	p.cwd.Unlock()

	if old != nil {
		fd.Close_panic(old)
	}
	return 0
}

/// Getcwd writes p's current working directory path, NUL-terminated,
/// into buf and returns the byte count written including the NUL.
func (p *Process) Getcwd(buf []uint8) (int, defs.Err_t) {
	p.cwd.Lock()
	path := p.cwd.Path
	p.cwd.Unlock()

	if len(path)+1 > len(buf) {
		return 0, -defs.ENAMETOOLONG
	}
	n := copy(buf, path)
	buf[n] = 0
	return n + 1, 0
}
