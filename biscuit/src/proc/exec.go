package proc

import (
	"defs"
	"ustr"
	"util"
	"vm"
)

/// ARG_MAX caps the number of argv entries exec will accept.
const ARG_MAX = 64

/// NAME_MAX caps the byte length of progname and of any single argv
/// entry, not counting the trailing NUL.
const NAME_MAX = 1024

/// Loader_i loads an executable's segments into a freshly created
/// address space and reports its entry point. The ELF reader/loader is
/// an external collaborator, reached only through here, never
/// implemented beyond a test double.
type Loader_i interface {
	Load(as *vm.AddressSpace) (entry uintptr, err defs.Err_t)
}

/// Opener_i resolves a path to the Loader_i that will populate a fresh
/// address space for it; the VFS lookup and ELF-header validation an
/// external collaborator performs before Exec destroys the calling
/// process's current address space.
type Opener_i interface {
	Open(path ustr.Ustr) (Loader_i, defs.Err_t)
}

/// Exec replaces p's address space with the program named by progname,
/// laying argv out on the new user stack the way the ELF calling
/// convention expects (strings packed just below the stack top with
/// 4-byte padding, and below them a null-terminated vector of pointers
/// to them, whose address is passed as argv and sp), and hands control
/// to tf.EnterUser. progname and argv arrive already resolved
/// into kernel-side ustr.Ustr values; the raw user-pointer validation
/// and copyin that process_syscalls.c's sys_execv performs belongs to
/// the trap/syscall-entry layer, which is out of this core's scope (see
/// fd.Cwd_t, which makes the same choice for path arguments).
func (p *Process) Exec(tf TrapFrame, opener Opener_i, progname ustr.Ustr, argv []ustr.Ustr) defs.Err_t {
	tid := p.Tid()

	if len(progname) == 0 {
		return -defs.EINVAL
	}
	if len(progname) > NAME_MAX {
		return -defs.ENAMETOOLONG
	}
	if len(argv) > ARG_MAX {
		return -defs.E2BIG
	}
	for _, a := range argv {
		if len(a) > NAME_MAX {
			return -defs.ENAMETOOLONG
		}
	}

	loader, err := opener.Open(progname)
	if err != 0 {
		return err
	}

	oldas := p.As
	p.As = nil
	if oldas != nil {
		oldas.Destroy(tid)
	}

	nas := vm.Create(p.cm)
	entry, err := loader.Load(nas)
	if err != 0 {
		nas.Destroy(tid)
		return err
	}
	p.As = nas
	nas.Activate()

	sp := nas.DefineStack()

	paddedLens := make([]int, len(argv))
	total := 0
	for i, s := range argv {
		n := util.Roundup(len(s)+1, 4)
		paddedLens[i] = n
		total += n
	}

	sp -= uintptr(total)
	addrs := make([]uintptr, len(argv)+1)
	cur := sp
	for i, s := range argv {
		addrs[i] = cur
		buf := make([]uint8, len(s)+1)
		copy(buf, s)
		wub := vm.MkUserbuf(nas, tid, cur, len(buf))
		if _, werr := wub.Uiowrite(buf); werr != 0 {
			nas.Destroy(tid)
			p.As = nil
			return werr
		}
		cur += uintptr(paddedLens[i])
	}
	addrs[len(argv)] = 0

	vecBytes := (len(argv) + 1) * 8
	sp -= uintptr(vecBytes)
	stackptr := sp
	vecbuf := make([]uint8, vecBytes)
	for i, a := range addrs {
		util.Writen(vecbuf, 8, i*8, int(a))
	}
	wub := vm.MkUserbuf(nas, tid, stackptr, vecBytes)
	if _, werr := wub.Uiowrite(vecbuf); werr != 0 {
		nas.Destroy(tid)
		p.As = nil
		return werr
	}

	tf.EnterUser(len(argv), stackptr, stackptr, stackptr, entry)
	panic("proc: EnterUser returned")
}
