package defs

import "sync/atomic"

// Err_t is a kernel error code. Following the convention used throughout
// biscuit, a function that can fail returns a non-zero Err_t as its last
// value; callers negate the corresponding constant at the call site (e.g.
// "return -defs.EFAULT") so that Err_t reads the same as a raw negated
// errno would in the original C kernel.
type Err_t int

// Error taxonomy for the syscall surface.
const (
	ENOMEM       Err_t = 1  /// no-memory: allocation failure
	EFAULT       Err_t = 2  /// bad-address: null or reserved-hole user pointer
	EBADF        Err_t = 3  /// bad-fd: fd out of range or not open
	ENOENT       Err_t = 4  /// no-entry
	EINVAL       Err_t = 5  /// invalid-argument
	ESRCH        Err_t = 6  /// no-such-process
	ECHILD       Err_t = 7  /// not-a-child
	EMFILE       Err_t = 8  /// too-many-open-files
	EMPROC       Err_t = 9  /// too-many-processes
	E2BIG        Err_t = 10 /// argument-list-too-big
	EPERM        Err_t = 11 /// permission
	ENAMETOOLONG Err_t = 12 /// name-too-long
	ESPIPE       Err_t = 13 /// lseek on non-seekable vnode
)

// String names an Err_t for diagnostics.
func (e Err_t) String() string {
	switch e {
	case ENOMEM:
		return "no memory"
	case EFAULT:
		return "bad address"
	case EBADF:
		return "bad file descriptor"
	case ENOENT:
		return "no such entry"
	case EINVAL:
		return "invalid argument"
	case ESRCH:
		return "no such process"
	case ECHILD:
		return "not a child"
	case EMFILE:
		return "too many open files"
	case EMPROC:
		return "too many processes"
	case E2BIG:
		return "argument list too big"
	case EPERM:
		return "permission denied"
	case ENAMETOOLONG:
		return "name too long"
	case ESPIPE:
		return "illegal seek"
	default:
		return "unknown error"
	}
}

// Tid_t identifies a thread for the purposes of lock ownership. biscuit
// itself resolves "the current thread" through a patched runtime
// (runtime.Gptr); without that hook, callers of the lock package pass their
// Tid_t explicitly. A Process's main thread uses its Pid_t converted to
// Tid_t; goroutines without a process (kernel-internal helpers, tests) mint
// one from NewTid.
type Tid_t uint64

var tidgen uint64

// NewTid allocates a fresh Tid_t. It never returns 0, which is reserved to
// mean "no thread" (an unheld lock).
func NewTid() Tid_t {
	return Tid_t(atomic.AddUint64(&tidgen, 1))
}
