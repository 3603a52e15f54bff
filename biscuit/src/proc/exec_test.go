package proc

import (
	"testing"

	"defs"
	"mem"
	"ustr"
	"vm"
)

type testLoader struct {
	entry uintptr
}

func (l testLoader) Load(as *vm.AddressSpace) (uintptr, defs.Err_t) {
	as.DefineRegion(0x400000, uintptr(mem.PGSIZE), true, false, true)
	return l.entry, 0
}

type testOpener struct {
	loader testLoader
	err    defs.Err_t
}

func (o testOpener) Open(path ustr.Ustr) (Loader_i, defs.Err_t) {
	if o.err != 0 {
		return nil, o.err
	}
	return o.loader, 0
}

// TestExecEntersUserOnSuccess checks that a successful exec replaces the
// address space and calls EnterUser with the loader's reported entry
// point. EnterUser never returns on success, so Exec panics, and the
// test recovers that panic the same way kernel/main.go's boot demo does.
func TestExecEntersUserOnSuccess(t *testing.T) {
	p := mkTestInit(t)
	opener := testOpener{loader: testLoader{entry: 0x400000}}

	entered := make(chan uintptr, 1)
	tf := &capturingTrapFrame{entered: entered}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected Exec to panic after EnterUser \"returns\"")
			}
		}()
		p.Exec(tf, opener, ustr.Ustr("/bin/init"), []ustr.Ustr{ustr.Ustr("init"), ustr.Ustr("-v")})
	}()

	select {
	case e := <-entered:
		if e != 0x400000 {
			t.Fatalf("entry = %#x, want %#x", e, 0x400000)
		}
	default:
		t.Fatal("EnterUser was never called")
	}
}

type capturingTrapFrame struct {
	entered chan uintptr
}

func (tf *capturingTrapFrame) Clone() TrapFrame  { return tf }
func (tf *capturingTrapFrame) SetSyscallReturn() {}
func (tf *capturingTrapFrame) ResumeUser()       {}
func (tf *capturingTrapFrame) EnterUser(argc int, argv, envp, sp, entry uintptr) {
	tf.entered <- entry
}

func TestExecEmptyPrognameReturnsEINVAL(t *testing.T) {
	p := mkTestInit(t)
	opener := testOpener{loader: testLoader{entry: 0x400000}}
	err := p.Exec(&capturingTrapFrame{entered: make(chan uintptr, 1)}, opener, ustr.Ustr(""), nil)
	if err != -defs.EINVAL {
		t.Fatalf("exec with empty progname = %v, want EINVAL", err)
	}
}

func TestExecTooManyArgsReturnsE2BIG(t *testing.T) {
	p := mkTestInit(t)
	opener := testOpener{loader: testLoader{entry: 0x400000}}
	argv := make([]ustr.Ustr, ARG_MAX+1)
	for i := range argv {
		argv[i] = ustr.Ustr("x")
	}
	err := p.Exec(&capturingTrapFrame{entered: make(chan uintptr, 1)}, opener, ustr.Ustr("/bin/init"), argv)
	if err != -defs.E2BIG {
		t.Fatalf("exec with too many args = %v, want E2BIG", err)
	}
}

// TestExecOpenFailureLeavesAddressSpaceIntact checks that a failed
// opener.Open does not touch the process's current address space.
func TestExecOpenFailureLeavesAddressSpaceIntact(t *testing.T) {
	p := mkTestInit(t)
	before := p.As
	opener := testOpener{err: -defs.ENOENT}

	err := p.Exec(&capturingTrapFrame{entered: make(chan uintptr, 1)}, opener, ustr.Ustr("/bin/missing"), nil)
	if err != -defs.ENOENT {
		t.Fatalf("exec with failing opener = %v, want ENOENT", err)
	}
	if p.As != before {
		t.Fatal("failed exec replaced the process's address space")
	}
}
