// Command kernel boots the core subsystems this repository implements
// (coremap, address space, process table) and walks through one fork /
// sbrk / exit / waitpid cycle end to end, the same sequence
// kern/syscall/process_syscalls.c exercises at the bottom of a real trap.
// Console drivers, device probing, and the trap/user-mode entry primitives
// are out of this core's scope (see spec §1); the tiny devfops_t and
// loader_t types below stand in for them, exactly the way package fdops and
// proc.Loader_i document that external collaborators are reached only
// through an interface and never implemented here beyond a test double.
package main

import (
	"fmt"

	"defs"
	"fd"
	"klog"
	"mem"
	"proc"
	"stat"
	"ustr"
	"vm"
)

// ramBytes is the size of the simulated RAM arena MkCoremap carves the
// coremap out of.
const ramBytes = 16 << 20

// reservedFrames stands in for the frames a real port reserves for the
// kernel image and the coremap itself.
const reservedFrames = 16

// devfops_t is a minimal console device: Write echoes to the host's
// stdout, Read reports EOF, Lseek refuses (matching a non-seekable
// vnode), and Stat reports D_CONSOLE as its device number.
type devfops_t struct{}

func (devfops_t) Read(dst []uint8) (int, defs.Err_t) { return 0, 0 }
func (devfops_t) Write(src []uint8) (int, defs.Err_t) {
	n, _ := fmt.Print(string(src))
	return n, 0
}
func (devfops_t) Lseek(off int, whence int) (int, defs.Err_t) { return 0, -defs.ESPIPE }
func (devfops_t) Reopen() defs.Err_t                          { return 0 }
func (devfops_t) Close() defs.Err_t                           { return 0 }
func (devfops_t) Stat(st *stat.Stat_t) defs.Err_t {
	st.Wmode(defs.Mkdev(defs.D_CONSOLE, 0))
	return 0
}

// loader_t is the Loader_i test double Exec would drive: it defines one
// code/data region and reports a made-up entry point, standing in for an
// ELF loader's segment mapping.
type loader_t struct{}

func (loader_t) Load(as *vm.AddressSpace) (uintptr, defs.Err_t) {
	const codeBase uintptr = 0x400000
	as.DefineRegion(codeBase, uintptr(mem.PGSIZE), true, false, true)
	return codeBase, 0
}

// opener_t is the Opener_i test double: every path resolves to loader_t,
// standing in for a VFS path lookup.
type opener_t struct{}

func (opener_t) Open(ustr.Ustr) (proc.Loader_i, defs.Err_t) { return loader_t{}, 0 }

// trapframe_t is the proc.TrapFrame test double: it has no real machine
// state to save, since the trap/user-mode entry layer itself is out of
// this core's scope. It only prints what it would have done.
type trapframe_t struct{ who string }

func (t *trapframe_t) Clone() proc.TrapFrame { c := *t; return &c }
func (t *trapframe_t) SetSyscallReturn() {
	klog.Printf("%s: syscall return registers zeroed, pc advanced\n", t.who)
}
func (t *trapframe_t) ResumeUser() {
	klog.Printf("%s: would resume in user mode\n", t.who)
}
func (t *trapframe_t) EnterUser(argc int, argv, envp, sp, entry uintptr) {
	klog.Printf("%s: would enter user mode argc=%d sp=%#x entry=%#x\n", t.who, argc, sp, entry)
}

func main() {
	cm := mem.MkCoremap(ramBytes, reservedFrames)
	cm.Boot()
	klog.Printf("%s\n", cm.Summary(defs.NewTid()))

	console := &fd.Fd_t{Fops: devfops_t{}, Perms: fd.FD_READ | fd.FD_WRITE}
	init, err := proc.MkInitProcess(cm, console)
	if err != 0 {
		klog.Fatalf("init process: %v\n", err)
	}

	// Exec never returns on success (EnterUser is a one-way jump into
	// user mode in a real port), so we run it on its own goroutine and
	// recover the panic Exec raises if EnterUser ever does return,
	// exactly as spec'd, treating that panic here as "control reached
	// user mode".
	execDone := make(chan struct{})
	go func() {
		defer func() {
			recover()
			close(execDone)
		}()
		init.Exec(&trapframe_t{who: "init"}, opener_t{}, ustr.Ustr("/sbin/init"), nil)
	}()
	<-execDone
	klog.Printf("init pid=%d heap=[%#x,%#x)\n", init.Pid, init.As.HeapStart(), init.As.HeapEnd())

	old, err := proc.Sbrk(init, mem.PGSIZE)
	if err != 0 {
		klog.Fatalf("sbrk: %v\n", err)
	}
	klog.Printf("sbrk grew heap from %#x to %#x\n", old, init.As.HeapEnd())

	if err := vm.Fault(init.As, init.Tid(), vm.FaultWRITE, old); err != 0 {
		klog.Fatalf("fault: %v\n", err)
	}

	childPid, err := proc.Fork(init, &trapframe_t{who: "init"})
	if err != 0 {
		klog.Fatalf("fork: %v\n", err)
	}
	child := proc.Table.Lookup(childPid)
	klog.Printf("forked child pid=%d\n", childPid)

	proc.Exit(child, 7, false)

	var status int
	rpid, err := proc.Waitpid(init, childPid, &status, 0)
	if err != 0 {
		klog.Fatalf("waitpid: %v\n", err)
	}
	klog.Printf("waitpid reaped pid=%d exited=%v status=%d\n",
		rpid, proc.WIFEXITED(status), proc.WEXITSTATUS(status))

	klog.Printf("%s\n", cm.Summary(defs.NewTid()))
}
