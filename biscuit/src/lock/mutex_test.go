package lock

import (
	"testing"
	"time"

	"defs"
)

func TestMutexMutualExclusion(t *testing.T) {
	m := MkMutex("mx")
	counter := 0
	const n = 50
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			tid := defs.NewTid()
			m.Acquire(tid)
			counter++
			m.Release(tid)
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	if counter != n {
		t.Fatalf("counter = %d, want %d", counter, n)
	}
}

func TestMutexDoIHold(t *testing.T) {
	m := MkMutex("mx")
	tid := defs.NewTid()
	other := defs.NewTid()
	if m.DoIHold(tid) {
		t.Fatal("unheld mutex reports held")
	}
	m.Acquire(tid)
	if !m.DoIHold(tid) {
		t.Fatal("owner should hold")
	}
	if m.DoIHold(other) {
		t.Fatal("non-owner should not hold")
	}
	m.Release(tid)
	if m.DoIHold(tid) {
		t.Fatal("released mutex still reports held")
	}
}

func TestMutexRecursiveAcquirePanics(t *testing.T) {
	m := MkMutex("mx")
	tid := defs.NewTid()
	m.Acquire(tid)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on recursive acquire")
		}
	}()
	m.Acquire(tid)
}

func TestMutexReleaseByNonOwnerPanics(t *testing.T) {
	m := MkMutex("mx")
	m.Acquire(defs.NewTid())
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on release by non-owner")
		}
	}()
	m.Release(defs.NewTid())
}

func TestMutexContendedAcquireWakesWaiter(t *testing.T) {
	m := MkMutex("mx")
	holder := defs.NewTid()
	waiter := defs.NewTid()
	m.Acquire(holder)

	acquired := make(chan struct{})
	go func() {
		m.Acquire(waiter)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("waiter acquired a held mutex")
	case <-time.After(20 * time.Millisecond):
	}

	m.Release(holder)

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never woke after release")
	}
	m.Release(waiter)
}
