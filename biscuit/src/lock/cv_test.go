package lock

import (
	"testing"

	"github.com/stretchr/testify/require"

	"defs"
)

// TestCondVarWakeupAtomicity mirrors the seed scenario: a producer takes
// m, sets flag, signals, releases; a consumer takes m, waits on !flag,
// and must observe flag==true on wake. Repeated many times with
// goroutines racing to catch any lost-wakeup window.
func TestCondVarWakeupAtomicity(t *testing.T) {
	const iters = 1000
	for i := 0; i < iters; i++ {
		m := MkMutex("m")
		cv := MkCondVar("cv")
		flag := false
		ready := make(chan struct{})
		done := make(chan bool, 1)

		consumerTid := defs.NewTid()
		go func() {
			m.Acquire(consumerTid)
			close(ready)
			for !flag {
				cv.Wait(consumerTid, m)
			}
			observed := flag
			m.Release(consumerTid)
			done <- observed
		}()

		<-ready
		producerTid := defs.NewTid()
		m.Acquire(producerTid)
		flag = true
		cv.Signal(producerTid, m)
		m.Release(producerTid)

		require.True(t, <-done, "iteration %d: consumer woke with flag still false", i)
	}
}

func TestCondVarBroadcastWakesAll(t *testing.T) {
	m := MkMutex("m")
	cv := MkCondVar("cv")
	ready := false
	const n = 8
	woken := make(chan struct{}, n)

	for i := 0; i < n; i++ {
		go func() {
			tid := defs.NewTid()
			m.Acquire(tid)
			for !ready {
				cv.Wait(tid, m)
			}
			m.Release(tid)
			woken <- struct{}{}
		}()
	}

	tid := defs.NewTid()
	m.Acquire(tid)
	ready = true
	cv.Broadcast(tid, m)
	m.Release(tid)

	for i := 0; i < n; i++ {
		<-woken
	}
}

func TestCondVarWaitWithoutMutexPanics(t *testing.T) {
	m := MkMutex("m")
	cv := MkCondVar("cv")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic waiting without holding mutex")
		}
	}()
	cv.Wait(defs.NewTid(), m)
}
