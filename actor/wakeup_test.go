package actor

import (
	"testing"
	"time"
)

func TestWakeupSleepBlocksUntilSignalOne(t *testing.T) {
	w := newWakeup()
	gen := w.generation()

	woke := make(chan uint64, 1)
	go func() {
		woke <- w.sleep(gen)
	}()

	select {
	case <-woke:
		t.Fatal("sleep returned before signalOne was ever called")
	case <-time.After(20 * time.Millisecond):
	}

	w.signalOne()
	select {
	case newGen := <-woke:
		if newGen == gen {
			t.Fatal("generation should have advanced after signalOne")
		}
	case <-time.After(time.Second):
		t.Fatal("sleep never returned after signalOne")
	}
}

func TestWakeupBroadcastWakesAllSleepers(t *testing.T) {
	w := newWakeup()
	gen := w.generation()

	const n = 5
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			w.sleep(gen)
			done <- struct{}{}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	w.broadcast()

	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("only %d/%d sleepers woke after broadcast", i, n)
		}
	}
}
