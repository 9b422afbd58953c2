package actor

import "sync"

// wakeup is the only suspension point workers block on (spec.md §5):
// a condition variable signaled by a mailbox push, the I/O thread, the
// timer thread, or shutdown.
type wakeup struct {
	mu   sync.Mutex
	cond *sync.Cond
	gen  uint64
}

func newWakeup() *wakeup {
	w := &wakeup{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// signalOne wakes (at least) one sleeping worker.
func (w *wakeup) signalOne() {
	w.mu.Lock()
	w.gen++
	w.mu.Unlock()
	w.cond.Signal()
}

// broadcast wakes every sleeping worker, used for shutdown.
func (w *wakeup) broadcast() {
	w.mu.Lock()
	w.gen++
	w.mu.Unlock()
	w.cond.Broadcast()
}

// sleep blocks until the generation moves past seenGen (any signalOne or
// broadcast, including the shutdown broadcast), returning at once if it
// already has; it does not consult the quit flag itself. seenGen should be
// the generation observed by the last check of the predicate the caller
// cares about (global queue non-empty, etc.); sleep returns the new
// generation so callers can detect spurious vs. real wakeups cheaply.
func (w *wakeup) sleep(seenGen uint64) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.gen == seenGen {
		w.cond.Wait()
	}
	return w.gen
}

func (w *wakeup) generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gen
}
