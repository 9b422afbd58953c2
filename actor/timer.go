package actor

import "time"

// timerThread is the dedicated goroutine of spec.md §4.10: it wakes every
// 2.5 ms, advances the wheel's logical clock in 10 ms increments, fires
// due timers as PTYPE_RESPONSE messages, and signals a sleeping worker
// once per tick advanced.
type timerThread struct {
	wheel *wheel
	fire  func(target Handle, session int32)
	wake  func()

	stop chan struct{}
	done chan struct{}
}

func newTimerThread(w *wheel, fire func(Handle, int32), wake func()) *timerThread {
	return &timerThread{
		wheel: w,
		fire:  fire,
		wake:  wake,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (t *timerThread) run() {
	defer close(t.done)

	ticker := time.NewTicker(2500 * time.Microsecond)
	defer ticker.Stop()

	last := time.Now()
	var accum time.Duration

	for {
		select {
		case <-t.stop:
			return
		case now := <-ticker.C:
			accum += now.Sub(last)
			last = now

			for accum >= 10*time.Millisecond {
				accum -= 10 * time.Millisecond
				for _, n := range t.wheel.advance() {
					t.fire(n.target, n.session)
				}
				t.wake()
			}
		}
	}
}

func (t *timerThread) Stop() {
	close(t.stop)
	<-t.done
}
