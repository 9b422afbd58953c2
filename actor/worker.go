package actor

import "fmt"

// defaultWeights is skynet_start.c's reference weight schedule: the first
// 32 workers get a fixed weight, any worker beyond that defaults to 0
// (spec.md §4.5).
var defaultWeights = [32]int{
	-1, -1, -1, -1, 0, 0, 0, 0,
	1, 1, 1, 1, 1, 1, 1, 1,
	2, 2, 2, 2, 2, 2, 2, 2,
	3, 3, 3, 3, 3, 3, 3, 3,
}

// WeightFunc maps a worker index to its weight, re-expressed as a policy
// function per spec.md §9's design note so it can be tuned without
// recompiling.
type WeightFunc func(index int) int

// DefaultWeightFunc returns the reference schedule above.
func DefaultWeightFunc(index int) int {
	if index < len(defaultWeights) {
		return defaultWeights[index]
	}
	return 0
}

// worker is one of the engine's fixed pool of dispatcher goroutines
// (spec.md §4.5 C6). Grounded on the teacher's scheduling philosophy
// (Inbox.run drains messages in a batch) but restructured: instead of one
// goroutine per busy actor, a fixed set of workers pops mailboxes off the
// single global run queue.
type worker struct {
	index  int
	weight int
	engine *Engine
	sample *stallSample
	ctx    *Context
}

func newWorker(index int, weight int, e *Engine) *worker {
	return &worker{
		index:  index,
		weight: weight,
		engine: e,
		sample: &stallSample{},
		ctx:    newContext(e),
	}
}

// run is the per-worker loop of spec.md §4.5, steps 1-6.
func (w *worker) run() {
	var cur *mailbox
	gen := w.engine.wakeup.generation()
	for {
		if w.engine.quitting() {
			return
		}

		// Step 1: pop a mailbox, or sleep if none is runnable.
		if cur == nil {
			cur = w.engine.globalQueue.pop()
			if cur == nil {
				gen = w.engine.wakeup.sleep(gen)
				continue
			}
		}

		// Step 2: resolve the owning Service.
		svc := w.engine.registry.grab(cur.owner)
		if svc == nil {
			w.engine.dropMailbox(cur)
			cur = nil
			continue
		}

		// Step 3: compute the batch size from weight and current length.
		n := batchSize(w.weight, cur.length())

		// Step 4: dispatch up to n messages.
		drained := false
		for i := 0; i < n; i++ {
			msg, ok := cur.pop()
			if !ok {
				drained = true
				break
			}
			w.sample.trigger(msg.Source, svc.handle)
			svc.dispatchOne(w.ctx, msg)
			w.sample.trigger(0, 0)
			if n := cur.overloadLen(); n > 0 {
				logEvent(MailboxOverloadEvent{Handle: svc.handle, Length: n})
				w.engine.errSink.Append(fmt.Sprintf("%s: mailbox overload, length %d", svc.handle.String(), n))
				if w.engine.metrics != nil {
					w.engine.metrics.MailboxOverload.Inc()
				}
			}
			w.engine.wakeup.signalOne()
		}

		if drained {
			w.engine.release(svc)
			cur = nil
			continue
		}

		// Step 5: attempt another global pop; switch to it if it differs,
		// otherwise keep draining the current mailbox.
		next := w.engine.globalQueue.pop()
		if next != nil {
			w.engine.globalQueue.push(cur)
			cur = next
		}

		// Step 6: release the Service lease.
		w.engine.release(svc)
	}
}

// batchSize computes how many messages a worker should drain before
// yielding the mailbox back, per spec.md §4.5's weight semantics.
func batchSize(weight int, length int) int {
	switch {
	case weight < 0:
		return 1
	case weight == 0:
		return length
	default:
		n := length >> uint(weight)
		if n < 1 {
			n = 1
		}
		return n
	}
}
