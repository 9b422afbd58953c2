package actor

// timerNode is one scheduled response, intrusively linked within a wheel
// slot (spec.md §3 TimerNode, §4.8).
type timerNode struct {
	expire  uint32
	target  Handle
	session int32
	next    *timerNode
}

// wheel is the hierarchical timing wheel of spec.md §4.8: one near wheel
// of 256 slots plus four cascade wheels of 64 slots, all behind a single
// spinlock. Grounded directly on skynet_timer.c; no example repo
// implements a cascaded timing wheel.
type wheel struct {
	lock spinlock

	tick uint32

	near    [256]*timerNode
	cascade [4][64]*timerNode

	// pending counts TimerNodes inserted but not yet fired, so the
	// engine's shutdown predicate can tell a quiet wheel from one that
	// just hasn't reached its next expiry (spec.md §5: live count at 0
	// AND no outstanding timers).
	pending int64
}

func newWheel() *wheel {
	return &wheel{}
}

// currentTick returns the wheel's tick counter.
func (w *wheel) currentTick() uint32 {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.tick
}

// insert schedules a TimerNode to fire at expire (an absolute tick),
// per spec.md §4.8 Insert.
func (w *wheel) insert(expire uint32, target Handle, session int32) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.pending++
	w.insertLocked(&timerNode{expire: expire, target: target, session: session})
}

// pendingCount reports how many inserted TimerNodes haven't fired yet.
func (w *wheel) pendingCount() int64 {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.pending
}

func (w *wheel) insertLocked(n *timerNode) {
	d := n.expire - w.tick
	if d < 256 {
		slot := n.expire % 256
		n.next = w.near[slot]
		w.near[slot] = n
		return
	}
	for l := 0; l < 4; l++ {
		if d < 1<<uint(14+6*l) {
			idx := (n.expire >> uint(8+6*l)) % 64
			n.next = w.cascade[l][idx]
			w.cascade[l][idx] = n
			return
		}
	}
	// d spans the full 32-bit range; the outermost cascade always covers
	// it (2^(14+6*3) == 2^32), so this is unreachable.
	idx := (n.expire >> uint(8+6*3)) % 64
	n.next = w.cascade[3][idx]
	w.cascade[3][idx] = n
}

// advance moves the wheel forward by one tick, cascading any wheel
// boundaries crossed, and returns every TimerNode that fired on this
// tick. The lock is released before the caller turns fired nodes into
// messages, per spec.md §4.8's "do not call handlers while holding the
// wheel lock" note (here: do not push messages while holding it).
func (w *wheel) advance() []timerNode {
	w.lock.Lock()

	w.tick++
	if w.tick == 0 {
		w.migrateLocked(3, 0)
	} else {
		for l := 0; l < 4; l++ {
			shift := uint(8 + 6*l)
			if w.tick%(1<<shift) != 0 {
				break
			}
			idx := (w.tick >> shift) % 64
			w.migrateLocked(l, int(idx))
		}
	}

	slot := w.tick % 256
	fired := w.near[slot]
	w.near[slot] = nil
	for n := fired; n != nil; n = n.next {
		w.pending--
	}
	w.lock.Unlock()

	var out []timerNode
	for n := fired; n != nil; n = n.next {
		out = append(out, *n)
	}
	return out
}

// migrateLocked re-inserts every node in cascade[level][idx] using its
// absolute expiry, moving it down to a lower wheel (or the near wheel).
// Caller holds w.lock.
func (w *wheel) migrateLocked(level, idx int) {
	n := w.cascade[level][idx]
	w.cascade[level][idx] = nil
	for n != nil {
		next := n.next
		n.next = nil
		w.insertLocked(n)
		n = next
	}
}
