package actor

import (
	"github.com/prynsxdnl176/annotated-skynet/ringbuffer"
)

const (
	mailboxInitialCap    = 64
	overloadThresholdInit = 1024
)

// mailbox is a per-service FIFO of Messages (spec.md §3, §4.2 C2), backed
// by the teacher's ringbuffer.RingBuffer for the doubling-on-full storage,
// wrapped in the mailbox's own spinlock for the in_global/overload
// bookkeeping that has to be atomic with the push/pop itself.
type mailbox struct {
	lock spinlock

	rb *ringbuffer.RingBuffer[Message]

	owner             Handle
	inGlobal          bool
	releasePending    bool
	overload          int
	overloadThreshold int

	globalQueue *globalQueue
	next        *mailbox
}

func newMailbox(owner Handle, gq *globalQueue) *mailbox {
	return &mailbox{
		rb:                ringbuffer.New[Message](mailboxInitialCap),
		owner:             owner,
		overloadThreshold: overloadThresholdInit,
		globalQueue:       gq,
	}
}

// newMailboxPinned returns a mailbox that starts marked in_global=true
// without actually being linked into the global run queue, so pushes
// arriving before the owning Service finishes init don't race a worker
// into dispatching before init_done is set (mirrors skynet_context_new
// deferring skynet_globalmq_push until after a successful init). Call
// publish once init has concluded.
func newMailboxPinned(owner Handle, gq *globalQueue) *mailbox {
	m := newMailbox(owner, gq)
	m.inGlobal = true
	return m
}

// publish links the mailbox into the global run queue if it already
// holds messages, or unpins it (inGlobal=false) if it's still empty.
func (m *mailbox) publish() {
	m.lock.Lock()
	nonEmpty := m.rb.Len() > 0
	if !nonEmpty {
		m.inGlobal = false
	}
	m.lock.Unlock()

	if nonEmpty {
		m.globalQueue.push(m)
	}
}

// push appends msg, enqueuing the mailbox on the global run queue the
// first time it transitions from empty (spec.md §4.2 push()).
func (m *mailbox) push(msg Message) {
	m.lock.Lock()
	m.rb.Push(msg)
	wasEmpty := !m.inGlobal
	if wasEmpty {
		m.inGlobal = true
	}
	m.lock.Unlock()

	if wasEmpty {
		m.globalQueue.push(m)
	}
}

// pop removes and returns the head message, clearing in_global when the
// mailbox drains empty (spec.md §4.2 pop()). The overload threshold
// doubles every time length crosses it and resets to 1024 on empty.
func (m *mailbox) pop() (Message, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	msg, ok := m.rb.Pop()
	if !ok {
		m.inGlobal = false
		m.overloadThreshold = overloadThresholdInit
		return Message{}, false
	}

	if n := int(m.rb.Len()); n > m.overloadThreshold {
		m.overload = n
		m.overloadThreshold *= 2
	}
	return msg, true
}

// length returns the current queue depth.
func (m *mailbox) length() int {
	return int(m.rb.Len())
}

// overloadLen reports and zeros the sticky overload field (spec.md §4.2).
func (m *mailbox) overloadLen() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	v := m.overload
	m.overload = 0
	return v
}

// markRelease flags the mailbox for drop-policy draining once its Service
// is retired (spec.md §4.2 mark_release()).
func (m *mailbox) markRelease() {
	m.lock.Lock()
	m.releasePending = true
	m.lock.Unlock()
}

// drain empties the mailbox, invoking onDrop for every remaining message;
// used when a Service is retired or its creation failed (spec.md §3: "the
// mailbox outlives the Service only long enough to drop remaining
// messages").
func (m *mailbox) drain(onDrop func(Message)) {
	for {
		msg, ok := m.pop()
		if !ok {
			return
		}
		onDrop(msg)
	}
}
