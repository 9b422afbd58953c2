package actor

import "testing"

func TestMailboxPushPopFIFO(t *testing.T) {
	gq := newGlobalQueue()
	m := newMailbox(NewHandle(1, 1), gq)

	m.push(Message{Session: 1})
	m.push(Message{Session: 2})
	m.push(Message{Session: 3})

	for _, want := range []int32{1, 2, 3} {
		msg, ok := m.pop()
		if !ok || msg.Session != want {
			t.Fatalf("pop() = %v, %v; want session %d", msg, ok, want)
		}
	}
	if _, ok := m.pop(); ok {
		t.Fatal("pop on empty mailbox should fail")
	}
}

func TestMailboxPushLinksGlobalQueueOnlyOnFirstMessage(t *testing.T) {
	gq := newGlobalQueue()
	m := newMailbox(NewHandle(1, 1), gq)

	m.push(Message{Session: 1})
	if gq.pop() != m {
		t.Fatal("mailbox should have been pushed to the global queue on its first message")
	}

	m.push(Message{Session: 2})
	if gq.pop() != nil {
		t.Fatal("mailbox already linked into the global queue should not be pushed again")
	}
}

func TestMailboxPinnedStartsInGlobalWithoutLinking(t *testing.T) {
	gq := newGlobalQueue()
	m := newMailboxPinned(NewHandle(1, 1), gq)
	if !m.inGlobal {
		t.Fatal("pinned mailbox should start with inGlobal true")
	}
	m.push(Message{Session: 1})
	if gq.pop() != nil {
		t.Fatal("push on an already-pinned mailbox must not double-link into the global queue")
	}
}

func TestMailboxPublishLinksOnlyIfNonEmpty(t *testing.T) {
	gq := newGlobalQueue()
	empty := newMailboxPinned(NewHandle(1, 1), gq)
	empty.publish()
	if gq.pop() != nil {
		t.Fatal("publish on an empty pinned mailbox should not link it")
	}
	if empty.inGlobal {
		t.Fatal("publish should unpin an empty mailbox")
	}

	nonEmpty := newMailboxPinned(NewHandle(1, 2), gq)
	nonEmpty.rb.Push(Message{Session: 9})
	nonEmpty.publish()
	if gq.pop() != nonEmpty {
		t.Fatal("publish on a non-empty pinned mailbox should link it")
	}
}

func TestMailboxOverloadThresholdDoublesAndResets(t *testing.T) {
	gq := newGlobalQueue()
	m := newMailbox(NewHandle(1, 1), gq)

	for i := 0; i < overloadThresholdInit+2; i++ {
		m.push(Message{Session: int32(i)})
	}
	// Overload is measured on pop: this one leaves 1025 queued, past 1024.
	if _, ok := m.pop(); !ok {
		t.Fatal("pop on a non-empty mailbox should succeed")
	}
	if m.overloadThreshold != 2*overloadThresholdInit {
		t.Fatalf("overloadThreshold after crossing = %d, want doubled to %d", m.overloadThreshold, 2*overloadThresholdInit)
	}
	if m.overloadLen() == 0 {
		t.Fatal("overloadLen should report a nonzero backlog once past the threshold")
	}
	if m.overloadLen() != 0 {
		t.Fatal("overloadLen should reset to zero after being read")
	}

	m.drain(func(Message) {})
	if m.overloadThreshold != overloadThresholdInit {
		t.Fatalf("overloadThreshold after drain = %d, want reset to %d", m.overloadThreshold, overloadThresholdInit)
	}
}

func TestMailboxDrainInvokesOnDropForEveryMessage(t *testing.T) {
	gq := newGlobalQueue()
	m := newMailbox(NewHandle(1, 1), gq)
	for i := 0; i < 5; i++ {
		m.push(Message{Session: int32(i)})
	}
	var dropped int
	m.drain(func(Message) { dropped++ })
	if dropped != 5 {
		t.Fatalf("drain invoked onDrop %d times, want 5", dropped)
	}
	if m.length() != 0 {
		t.Fatalf("mailbox length after drain = %d, want 0", m.length())
	}
}
