package actor

import "testing"

func TestGlobalQueueFIFOOrder(t *testing.T) {
	gq := newGlobalQueue()
	m1 := &mailbox{owner: NewHandle(1, 1)}
	m2 := &mailbox{owner: NewHandle(1, 2)}
	m3 := &mailbox{owner: NewHandle(1, 3)}

	gq.push(m1)
	gq.push(m2)
	gq.push(m3)

	for _, want := range []*mailbox{m1, m2, m3} {
		if got := gq.pop(); got != want {
			t.Fatalf("pop() = %v, want %v", got, want)
		}
	}
	if gq.pop() != nil {
		t.Fatal("pop on empty global queue should return nil")
	}
}

func TestGlobalQueueNotifyFiresOnPush(t *testing.T) {
	gq := newGlobalQueue()
	var fired int
	gq.notify = func() { fired++ }

	gq.push(&mailbox{})
	gq.push(&mailbox{})

	if fired != 2 {
		t.Fatalf("notify fired %d times, want 2", fired)
	}
}
