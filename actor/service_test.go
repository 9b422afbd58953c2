package actor

import "testing"

func TestServiceNextSessionIsMonotonic(t *testing.T) {
	s := &Service{}
	prev := s.NextSession()
	for i := 0; i < 10; i++ {
		next := s.NextSession()
		if next <= prev {
			t.Fatalf("session did not increase: %d then %d", prev, next)
		}
		prev = next
	}
}

func TestServiceReleaseDestroysOnFinalReference(t *testing.T) {
	var released bool
	s := &Service{module: &Module{Release: func(any) { released = true }}}
	s.addRef()
	s.addRef()

	s.release(nil)
	if released {
		t.Fatal("Service destroyed before its last reference was dropped")
	}
	s.release(nil)
	if !released {
		t.Fatal("Service should be destroyed once refcount reaches zero")
	}
}

func TestServiceEndlessIsReadOnce(t *testing.T) {
	s := &Service{}
	if s.Endless() {
		t.Fatal("fresh Service should not report endless")
	}
	s.MarkEndless()
	if !s.Endless() {
		t.Fatal("Endless() should report true right after MarkEndless")
	}
	if s.Endless() {
		t.Fatal("Endless() should reset to false after being read")
	}
}

func TestServiceDispatchOnePanicRecoversAndLogsError(t *testing.T) {
	sink := newErrSink()
	mb := newMailbox(NewHandle(1, 1), newGlobalQueue())
	s := &Service{
		handle:  NewHandle(1, 1),
		mailbox: mb,
		errSink: sink,
		handler: func(*Context, Handle, int32, uint8, []byte) bool {
			panic("boom")
		},
	}
	s.initDone.Store(true)

	ctx := newContext(nil)
	s.dispatchOne(ctx, Message{Type: PtypeText})

	if len(sink.Recent()) != 1 {
		t.Fatalf("errSink has %d entries after a panicking handler, want 1", len(sink.Recent()))
	}
}

func TestServiceDispatchOnePanicsBeforeInitDone(t *testing.T) {
	s := &Service{handle: NewHandle(1, 1)}
	defer func() {
		if recover() == nil {
			t.Fatal("dispatchOne before init_done should panic")
		}
	}()
	s.dispatchOne(newContext(nil), Message{})
}
