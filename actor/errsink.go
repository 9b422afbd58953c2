package actor

import "github.com/prynsxdnl176/annotated-skynet/ringbuffer"

const errSinkCapacity = 256

// errSink keeps the last errSinkCapacity formatted error lines, the Go
// equivalent of skynet_error.c's in-memory ring of recent diagnostics
// (SPEC_FULL.md §4: supplemented beyond the bare LOGON/LOGOFF the core
// spec names). Retrievable through the "STAT errlog" debug verb.
type errSink struct {
	lock spinlock
	ring *ringbuffer.RingBuffer[string]
}

func newErrSink() *errSink {
	return &errSink{ring: ringbuffer.New[string](errSinkCapacity)}
}

// Append records line, evicting the oldest entry once the ring is full.
func (s *errSink) Append(line string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.ring.Len() == errSinkCapacity {
		s.ring.Pop()
	}
	s.ring.Push(line)
}

// Recent returns every currently retained line, oldest first.
func (s *errSink) Recent() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.ring.Snapshot()
}
