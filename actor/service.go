package actor

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// Handler is the message handler contract (spec.md §4.3): it MUST NOT
// block on a kernel wait nor call back into dispatch for itself; it may
// call Context.Send, Context.Timeout, Context.Command. The retain result is
// accepted for ABI fidelity only: payloads are garbage-collected, so the
// dispatcher ignores it.
type Handler func(ctx *Context, source Handle, session int32, mtype uint8, payload []byte) (retain bool)

// Service is a logical actor: an immutable Handle, a Module instance, a
// handler, and the stats/log-sink/refcount machinery spec.md §3 requires.
// Grounded on the teacher's process struct, generalized from
// goroutine-per-actor ownership to registry-owned-plus-leases (see grab).
type Service struct {
	handle Handle
	module *Module
	inst   any
	handler Handler

	engine *Engine

	mailbox *mailbox

	session   atomic.Int32
	msgCount  atomic.Int64
	cpuCost   atomic.Int64
	endless   atomic.Bool
	initDone  atomic.Bool

	refcount atomic.Int32

	logMu  spinlock
	logOut io.WriteCloser

	profile bool
	errSink *errSink
	metrics *Metrics
}

// NextSession returns the next monotonically increasing session id for
// this Service (spec.md §3 "session counter").
func (s *Service) NextSession() int32 {
	return s.session.Add(1)
}

// Handle returns the Service's immutable Handle.
func (s *Service) Handle() Handle { return s.handle }

// addRef increments the refcount; called by registry.grab and anywhere
// else a lease on the Service is taken.
func (s *Service) addRef() {
	s.refcount.Add(1)
}

// release drops one reference, destroying the Service's mailbox exactly
// when the count transitions to zero (spec.md §3). A release that takes
// the count below zero panics as a refcount underflow.
func (s *Service) release(drainErrors func(*mailbox)) {
	n := s.refcount.Add(-1)
	if n < 0 {
		panic("actor: service refcount underflow")
	}
	if n == 0 {
		s.destroy(drainErrors)
	}
}

func (s *Service) destroy(drainErrors func(*mailbox)) {
	if drainErrors != nil {
		drainErrors(s.mailbox)
	}
	s.logMu.Lock()
	if s.logOut != nil {
		_ = s.logOut.Close()
		s.logOut = nil
	}
	s.logMu.Unlock()
	if s.module != nil && s.module.Release != nil {
		s.module.Release(s.inst)
	}
}

// SetLog opens (or closes, when w is nil) the per-service message log
// sink, implementing the LOGON/LOGOFF control verb (spec.md §4.7).
func (s *Service) SetLog(w io.WriteCloser) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	if s.logOut != nil {
		_ = s.logOut.Close()
	}
	s.logOut = w
}

// logMessage appends a free-text record for one dispatched message, the
// Open Question in spec.md §9 resolves this to a slog-rendered line (see
// DESIGN.md).
func (s *Service) logMessage(m Message) {
	s.logMu.Lock()
	w := s.logOut
	s.logMu.Unlock()
	if w == nil {
		return
	}
	logger := slog.New(slog.NewTextHandler(w, nil))
	logger.Info("message",
		"dest", s.handle.String(),
		"source", m.Source.String(),
		"session", m.Session,
		"type", m.Type,
		"size", len(m.Payload),
	)
}

// Endless reports and clears the stall-monitor flag, backing STAT endless.
func (s *Service) Endless() bool {
	return s.endless.Swap(false)
}

// MarkEndless is called by the stall monitor when it detects this Service
// stuck in a single dispatch (spec.md §4.6).
func (s *Service) MarkEndless() {
	s.endless.Store(true)
}

// Stats returns the counters backing the STAT control verb.
func (s *Service) Stats() (msgCount int64, cpuCost int64, mqlen int) {
	return s.msgCount.Load(), s.cpuCost.Load(), s.mailbox.length()
}

// dispatchOne performs the sequence of spec.md §4.3 "Dispatch of one
// message" for msg, invoked by a worker holding the exclusive right to
// this Service conferred by having popped its mailbox.
func (s *Service) dispatchOne(ctx *Context, msg Message) {
	if !s.initDone.Load() {
		panic("actor: dispatch before init_done")
	}
	s.logMessage(msg)
	s.msgCount.Add(1)

	var start time.Time
	if s.profile {
		start = cpuNow()
	}

	ctx.reset(s, msg.Source, msg.Session, msg.Type, msg.Payload)
	retain := func() (retain bool) {
		defer func() {
			if v := recover(); v != nil {
				s.reportPanic(v)
				retain = false
			}
		}()
		return s.handler(ctx, msg.Source, msg.Session, msg.Type, msg.Payload)
	}()

	if s.profile {
		cost := cpuNow().Sub(start)
		s.cpuCost.Add(int64(cost))
		if s.metrics != nil {
			s.metrics.CPUCostSeconds.Add(cost.Seconds())
		}
	}
	if s.metrics != nil {
		s.metrics.Dispatched.Inc()
	}
	_ = retain // payload is GC-owned in this port; retain is kept for ABI fidelity
}

func (s *Service) reportPanic(v any) {
	trace := captureCleanStack()
	slog.Error("service handler panicked", "handle", s.handle.String(), "reason", v, "stack", trace)
	if s.errSink != nil {
		s.errSink.Append(fmt.Sprintf("%s: handler panicked: %v", s.handle.String(), v))
	}
}
