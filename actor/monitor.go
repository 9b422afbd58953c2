package actor

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// stallSample is one worker's {version, source, destination} triple
// (spec.md §4.6 C7), grounded directly on skynet_monitor.c.
type stallSample struct {
	version     atomic.Int64
	checkedAt   int64
	source      atomic.Uint32
	destination atomic.Uint32
}

// trigger stamps the in-flight (source, destination) pair and bumps the
// version; called once before dispatching a message and once after with
// (0, 0) to mark "not currently dispatching".
func (s *stallSample) trigger(source, destination Handle) {
	s.source.Store(uint32(source))
	s.destination.Store(uint32(destination))
	s.version.Add(1)
}

// stallMonitor is the background thread of spec.md §4.6: every 5s it
// samples all workers' versions and marks any worker whose version hasn't
// advanced (and whose destination isn't 0) as endless.
type stallMonitor struct {
	samples  []*stallSample
	grab     func(Handle) *Service
	release  func(*Service)
	errSink  *errSink
	metrics  *Metrics
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func newStallMonitor(samples []*stallSample, grab func(Handle) *Service, release func(*Service), sink *errSink, metrics *Metrics) *stallMonitor {
	return &stallMonitor{
		samples:  samples,
		grab:     grab,
		release:  release,
		errSink:  sink,
		metrics:  metrics,
		interval: 5 * time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (m *stallMonitor) run() {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.check()
		}
	}
}

func (m *stallMonitor) check() {
	for _, s := range m.samples {
		v := s.version.Load()
		if v == s.checkedAt {
			dest := Handle(s.destination.Load())
			if dest != 0 {
				if svc := m.grab(dest); svc != nil {
					svc.MarkEndless()
					m.release(svc)
				}
				slog.Error("service may be in an endless loop",
					"source", Handle(s.source.Load()).String(),
					"destination", dest.String(),
					"version", v)
				if m.errSink != nil {
					m.errSink.Append(fmt.Sprintf("%s: possibly in an endless loop (source %s)", dest.String(), Handle(s.source.Load()).String()))
				}
				if m.metrics != nil {
					m.metrics.StallDetected.Inc()
				}
			}
			continue
		}
		s.checkedAt = v
	}
}

func (m *stallMonitor) Stop() {
	close(m.stop)
	<-m.done
}
