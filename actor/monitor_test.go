package actor

import "testing"

func TestStallMonitorMarksUnchangedVersionAsEndless(t *testing.T) {
	sample := &stallSample{}
	sample.trigger(NewHandle(1, 1), NewHandle(1, 2))

	svc := &Service{}
	var grabbed, released int
	m := newStallMonitor([]*stallSample{sample}, func(h Handle) *Service {
		grabbed++
		return svc
	}, func(*Service) { released++ }, newErrSink(), nil)

	m.check() // first pass just records checkedAt
	if svc.Endless() {
		t.Fatal("service should not be marked endless before a second unchanged sample")
	}

	m.check() // version unchanged since first pass: now it should fire
	if grabbed != 1 || released != 1 {
		t.Fatalf("grab/release calls = %d/%d, want 1/1", grabbed, released)
	}
	if !svc.Endless() {
		t.Fatal("service should be marked endless after two checks with no version change")
	}
}

func TestStallMonitorIgnoresIdleWorkers(t *testing.T) {
	sample := &stallSample{}
	sample.trigger(0, 0) // destination 0: not currently dispatching

	var grabbed int
	m := newStallMonitor([]*stallSample{sample}, func(Handle) *Service {
		grabbed++
		return &Service{}
	}, func(*Service) {}, newErrSink(), nil)

	m.check()
	m.check()
	if grabbed != 0 {
		t.Fatalf("grab called %d times for an idle worker, want 0", grabbed)
	}
}

func TestStallMonitorResetsOnVersionAdvance(t *testing.T) {
	sample := &stallSample{}
	sample.trigger(NewHandle(1, 1), NewHandle(1, 2))

	var grabbed int
	m := newStallMonitor([]*stallSample{sample}, func(Handle) *Service {
		grabbed++
		return &Service{}
	}, func(*Service) {}, newErrSink(), nil)

	m.check()
	sample.trigger(0, 0) // dispatch finished: version advances, destination clears
	m.check()
	if grabbed != 0 {
		t.Fatalf("grab called %d times after the version advanced, want 0", grabbed)
	}
}
