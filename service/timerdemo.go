package service

import (
	"time"

	"github.com/prynsxdnl176/annotated-skynet/actor"
)

// TimerDemo is the S2 module: it schedules TIMEOUT 10 then TIMEOUT 5
// from Init and records the session ids of the two resulting
// PTYPE_RESPONSE messages on Arrived, in arrival order.
type TimerDemo struct {
	tenSession  int32
	fiveSession int32

	Arrived chan int32 // session ids, in dispatch order
	seen    int
}

func NewTimerDemoModule() *actor.Module {
	return &actor.Module{
		Name: "timerdemo",
		Create: func() any {
			return &TimerDemo{Arrived: make(chan int32, 2)}
		},
		Init: func(inst any, ctx *actor.Context, args string) error {
			t := inst.(*TimerDemo)
			ctx.SetHandler(t.handle)
			t.tenSession = ctx.Timeout(10)
			t.fiveSession = ctx.Timeout(5)
			return nil
		},
	}
}

func (t *TimerDemo) handle(ctx *actor.Context, source actor.Handle, session int32, mtype uint8, payload []byte) bool {
	if mtype != actor.PtypeResponse {
		return false
	}
	t.Arrived <- session
	t.seen++
	if t.seen == 2 {
		close(t.Arrived)
	}
	return false
}

// timerDemoDeadline is the S2 tolerance window: both responses must
// arrive within 200ms of their scheduled tick.
const timerDemoDeadline = 200 * time.Millisecond
