package service

import "github.com/prynsxdnl176/annotated-skynet/actor"

// PtypeLoad is the message type the fairness trio exchanges: a plain
// application ping with no reply expected.
const PtypeLoad uint8 = 11

// HighLoad is S3's saturating service H: it resends itself a message on
// every dispatch, forever, to keep its run queue entry always ready.
type HighLoad struct {
	self  actor.Handle
	Count int
}

func NewHighLoadModule() *actor.Module {
	return &actor.Module{
		Name:   "highload",
		Create: func() any { return &HighLoad{} },
		Init: func(inst any, ctx *actor.Context, args string) error {
			h := inst.(*HighLoad)
			h.self = ctx.Self()
			ctx.SetHandler(h.handle)
			return ctx.Send(h.self, PtypeLoad, ctx.NextSession(), nil)
		},
	}
}

func (h *HighLoad) handle(ctx *actor.Context, source actor.Handle, session int32, mtype uint8, payload []byte) bool {
	h.Count++
	_ = ctx.Send(h.self, PtypeLoad, ctx.NextSession(), nil)
	return false
}

// LowLoad is S3's starved service L: it does nothing but report the
// session of each PtypeLoad message it receives on Received, standing in as the victim a fairness scheduler must still
// service promptly under a saturating sibling.
type LowLoad struct {
	Received chan int32
}

func NewLowLoadModule() *actor.Module {
	return &actor.Module{
		Name: "lowload",
		Create: func() any {
			return &LowLoad{Received: make(chan int32, 8)}
		},
		Init: func(inst any, ctx *actor.Context, args string) error {
			l := inst.(*LowLoad)
			ctx.SetHandler(l.handle)
			return nil
		},
	}
}

func (l *LowLoad) handle(ctx *actor.Context, source actor.Handle, session int32, mtype uint8, payload []byte) bool {
	if mtype != PtypeLoad {
		return false
	}
	l.Received <- session
	return false
}

// Probe is S3's service T: on Init it sends LowLoad one message and
// expects the fairness scheduler to have it delivered within the
// scenario's 100ms budget despite HighLoad saturating its worker.
type Probe struct{}

func NewProbeModule(target actor.Handle) *actor.Module {
	return &actor.Module{
		Name:   "probe",
		Create: func() any { return &Probe{} },
		Init: func(inst any, ctx *actor.Context, args string) error {
			return ctx.Send(target, PtypeLoad, ctx.NextSession(), nil)
		},
	}
}
