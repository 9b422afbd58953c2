package service

import "github.com/prynsxdnl176/annotated-skynet/actor"

// PtypeSpin is the message that drives Endless into its infinite loop.
const PtypeSpin uint8 = 13

// Endless is S6's stall module: its handler never returns once it sees a
// PtypeSpin message, so the worker it occupies goes quiet and the stall
// monitor flags it. `STAT endless` then reads "1" once and "0" after
// that until the monitor flags it again; a service that never stalled
// always reads "0".
type Endless struct {
	Started chan struct{}
}

func NewEndlessModule() *actor.Module {
	return &actor.Module{
		Name: "endless",
		Create: func() any {
			return &Endless{Started: make(chan struct{})}
		},
		Init: func(inst any, ctx *actor.Context, args string) error {
			ctx.SetHandler(inst.(*Endless).handle)
			return nil
		},
	}
}

func (e *Endless) handle(ctx *actor.Context, source actor.Handle, session int32, mtype uint8, payload []byte) bool {
	if mtype != PtypeSpin {
		return false
	}
	close(e.Started)
	for {
	}
}
