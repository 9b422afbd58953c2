package service

import (
	"github.com/prynsxdnl176/annotated-skynet/actor"
)

// PtypePing is the message type S1's Ping module sends to itself,
// matching spec.md §S1's literal "type=10" scenario: an application
// message type above the reserved PTYPE_ range in ptype.go.
const PtypePing uint8 = 10

const pingPayload = "PING"

// PingLimit is how many round trips S1 exercises before the loop stops
// sending and Done becomes readable.
const PingLimit = 1000

// Ping is the S1 module: it sends itself a message from Init, and every
// time it receives one it increments Count and sends again, until Count
// reaches PingLimit.
type Ping struct {
	self  actor.Handle
	Count int
	Done  chan struct{}
}

func NewPingModule() *actor.Module {
	return &actor.Module{
		Name: "ping",
		Create: func() any {
			return &Ping{Done: make(chan struct{})}
		},
		Init: func(inst any, ctx *actor.Context, args string) error {
			p := inst.(*Ping)
			p.self = ctx.Self()
			ctx.SetHandler(p.handle)
			return ctx.Send(p.self, PtypePing, ctx.NextSession(), []byte(pingPayload))
		},
	}
}

func (p *Ping) handle(ctx *actor.Context, source actor.Handle, session int32, mtype uint8, payload []byte) bool {
	if mtype != PtypePing {
		return false
	}
	p.Count++
	if p.Count >= PingLimit {
		close(p.Done)
		return false
	}
	_ = ctx.Send(p.self, PtypePing, ctx.NextSession(), []byte(pingPayload))
	return false
}
