package service

import (
	"fmt"

	"github.com/prynsxdnl176/annotated-skynet/actor"
	"github.com/prynsxdnl176/annotated-skynet/socket"
)

// GateConfig is a gate's LISTEN target, spec.md §4.9's C9 "operations
// bound at the socket engine level, not the control plane".
type GateConfig struct {
	Host string
	Port int
}

// Gate is the S4 socket echo gateway: it owns a socket.Engine, listens
// on cfg, and forwards every event for a socket it owns to itself as a
// PtypeSocket message, mirroring skynet's gate.c/service_gate.c pattern
// of one gate service fronting one listening socket.
type Gate struct {
	cfg    GateConfig
	self   actor.Handle
	engine *actor.Engine
	io     *socket.Engine

	// Port is the bound listen port, useful once cfg.Port asked for an
	// ephemeral one (0); read only after Init returns.
	Port int

	listenID uint32
}

// NewGateModule returns the Module a bootstrap LAUNCHes to run one gate.
func NewGateModule(cfg GateConfig) *actor.Module {
	return &actor.Module{
		Name:   "gate",
		Create: func() any { return &Gate{cfg: cfg} },
		Init: func(inst any, ctx *actor.Context, args string) error {
			return inst.(*Gate).init(ctx)
		},
		Release: func(inst any) { inst.(*Gate).release() },
	}
}

func (g *Gate) init(ctx *actor.Context) error {
	g.self = ctx.Self()
	g.engine = ctx.Engine()

	io, err := socket.NewEngine(g.onSocketEvent, g.engine.Metrics())
	if err != nil {
		return fmt.Errorf("gate: new socket engine: %w", err)
	}
	g.io = io
	go io.Run()

	id, port, err := io.Listen(uint32(g.self), g.cfg.Host, g.cfg.Port)
	if err != nil {
		io.Stop()
		return fmt.Errorf("gate: listen %s:%d: %w", g.cfg.Host, g.cfg.Port, err)
	}
	if err := io.Start(id, uint32(g.self)); err != nil {
		io.Stop()
		return fmt.Errorf("gate: start listener: %w", err)
	}
	g.listenID = id
	g.Port = port

	ctx.SetHandler(g.handle)
	return nil
}

func (g *Gate) release() {
	g.io.Stop()
}

// onSocketEvent runs on the socket.Engine's own I/O thread (spec.md §5:
// the I/O thread never blocks on a handler), so it can't use
// Context.Send — it injects straight into its own mailbox instead.
func (g *Gate) onSocketEvent(ev socket.Event) {
	msg := socketMsg{Kind: uint8(ev.Kind), ID: ev.ID}
	switch ev.Kind {
	case socket.KindData, socket.KindUDP:
		msg.UD = uint32(len(ev.Data))
		msg.Tail = ev.Data
	case socket.KindOpen, socket.KindAccept:
		msg.Tail = []byte(ev.Addr)
	case socket.KindError:
		msg.Tail = []byte(ev.Addr)
	case socket.KindWarning:
		msg.UD = uint32(ev.WarnKiB)
	}
	_ = g.engine.DeliverLocal(actor.Handle(ev.Owner), actor.PtypeSocket, encodeSocketMsg(msg))
}

// handle is the dispatch-time Handler: it promotes freshly accepted
// sockets to Connected and echoes every byte it receives back to its
// sender, per S4.
func (g *Gate) handle(ctx *actor.Context, source actor.Handle, session int32, mtype uint8, payload []byte) bool {
	if mtype != actor.PtypeSocket {
		return false
	}
	msg, ok := decodeSocketMsg(payload)
	if !ok {
		return false
	}
	switch socket.Kind(msg.Kind) {
	case socket.KindAccept:
		_ = g.io.Start(msg.ID, uint32(g.self))
	case socket.KindData:
		_ = g.io.Send(msg.ID, msg.Tail)
	}
	return false
}
