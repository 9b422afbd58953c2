package service

import "github.com/prynsxdnl176/annotated-skynet/actor"

// PtypeBulk is the message type ShutdownSender uses for its large payload.
const PtypeBulk uint8 = 12

// BulkPayloadSize is S5's 5 MiB in-flight payload.
const BulkPayloadSize = 5 * 1024 * 1024

// ShutdownReceiver is S5's service B: it records whether it ever saw a
// truncated bulk payload and whether it ever received the full one.
type ShutdownReceiver struct {
	Truncated  bool
	ReceivedOK bool
}

func NewShutdownReceiverModule() *actor.Module {
	return &actor.Module{
		Name:   "shutdownreceiver",
		Create: func() any { return &ShutdownReceiver{} },
		Init: func(inst any, ctx *actor.Context, args string) error {
			ctx.SetHandler(inst.(*ShutdownReceiver).handle)
			return nil
		},
	}
}

func (r *ShutdownReceiver) handle(ctx *actor.Context, source actor.Handle, session int32, mtype uint8, payload []byte) bool {
	if mtype != PtypeBulk {
		return false
	}
	if len(payload) != BulkPayloadSize {
		r.Truncated = true
		return false
	}
	r.ReceivedOK = true
	return false
}

// ShutdownSender is S5's service A: on Init it sends B the full 5 MiB
// payload, then immediately issues KILL against B, exercising spec.md
// §4.11's guarantee that a message already enqueued before KILL takes
// effect is delivered intact rather than torn or dropped mid-copy.
type ShutdownSender struct{}

func NewShutdownSenderModule(target actor.Handle) *actor.Module {
	return &actor.Module{
		Name:   "shutdownsender",
		Create: func() any { return &ShutdownSender{} },
		Init: func(inst any, ctx *actor.Context, args string) error {
			payload := make([]byte, BulkPayloadSize)
			if err := ctx.Send(target, PtypeBulk, ctx.NextSession(), payload); err != nil {
				return err
			}
			_, _ = ctx.Command("KILL", target.String())
			return nil
		},
	}
}
