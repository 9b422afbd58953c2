package remote

import (
	"testing"
	"time"

	"github.com/prynsxdnl176/annotated-skynet/actor"
)

func newHarborEngine(t *testing.T, node uint8) (*actor.Engine, *Remote) {
	t.Helper()
	e := actor.NewEngine(actor.NewConfig().WithNode(node).WithThreads(1))
	t.Cleanup(e.Stop)

	e.RegisterModule(NewModule(NewConfig("127.0.0.1:0")))
	h, err := e.Spawn("harbor", "")
	if err != nil {
		t.Fatalf("spawn harbor on node %d: %v", node, err)
	}
	e.SetHarborDelegate(h)

	inst, ok := e.Instance(h)
	if !ok {
		t.Fatalf("harbor delegate vanished on node %d", node)
	}
	return e, inst.(*Remote)
}

func TestHarborDeliversMessageAcrossNodes(t *testing.T) {
	nodeA, remoteA := newHarborEngine(t, 1)
	nodeB, remoteB := newHarborEngine(t, 2)

	remoteA.SetNodeAddress(2, remoteB.ListenAddr())
	remoteB.SetNodeAddress(1, remoteA.ListenAddr())

	received := make(chan string, 1)
	nodeB.RegisterModule(&actor.Module{
		Name: "echotarget",
		Init: func(inst any, ctx *actor.Context, args string) error {
			ctx.SetHandler(func(_ *actor.Context, _ actor.Handle, _ int32, mtype uint8, payload []byte) bool {
				if mtype == actor.PtypeText {
					received <- string(payload)
				}
				return false
			})
			return nil
		},
	})
	target, err := nodeB.Spawn("echotarget", "")
	if err != nil {
		t.Fatalf("spawn echotarget: %v", err)
	}

	nodeA.RegisterModule(&actor.Module{
		Name: "sender",
		Init: func(inst any, ctx *actor.Context, args string) error {
			return ctx.Send(target, actor.PtypeText, ctx.NextSession(), []byte("hello from node A"))
		},
	})
	if _, err := nodeA.Spawn("sender", ""); err != nil {
		t.Fatalf("spawn sender: %v", err)
	}

	select {
	case got := <-received:
		if got != "hello from node A" {
			t.Fatalf("received %q, want %q", got, "hello from node A")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message never crossed the harbor to the remote node")
	}
}
