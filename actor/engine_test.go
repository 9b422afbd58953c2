package actor

import (
	"errors"
	"testing"
	"time"
)

func TestSpawnUnknownModuleFails(t *testing.T) {
	e := newCommandTestEngine(t)
	if _, err := e.Spawn("does-not-exist", ""); !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("Spawn(unknown) err = %v, want ErrUnknownModule", err)
	}
}

func TestSpawnInitFailureRetiresAndPropagatesError(t *testing.T) {
	e := newCommandTestEngine(t)
	e.RegisterModule(&Module{
		Name: "initfails",
		Init: func(inst any, ctx *Context, args string) error {
			return errors.New("boom")
		},
	})
	h, err := e.Spawn("initfails", "")
	if err == nil || !errors.Is(err, ErrModuleInitFailed) {
		t.Fatalf("Spawn err = %v, want wrapping ErrModuleInitFailed", err)
	}
	if h != 0 {
		t.Fatalf("Spawn on init failure should return the zero Handle, got %s", h)
	}
}

func TestSpawnDeliversInitArgs(t *testing.T) {
	e := newCommandTestEngine(t)
	var got string
	e.RegisterModule(&Module{
		Name: "argsecho",
		Init: func(inst any, ctx *Context, args string) error {
			got = args
			ctx.SetHandler(func(*Context, Handle, int32, uint8, []byte) bool { return false })
			return nil
		},
	})
	if _, err := e.Spawn("argsecho", "hello world"); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("Init args = %q, want %q", got, "hello world")
	}
}

func TestSendToZeroHandleIsSilentlyDropped(t *testing.T) {
	e := newCommandTestEngine(t)
	if err := e.DeliverLocal(0, PtypeText, nil); err != nil {
		t.Fatalf("DeliverLocal(0, ...) returned an error, want nil: %v", err)
	}
}

func TestSendToRetiredHandleGeneratesErrorReplyToSource(t *testing.T) {
	e := newCommandTestEngine(t)

	replies := make(chan uint8, 1)
	e.RegisterModule(&Module{
		Name: "errcatcher",
		Init: func(inst any, ctx *Context, args string) error {
			ctx.SetHandler(func(_ *Context, _ Handle, _ int32, mtype uint8, _ []byte) bool {
				replies <- mtype
				return false
			})
			return nil
		},
	})
	source, err := e.Spawn("errcatcher", "")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	victim := spawnNoop(t, e, "errvictim")
	e.retire(victim)

	if err := e.sendFrom(source, victim, PtypeText, 7, nil); err != nil {
		t.Fatalf("sendFrom: %v", err)
	}

	select {
	case mtype := <-replies:
		if mtype != PtypeError {
			t.Fatalf("reply type = %d, want PtypeError", mtype)
		}
	case <-time.After(time.Second):
		t.Fatal("source never received an error reply for the retired destination")
	}
}

func TestDeliverLocalAcceptsPayloadWellAboveOldSlotSizedCap(t *testing.T) {
	e := newCommandTestEngine(t)
	received := make(chan int, 1)
	e.RegisterModule(&Module{
		Name: "bigpayload",
		Init: func(inst any, ctx *Context, args string) error {
			ctx.SetHandler(func(_ *Context, _ Handle, _ int32, _ uint8, payload []byte) bool {
				received <- len(payload)
				return false
			})
			return nil
		},
	})
	h, err := e.Spawn("bigpayload", "")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	// 20 MiB: comfortably above the 16 MiB a Handle's 24-bit slot field
	// would allow, and above service/shutdown.go's 5 MiB test fixture.
	big := make([]byte, 20<<20)
	if err := e.DeliverLocal(h, PtypeText, big); err != nil {
		t.Fatalf("DeliverLocal with a 20 MiB payload = %v, want nil", err)
	}

	select {
	case n := <-received:
		if n != len(big) {
			t.Fatalf("handler saw %d bytes, want %d", n, len(big))
		}
	case <-time.After(time.Second):
		t.Fatal("20 MiB payload never reached the handler")
	}
}

func TestPayloadSizeExceedsMaxBoundary(t *testing.T) {
	if payloadSizeExceedsMax(MaxPayloadSize) {
		t.Fatal("a payload exactly at MaxPayloadSize must not be rejected")
	}
	if !payloadSizeExceedsMax(MaxPayloadSize + 1) {
		t.Fatal("a payload one byte over MaxPayloadSize must be rejected")
	}
}

func TestInstanceOnUnknownHandleFails(t *testing.T) {
	e := newCommandTestEngine(t)
	if _, ok := e.Instance(NewHandle(1, 999)); ok {
		t.Fatal("Instance should fail for a Handle that was never spawned")
	}
}

// TestWorkersSurviveLiveCountTransientlyHittingZero retires the only
// service (dropping the live count to zero) and immediately spawns
// another, then checks that a worker still dispatches a message to the
// new service: a normal retire-then-spawn sequence must not wedge the
// engine.
func TestWorkersSurviveLiveCountTransientlyHittingZero(t *testing.T) {
	e := newCommandTestEngine(t)
	e.RegisterModule(&Module{
		Name: "transient",
		Init: func(inst any, ctx *Context, args string) error { return nil },
	})

	first, err := e.Spawn("transient", "")
	if err != nil {
		t.Fatalf("spawn first: %v", err)
	}
	e.retire(first)

	received := make(chan struct{}, 1)
	e.RegisterModule(&Module{
		Name: "transient2",
		Init: func(inst any, ctx *Context, args string) error {
			ctx.SetHandler(func(*Context, Handle, int32, uint8, []byte) bool {
				received <- struct{}{}
				return false
			})
			return nil
		},
	})
	second, err := e.Spawn("transient2", "")
	if err != nil {
		t.Fatalf("spawn second: %v", err)
	}
	if err := e.DeliverLocal(second, PtypeText, nil); err != nil {
		t.Fatalf("DeliverLocal: %v", err)
	}

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("worker pool never dispatched to a service spawned after live count hit zero")
	}
}
