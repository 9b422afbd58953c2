package actor

import "testing"

func TestContextAccessorsReflectCurrentDispatch(t *testing.T) {
	e := newCommandTestEngine(t)

	type snapshot struct {
		self    Handle
		source  Handle
		session int32
		mtype   uint8
		payload []byte
	}
	got := make(chan snapshot, 1)

	e.RegisterModule(&Module{
		Name: "ctxecho",
		Init: func(inst any, ctx *Context, args string) error {
			ctx.SetHandler(func(c *Context, source Handle, session int32, mtype uint8, payload []byte) bool {
				got <- snapshot{c.Self(), c.Source(), c.Session(), c.Type(), c.Payload()}
				return false
			})
			return nil
		},
	})
	h, err := e.Spawn("ctxecho", "")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	if err := e.sendFrom(NewHandle(1, 55), h, PtypeClient, 9, []byte("payload")); err != nil {
		t.Fatalf("sendFrom: %v", err)
	}

	s := <-got
	if s.self != h {
		t.Fatalf("Self() = %s, want %s", s.self, h)
	}
	if s.source != NewHandle(1, 55) {
		t.Fatalf("Source() = %s, want %s", s.source, NewHandle(1, 55))
	}
	if s.session != 9 {
		t.Fatalf("Session() = %d, want 9", s.session)
	}
	if s.mtype != PtypeClient {
		t.Fatalf("Type() = %d, want PtypeClient", s.mtype)
	}
	if string(s.payload) != "payload" {
		t.Fatalf("Payload() = %q, want %q", s.payload, "payload")
	}
}

func TestContextSetHandlerSwapsForNextDispatch(t *testing.T) {
	e := newCommandTestEngine(t)
	calls := make(chan string, 2)

	e.RegisterModule(&Module{
		Name: "ctxswap",
		Init: func(inst any, ctx *Context, args string) error {
			var second Handler
			second = func(*Context, Handle, int32, uint8, []byte) bool {
				calls <- "second"
				return false
			}
			ctx.SetHandler(func(c *Context, _ Handle, _ int32, _ uint8, _ []byte) bool {
				calls <- "first"
				c.SetHandler(second)
				return false
			})
			return nil
		},
	})
	h, err := e.Spawn("ctxswap", "")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	if err := e.DeliverLocal(h, PtypeText, nil); err != nil {
		t.Fatalf("DeliverLocal: %v", err)
	}
	if err := e.DeliverLocal(h, PtypeText, nil); err != nil {
		t.Fatalf("DeliverLocal: %v", err)
	}

	if got := <-calls; got != "first" {
		t.Fatalf("first dispatch invoked %q, want first", got)
	}
	if got := <-calls; got != "second" {
		t.Fatalf("second dispatch invoked %q, want second (handler swap didn't take)", got)
	}
}
