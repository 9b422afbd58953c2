package socket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch <-chan Event, kind Kind) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func newTestEngine(t *testing.T) (*Engine, chan Event) {
	t.Helper()
	events := make(chan Event, 64)
	e, err := NewEngine(func(ev Event) { events <- ev }, nil)
	require.NoError(t, err)
	go e.Run()
	t.Cleanup(e.Stop)
	return e, events
}

func TestListenConnectEchoRoundTrip(t *testing.T) {
	e, events := newTestEngine(t)

	listenID, port, err := e.Listen(1, "127.0.0.1", 0)
	require.NoError(t, err)
	require.NoError(t, e.Start(listenID, 1))

	clientID, err := e.Connect(2, "127.0.0.1", port)
	require.NoError(t, err)

	accept := waitFor(t, events, KindAccept)
	require.NotZero(t, accept.ID)
	require.NoError(t, e.Start(accept.ID, 1))

	open := waitFor(t, events, KindOpen)
	require.Equal(t, clientID, open.ID)

	require.NoError(t, e.Send(clientID, []byte("ping")))
	data := waitFor(t, events, KindData)
	require.Equal(t, accept.ID, data.ID)
	require.Equal(t, "ping", string(data.Data))

	require.NoError(t, e.Send(accept.ID, []byte("pong")))
	reply := waitFor(t, events, KindData)
	require.Equal(t, clientID, reply.ID)
	require.Equal(t, "pong", string(reply.Data))
}

func TestCloseEmitsCloseOncePerSocket(t *testing.T) {
	e, events := newTestEngine(t)

	listenID, port, err := e.Listen(1, "127.0.0.1", 0)
	require.NoError(t, err)
	require.NoError(t, e.Start(listenID, 1))

	clientID, err := e.Connect(2, "127.0.0.1", port)
	require.NoError(t, err)

	accept := waitFor(t, events, KindAccept)
	require.NoError(t, e.Start(accept.ID, 1))
	waitFor(t, events, KindOpen)

	require.NoError(t, e.Close(clientID, true))

	// Both the closed socket and its peer (which now observes EOF) emit
	// exactly one SOCKET_CLOSE each; collect both before asserting no
	// third arrives.
	closed := map[uint32]int{}
	deadline := time.After(3 * time.Second)
	for len(closed) < 2 {
		select {
		case ev := <-events:
			if ev.Kind == KindClose {
				closed[ev.ID]++
			}
		case <-deadline:
			t.Fatalf("timed out waiting for both sockets to close, saw %v", closed)
		}
	}
	require.Equal(t, 1, closed[clientID])
	require.Equal(t, 1, closed[accept.ID])

	select {
	case ev := <-events:
		if ev.Kind == KindClose {
			t.Fatalf("unexpected extra SOCKET_CLOSE for id %d", ev.ID)
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func TestAllocIDUnique(t *testing.T) {
	e, _ := newTestEngine(t)
	seen := make(map[uint32]bool)
	for i := 0; i < 256; i++ {
		id, s, err := e.allocID()
		require.NoError(t, err)
		require.False(t, seen[id])
		seen[id] = true
		s.setState(StateInvalid) // free the slot for reuse
	}
}
