package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGracefulShutdownNoTruncation(t *testing.T) {
	e := newTestEngine(t)
	e.RegisterModule(NewShutdownReceiverModule())

	receiverHandle, err := e.Spawn("shutdownreceiver", "")
	require.NoError(t, err)

	e.RegisterModule(NewShutdownSenderModule(receiverHandle))
	_, err = e.Spawn("shutdownsender", "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		svc, ok := e.Instance(receiverHandle)
		if !ok {
			return true // retired: KILL took effect, no further check possible
		}
		r := svc.(*ShutdownReceiver)
		return r.ReceivedOK || r.Truncated
	}, time.Second, 5*time.Millisecond)

	svc, ok := e.Instance(receiverHandle)
	if ok {
		r := svc.(*ShutdownReceiver)
		require.False(t, r.Truncated, "5 MiB payload must not be truncated by the KILL that follows it")
	}
}
