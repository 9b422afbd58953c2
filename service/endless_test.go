package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStallDetection(t *testing.T) {
	e := newTestEngine(t)
	e.RegisterModule(NewEndlessModule())

	h, err := e.Spawn("endless", "")
	require.NoError(t, err)

	before, ok := e.Command(h, "STAT", "endless")
	require.True(t, ok)
	require.Equal(t, "0", before)

	require.NoError(t, e.DeliverLocal(h, PtypeSpin, nil))

	svc, ok := e.Instance(h)
	require.True(t, ok)
	ep := svc.(*Endless)
	select {
	case <-ep.Started:
	case <-time.After(time.Second):
		t.Fatal("endless handler never started")
	}

	// The monitor samples every 5s and flags a service only once two
	// samples see the same in-flight dispatch, so detection takes 5-10s.
	require.Eventually(t, func() bool {
		v, ok := e.Command(h, "STAT", "endless")
		return ok && v == "1"
	}, 12*time.Second, 5*time.Millisecond)
}
