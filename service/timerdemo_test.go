package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimerOrdering(t *testing.T) {
	e := newTestEngine(t)
	e.RegisterModule(NewTimerDemoModule())

	h, err := e.Spawn("timerdemo", "")
	require.NoError(t, err)

	svc, ok := e.Instance(h)
	require.True(t, ok)
	td := svc.(*TimerDemo)

	first, ok := <-td.Arrived
	require.True(t, ok)
	second, ok := <-td.Arrived
	require.True(t, ok)

	require.Equal(t, td.fiveSession, first, "the 5-tick timer must fire before the 10-tick one")
	require.Equal(t, td.tenSession, second)
}
