package service

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateEchoesOverTCP(t *testing.T) {
	e := newTestEngine(t)
	e.RegisterModule(NewGateModule(GateConfig{Host: "127.0.0.1", Port: 0}))

	h, err := e.Spawn("gate", "")
	require.NoError(t, err)

	svc, ok := e.Instance(h)
	require.True(t, ok)
	g := svc.(*Gate)
	require.NotZero(t, g.Port)

	conn, err := net.DialTimeout("tcp", "127.0.0.1:"+strconv.Itoa(g.Port), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("hello gate"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, len("hello gate"))
	_, err = readFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, "hello gate", string(buf))
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
