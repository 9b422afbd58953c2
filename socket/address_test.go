package socket

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeUDPAddressV4(t *testing.T) {
	addr := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 42), Port: 9000}
	buf := EncodeUDPAddress(addr)
	require.Equal(t, 7, len(buf))

	got, n, err := DecodeUDPAddress(buf)
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, addr.Port, got.Port)
	require.True(t, addr.IP.Equal(got.IP))
}

func TestEncodeDecodeUDPAddressV6(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("2001:db8::1"), Port: 53}
	buf := EncodeUDPAddress(addr)
	require.Equal(t, 19, len(buf))

	got, n, err := DecodeUDPAddress(buf)
	require.NoError(t, err)
	require.Equal(t, 19, n)
	require.Equal(t, addr.Port, got.Port)
	require.True(t, addr.IP.Equal(got.IP))
}

func TestDecodeUDPAddressMalformed(t *testing.T) {
	_, _, err := DecodeUDPAddress(nil)
	require.ErrorIs(t, err, ErrBadUDPAddress)

	_, _, err = DecodeUDPAddress([]byte{udpFamily4, 0, 1})
	require.ErrorIs(t, err, ErrBadUDPAddress)

	_, _, err = DecodeUDPAddress([]byte{0xff})
	require.ErrorIs(t, err, ErrBadUDPAddress)
}

func TestDecodeAppendedAfterPayload(t *testing.T) {
	payload := []byte("hello")
	addr := EncodeUDPAddress(&net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 1234})
	datagram := append(append([]byte(nil), payload...), addr...)

	got, n, err := DecodeUDPAddress(datagram[len(payload):])
	require.NoError(t, err)
	require.Equal(t, len(addr), n)
	require.Equal(t, 1234, got.Port)
}
