package socket

import (
	"encoding/binary"
	"errors"
	"net"
)

// UDP address family tags, spec.md §4.9 UDP: "1-byte family (UDP4=1 |
// UDP6=2)".
const (
	udpFamily4 = 1
	udpFamily6 = 2
)

// ErrBadUDPAddress is returned by DecodeUDPAddress when the buffer is
// shorter than the family tag demands.
var ErrBadUDPAddress = errors.New("socket: malformed udp address")

// EncodeUDPAddress packs addr into the wire structure of spec.md §4.9:
// family(1) + port(2, network order) + 4 or 16 bytes of address. The
// result is 7 bytes for an IPv4 address and 19 bytes for IPv6; IPv4
// addresses are not padded.
func EncodeUDPAddress(addr *net.UDPAddr) []byte {
	buf := make([]byte, 19)
	ip4 := addr.IP.To4()
	if ip4 != nil {
		buf[0] = udpFamily4
		binary.BigEndian.PutUint16(buf[1:3], uint16(addr.Port))
		copy(buf[3:7], ip4)
		return buf[:7]
	}
	ip6 := addr.IP.To16()
	buf[0] = udpFamily6
	binary.BigEndian.PutUint16(buf[1:3], uint16(addr.Port))
	copy(buf[3:19], ip6)
	return buf
}

// DecodeUDPAddress reverses EncodeUDPAddress, returning the parsed
// address and the number of leading bytes of buf it consumed (so a
// caller appending the address after a datagram's payload, per spec.md
// §4.9 "received datagrams append the sender address to the payload",
// can split payload from address again).
func DecodeUDPAddress(buf []byte) (*net.UDPAddr, int, error) {
	if len(buf) < 1 {
		return nil, 0, ErrBadUDPAddress
	}
	switch buf[0] {
	case udpFamily4:
		if len(buf) < 7 {
			return nil, 0, ErrBadUDPAddress
		}
		port := binary.BigEndian.Uint16(buf[1:3])
		ip := net.IPv4(buf[3], buf[4], buf[5], buf[6])
		return &net.UDPAddr{IP: ip, Port: int(port)}, 7, nil
	case udpFamily6:
		if len(buf) < 19 {
			return nil, 0, ErrBadUDPAddress
		}
		ip := make(net.IP, 16)
		copy(ip, buf[3:19])
		port := binary.BigEndian.Uint16(buf[1:3])
		return &net.UDPAddr{IP: ip, Port: int(port)}, 19, nil
	default:
		return nil, 0, ErrBadUDPAddress
	}
}
