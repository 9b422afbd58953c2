// Package service holds demo Modules exercising the runtime end to end:
// a ping-pong loop, timer ordering, worker fairness under a saturating
// service, a TCP echo gateway over the socket engine, graceful shutdown
// under a large in-flight payload, and a deliberately endless handler
// for the stall monitor. Each file is one Module, the texture the
// teacher's trading/ package used for one actor per file.
package service

import "encoding/binary"

// socketMsg is the PtypeSocket payload layout, kept from
// skynet_socket.h's skynet_socket_message{type, id, ud, buffer}: a fixed
// header in front of a kind-specific tail (the peer address string for
// Open/Accept, the read bytes for Data, nothing for Close/Warning).
type socketMsg struct {
	Kind uint8
	ID   uint32
	UD   uint32
	Tail []byte
}

func encodeSocketMsg(m socketMsg) []byte {
	buf := make([]byte, 9+len(m.Tail))
	buf[0] = m.Kind
	binary.BigEndian.PutUint32(buf[1:5], m.ID)
	binary.BigEndian.PutUint32(buf[5:9], m.UD)
	copy(buf[9:], m.Tail)
	return buf
}

func decodeSocketMsg(buf []byte) (socketMsg, bool) {
	if len(buf) < 9 {
		return socketMsg{}, false
	}
	return socketMsg{
		Kind: buf[0],
		ID:   binary.BigEndian.Uint32(buf[1:5]),
		UD:   binary.BigEndian.Uint32(buf[5:9]),
		Tail: buf[9:],
	}, true
}
