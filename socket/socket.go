package socket

import (
	"sync/atomic"
	"time"
)

// maxSockets bounds the slot array at 65536 live sockets, spec.md §4.9
// "Max 65536 live sockets".
const maxSockets = 1 << 16

const (
	minReadBuffer    = 64
	watermarkStart   = 1 << 20 // 1 MiB, spec.md §4.9 send policy watermark
	maxUDPDatagram   = 65535
)

// writeBuffer is one pending unit in a socket's high or low priority
// send queue, or its direct-write staging buffer.
type writeBuffer struct {
	data       []byte
	offset     int
	udpAddress []byte // set for UDP sends that override the current peer
}

func (b *writeBuffer) remaining() []byte { return b.data[b.offset:] }
func (b *writeBuffer) done() bool        { return b.offset >= len(b.data) }

// socket is one slot array entry, spec.md §4.9 Socket: OS fd, protocol,
// state, owner, dual-priority send queues, read hint, per-socket
// spinlock guarding the direct-write staging buffer.
type socket struct {
	id       uint32
	fd       int
	protocol Protocol
	st       atomic.Int32 // state
	owner    uint32

	high []*writeBuffer
	low  []*writeBuffer
	wb   *writeBuffer // direct-write staging buffer

	wbSize   int // total queued bytes across high+low+direct
	warnSize int // next watermark to cross before a SOCKET_WARNING

	readHint int

	closeRequested bool // 'K' with shutdown=false was issued
	forceClose     bool // 'K' with shutdown=true was issued
	closeSent      bool // SOCKET_CLOSE already emitted once

	writing bool // writability currently enabled with the poller
	paused  bool // read readiness ignored while true (Pause/Start)

	udpPeer []byte // encoded "current peer" for a UDP socket (7 or 19 bytes)

	lock spinlock // guards wb/high/low/wbSize from a racing direct-write

	bytesRead    uint64
	bytesWritten uint64
	lastActivity time.Time
}

func (s *socket) state() state      { return state(s.st.Load()) }
func (s *socket) setState(v state)  { s.st.Store(int32(v)) }
func (s *socket) casState(old, next state) bool {
	return s.st.CompareAndSwap(int32(old), int32(next))
}

func (s *socket) reset(id uint32) {
	s.id = id
	s.fd = -1
	s.protocol = ProtoTCP
	s.owner = 0
	s.high = nil
	s.low = nil
	s.wb = nil
	s.wbSize = 0
	s.warnSize = 0
	s.readHint = minReadBuffer
	s.closeRequested = false
	s.forceClose = false
	s.closeSent = false
	s.writing = false
	s.udpPeer = nil
}
