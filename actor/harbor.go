package actor

import (
	"encoding/binary"
	"sync/atomic"
)

// harbor is the C11 stub of spec.md §4.11: it classifies a destination
// Handle as local or remote by comparing its node byte, and hands remote
// envelopes to a distinguished delegate Service (installed at startup,
// excluded from the liveness counter per §4.5's "reserved services are
// accounted separately").
type harbor struct {
	node     uint8
	delegate atomic.Uint32
}

func newHarbor(node uint8) *harbor {
	return &harbor{node: node}
}

// isLocal reports whether dest belongs to this node.
func (h *harbor) isLocal(dest Handle) bool {
	return dest.Node() == h.node
}

// SetDelegate installs the Service that outgoing remote envelopes are
// forwarded to (typically remote.Remote's local mailbox address).
func (h *harbor) SetDelegate(d Handle) {
	h.delegate.Store(uint32(d))
}

// Delegate returns the installed delegate Handle, or (0, false) if none
// has been installed yet.
func (h *harbor) Delegate() (Handle, bool) {
	v := h.delegate.Load()
	if v == 0 {
		return 0, false
	}
	return Handle(v), true
}

// HarborEnvelope carries a full message tuple to the delegate Service,
// which owns actually shipping it across the wire (SPEC_FULL.md §3: the
// `remote` package's job, not core's).
type HarborEnvelope struct {
	Destination Handle
	Source      Handle
	Session     int32
	Type        uint8
	Payload     []byte
}

// EncodeHarborEnvelope packs e into the wire form the delegate Service
// expects to receive as a PtypeHarbor message's payload: big-endian
// fixed header followed by the raw payload bytes, per spec.md §9's
// endianness note (framing length prefixes big-endian).
func EncodeHarborEnvelope(e HarborEnvelope) []byte {
	buf := make([]byte, 4+4+4+1+len(e.Payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(e.Destination))
	binary.BigEndian.PutUint32(buf[4:8], uint32(e.Source))
	binary.BigEndian.PutUint32(buf[8:12], uint32(e.Session))
	buf[12] = e.Type
	copy(buf[13:], e.Payload)
	return buf
}

// DecodeHarborEnvelope is EncodeHarborEnvelope's inverse.
func DecodeHarborEnvelope(buf []byte) (HarborEnvelope, bool) {
	if len(buf) < 13 {
		return HarborEnvelope{}, false
	}
	return HarborEnvelope{
		Destination: Handle(binary.BigEndian.Uint32(buf[0:4])),
		Source:      Handle(binary.BigEndian.Uint32(buf[4:8])),
		Session:     int32(binary.BigEndian.Uint32(buf[8:12])),
		Type:        buf[12],
		Payload:     buf[13:],
	}, true
}
