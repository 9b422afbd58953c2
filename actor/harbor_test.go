package actor

import (
	"bytes"
	"testing"
)

func TestHarborIsLocal(t *testing.T) {
	h := newHarbor(2)
	if !h.isLocal(NewHandle(2, 5)) {
		t.Fatal("Handle on the same node should be local")
	}
	if h.isLocal(NewHandle(3, 5)) {
		t.Fatal("Handle on a different node should not be local")
	}
}

func TestHarborDelegateUnsetThenSet(t *testing.T) {
	h := newHarbor(1)
	if _, ok := h.Delegate(); ok {
		t.Fatal("Delegate should report unset before SetDelegate")
	}
	d := NewHandle(1, 9)
	h.SetDelegate(d)
	got, ok := h.Delegate()
	if !ok || got != d {
		t.Fatalf("Delegate() = %s, %v; want %s, true", got, ok, d)
	}
}

func TestHarborEnvelopeRoundTrip(t *testing.T) {
	e := HarborEnvelope{
		Destination: NewHandle(2, 100),
		Source:      NewHandle(1, 5),
		Session:     -7,
		Type:        PtypeText,
		Payload:     []byte("hello"),
	}
	buf := EncodeHarborEnvelope(e)
	got, ok := DecodeHarborEnvelope(buf)
	if !ok {
		t.Fatal("DecodeHarborEnvelope failed on freshly encoded buffer")
	}
	if got.Destination != e.Destination || got.Source != e.Source || got.Session != e.Session || got.Type != e.Type {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, e)
	}
	if !bytes.Equal(got.Payload, e.Payload) {
		t.Fatalf("payload round trip mismatch: got %q, want %q", got.Payload, e.Payload)
	}
}

func TestDecodeHarborEnvelopeRejectsShortBuffer(t *testing.T) {
	if _, ok := DecodeHarborEnvelope(make([]byte, 12)); ok {
		t.Fatal("DecodeHarborEnvelope should reject a buffer shorter than the fixed header")
	}
}

func TestHarborEnvelopeEmptyPayloadRoundTrip(t *testing.T) {
	e := HarborEnvelope{Destination: NewHandle(2, 1), Source: NewHandle(1, 1), Session: 1, Type: PtypeResponse}
	buf := EncodeHarborEnvelope(e)
	got, ok := DecodeHarborEnvelope(buf)
	if !ok || len(got.Payload) != 0 {
		t.Fatalf("empty payload round trip: got %+v, ok=%v", got, ok)
	}
}
