package actor

import "testing"

func TestHandleRoundTrip(t *testing.T) {
	h := NewHandle(0x12, 0x00abcdef)
	if h.Node() != 0x12 {
		t.Fatalf("Node() = %#x, want 0x12", h.Node())
	}
	if h.Slot() != 0x00abcdef {
		t.Fatalf("Slot() = %#x, want 0xabcdef", h.Slot())
	}
}

func TestHandleSlotMasksOverflow(t *testing.T) {
	h := NewHandle(1, 1<<30)
	if h.Slot() != (1<<30)&slotMask {
		t.Fatalf("Slot() didn't mask to 24 bits: %#x", h.Slot())
	}
}

func TestHandleStringParseRoundTrip(t *testing.T) {
	h := NewHandle(3, 42)
	s := h.String()
	got, ok := ParseHandle(s)
	if !ok {
		t.Fatalf("ParseHandle(%q) failed", s)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %#x, want %#x", got, h)
	}
}

func TestParseHandleRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", ":", "2a", ":zz"} {
		if _, ok := ParseHandle(s); ok {
			t.Fatalf("ParseHandle(%q) unexpectedly succeeded", s)
		}
	}
}

func TestHandleIsZero(t *testing.T) {
	if !Handle(0).IsZero() {
		t.Fatal("zero Handle should report IsZero")
	}
	if NewHandle(1, 1).IsZero() {
		t.Fatal("non-zero Handle should not report IsZero")
	}
}
