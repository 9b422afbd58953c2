package actor

// Message types occupy the high 8 bits of the packed type/size word
// (spec.md §3 Message). Names follow skynet.h's PTYPE_ table; the numeric
// values are this port's own and do not match skynet.h's numbering.
const (
	PtypeText     uint8 = 0
	PtypeResponse uint8 = 1
	PtypeError    uint8 = 2
	PtypeSocket   uint8 = 3
	PtypeClient   uint8 = 4
	PtypeSystem   uint8 = 5
	PtypeHarbor   uint8 = 6
	PtypeTrace    uint8 = 7
)

// sizeBits is the width of the size field packed alongside a message's
// type word (spec.md §3: "high 8 bits type, low bits size"). skynet_mq.h
// packs this alongside a size_t on a 64-bit word (MESSAGE_TYPE_SHIFT =
// (sizeof(size_t)-1)*8 = 56), so the size field is 56 bits wide there,
// not the 24-bit width of an unrelated Handle's slot field.
const sizeBits = 56

// MaxPayloadSize is the largest payload size the packed type/size word can
// represent: SIZE_MAX >> 8 in skynet terms. MessageTooLarge (spec §7) only
// triggers on a payload that would actually overflow this word, not on any
// size a real caller would reach.
const MaxPayloadSize = 1<<sizeBits - 1
