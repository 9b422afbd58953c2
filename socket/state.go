package socket

// state is a socket's lifecycle state (spec.md §4.9 Socket, the
// Invalid/Reserved/.../Bind enumeration), stored as an int32 so it can be
// read and CAS'd without the per-socket spinlock.
type state int32

const (
	StateInvalid state = iota
	StateReserved
	StatePreListen
	StateListen
	StateConnecting
	StateConnected
	StateHalfCloseRead
	StateHalfCloseWrite
	StatePreAccept
	StateBind
)

func (s state) String() string {
	switch s {
	case StateInvalid:
		return "invalid"
	case StateReserved:
		return "reserved"
	case StatePreListen:
		return "prelisten"
	case StateListen:
		return "listen"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateHalfCloseRead:
		return "halfclose-read"
	case StateHalfCloseWrite:
		return "halfclose-write"
	case StatePreAccept:
		return "preaccept"
	case StateBind:
		return "bind"
	default:
		return "unknown"
	}
}

// Protocol distinguishes TCP from the two UDP address families (spec.md
// §4.9 UDP).
type Protocol uint8

const (
	ProtoTCP Protocol = iota
	ProtoUDP4
	ProtoUDP6
)
