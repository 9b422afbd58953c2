package remote

import (
	"errors"
	"io"
	"log/slog"
	"net"
)

// streamReader reads frames off one accepted connection and delivers
// each decoded envelope, kept from the teacher's streamReader but
// generalized from a drpc-generated server stream to a raw net.Conn read
// loop over wire.go's framing (see remote.go's package doc).
type streamReader struct {
	remote *Remote
	conn   net.Conn
	peer   uint8
}

func newStreamReader(r *Remote, conn net.Conn) *streamReader {
	return &streamReader{remote: r, conn: conn}
}

func (r *streamReader) run() {
	defer r.conn.Close()
	defer slog.Debug("harbor: connection closed", "addr", r.conn.RemoteAddr().String())

	for {
		tag, body, err := readFrame(r.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Error("harbor: read", "addr", r.conn.RemoteAddr().String(), "err", err)
			}
			return
		}
		switch tag {
		case frameHandshake:
			node, addr, ok := decodeHandshake(body)
			if !ok {
				slog.Warn("harbor: malformed handshake", "addr", r.conn.RemoteAddr().String())
				continue
			}
			r.peer = node
			slog.Debug("harbor: peer announced", "node", node, "listenAddr", addr)
		case frameEnvelope:
			r.remote.deliverInbound(body)
		default:
			slog.Warn("harbor: unknown frame tag", "tag", tag)
		}
	}
}
