package remote

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Frame tags mirror drpcwire's kind byte, minus the RPC method dispatch
// machinery: this transport carries exactly two payload shapes between
// harbor delegates, so a single byte is enough to tell them apart.
type frameTag byte

const (
	frameHandshake frameTag = 'H' // node id + dial-back listen address
	frameEnvelope  frameTag = 'M' // actor.EncodeHarborEnvelope bytes
)

// maxFrameBody bounds a single frame's body, catching a corrupt length
// prefix before it turns into a multi-gigabyte allocation.
const maxFrameBody = 1 << 24

// writeFrame writes a length-prefixed [len(tag+body) uint32 BE][tag][body]
// frame, the same shape as skynet_harbor.c's own 4-byte size header
// (HEADER_COOKIE_LENGTH) ahead of the message body.
func writeFrame(w io.Writer, tag frameTag, body []byte) error {
	var head [5]byte
	binary.BigEndian.PutUint32(head[:4], uint32(len(body)+1))
	head[4] = byte(tag)
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}

// readFrame reads one frame written by writeFrame.
func readFrame(r io.Reader) (frameTag, []byte, error) {
	var head [5]byte
	if _, err := io.ReadFull(r, head[:4]); err != nil {
		return 0, nil, err
	}
	n := binary.BigEndian.Uint32(head[:4])
	if n == 0 || n > maxFrameBody {
		return 0, nil, fmt.Errorf("remote: bad frame length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, nil, err
	}
	return frameTag(buf[0]), buf[1:], nil
}

// encodeHandshake packs the announcing node's id and the address peers
// should dial to reach it, per service_harbor.c's "S fd id"/"A fd id"
// self-id exchange on connect.
func encodeHandshake(node uint8, listenAddr string) []byte {
	buf := make([]byte, 1+len(listenAddr))
	buf[0] = node
	copy(buf[1:], listenAddr)
	return buf
}

func decodeHandshake(body []byte) (node uint8, listenAddr string, ok bool) {
	if len(body) < 1 {
		return 0, "", false
	}
	return body[0], string(body[1:]), true
}
