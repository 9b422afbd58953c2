package remote

import (
	"crypto/tls"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	writerQueueSize = 1024
	dialRetryDelay  = 500 * time.Millisecond
	dialMaxRetries  = 3
)

// streamWriter owns the single outbound connection this node keeps open
// to one remote node, queueing envelopes and writing them in order.
// Grounded on the teacher's streamWriter, generalized from an
// actor.Processer driven by its own inbox to a goroutine draining a plain
// channel: this transport's unit is already the flat byte buffer
// actor.EncodeHarborEnvelope produced, so the teacher's per-batch
// typeNames/senders/targets dedup tables (needed to avoid repeating a
// protobuf type name per message) have nothing left to do here.
type streamWriter struct {
	remote *Remote
	node   uint8
	addr   string

	queue   chan []byte
	closeCh chan struct{}
	once    sync.Once
}

func newStreamWriter(r *Remote, node uint8, addr string) *streamWriter {
	return &streamWriter{
		remote:  r,
		node:    node,
		addr:    addr,
		queue:   make(chan []byte, writerQueueSize),
		closeCh: make(chan struct{}),
	}
}

func (w *streamWriter) send(envelope []byte) {
	select {
	case w.queue <- envelope:
	case <-w.closeCh:
	default:
		slog.Warn("harbor: outbound queue full, dropping envelope", "node", w.node)
	}
}

func (w *streamWriter) start() {
	go w.run()
}

func (w *streamWriter) close() {
	w.once.Do(func() { close(w.closeCh) })
}

func (w *streamWriter) run() {
	conn := w.dial()
	if conn == nil {
		w.remote.forgetWriter(w.node, w)
		return
	}
	defer conn.Close()

	for {
		select {
		case <-w.closeCh:
			return
		case body := <-w.queue:
			if err := writeFrame(conn, frameEnvelope, body); err != nil {
				slog.Error("harbor: write failed", "node", w.node, "addr", w.addr, "err", err)
				w.remote.forgetWriter(w.node, w)
				return
			}
		}
	}
}

// dial connects to the remote node, retrying with the teacher's linear
// backoff, then performs the handshake frame exchange (service_harbor.c's
// "send self_id to fd" on connect, minus the reply-id check since this
// port deliver-checks envelopes by Handle rather than trusting a single
// slave slot per node).
func (w *streamWriter) dial() net.Conn {
	var (
		conn net.Conn
		err  error
	)
	for i := 0; i < dialMaxRetries; i++ {
		if w.remote.cfg.TLSConfig == nil {
			conn, err = net.Dial("tcp", w.addr)
		} else {
			conn, err = tls.Dial("tcp", w.addr, w.remote.cfg.TLSConfig)
		}
		if err == nil {
			break
		}
		slog.Error("harbor: dial", "node", w.node, "addr", w.addr, "retry", i, "err", err)
		time.Sleep(dialRetryDelay * time.Duration(i+1))
	}
	if err != nil {
		return nil
	}
	handshake := encodeHandshake(w.remote.engine.Node(), w.remote.ListenAddr())
	if err := writeFrame(conn, frameHandshake, handshake); err != nil {
		slog.Error("harbor: handshake write", "node", w.node, "err", err)
		conn.Close()
		return nil
	}
	return conn
}
