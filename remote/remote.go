// Package remote is the C11 harbor delegate (spec.md §4.11): the Service
// that SetHarborDelegate points at, responsible for actually shipping a
// HarborEnvelope to another node's listener and decoding what comes back.
//
// Grounded on the teacher's remote.go/stream_router.go/stream_writer.go/
// stream_reader.go, adapted from *actor.PID address-string routing plus a
// drpc-generated RPC service to plain actor.Handle routing over a hand
// framed TCP/TLS stream (see wire.go): the teacher's wire format is a
// protoc-generated Envelope message, and this port has no protoc step
// available to regenerate it for a renamed module, so the envelope is
// instead the flat byte buffer actor.EncodeHarborEnvelope already
// produces, framed the way skynet_harbor.c frames its own remote_message
// header.
package remote

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/prynsxdnl176/annotated-skynet/actor"
)

// Config holds the harbor delegate's transport options, kept in the
// teacher's functional-options-free style (remote.Config was already a
// plain struct with With* builders there).
type Config struct {
	ListenAddr string
	TLSConfig  *tls.Config
}

func NewConfig(listenAddr string) Config {
	return Config{ListenAddr: listenAddr}
}

func (c Config) WithTLS(cfg *tls.Config) Config {
	c.TLSConfig = cfg
	return c
}

// Remote is the harbor delegate's Module instance. It owns the listener
// accepting inbound harbor connections and the table of outbound
// streamWriters, one per remote node once its dial address is known.
type Remote struct {
	cfg    Config
	engine *actor.Engine
	self   actor.Handle

	ln net.Listener

	mu      sync.Mutex
	addrs   map[uint8]string
	writers map[uint8]*streamWriter

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewModule returns the actor.Module a bootstrap Spawn installs as the
// harbor delegate (the caller still owns calling engine.SetHarborDelegate
// with the returned Handle, since Module.Init has no way to hand that
// back to itself before Spawn returns).
func NewModule(cfg Config) *actor.Module {
	return &actor.Module{
		Name: "harbor",
		Create: func() any {
			return &Remote{
				cfg:     cfg,
				addrs:   make(map[uint8]string),
				writers: make(map[uint8]*streamWriter),
				stopCh:  make(chan struct{}),
			}
		},
		Init: func(inst any, ctx *actor.Context, args string) error {
			return inst.(*Remote).init(ctx)
		},
		Release: func(inst any) {
			inst.(*Remote).shutdown()
		},
	}
}

func (r *Remote) init(ctx *actor.Context) error {
	r.engine = ctx.Engine()
	r.self = ctx.Self()

	var (
		ln  net.Listener
		err error
	)
	if r.cfg.TLSConfig == nil {
		ln, err = net.Listen("tcp", r.cfg.ListenAddr)
	} else {
		ln, err = tls.Listen("tcp", r.cfg.ListenAddr, r.cfg.TLSConfig)
	}
	if err != nil {
		return fmt.Errorf("remote: listen %s: %w", r.cfg.ListenAddr, err)
	}
	r.ln = ln

	ctx.SetHandler(r.handleHarbor)

	r.wg.Add(1)
	go r.acceptLoop()

	slog.Info("harbor listening", "addr", ln.Addr().String())
	return nil
}

// ListenAddr returns the address this node's harbor actually bound to
// (useful once cfg.ListenAddr asked for an ephemeral port).
func (r *Remote) ListenAddr() string {
	return r.ln.Addr().String()
}

// SetNodeAddress records the dial address for a remote node, the Go
// equivalent of service_harbor.c's "S fd id" self-id exchange, except
// filled by the cluster discovery table (SPEC_FULL.md §3) rather than an
// in-band control message. An existing writer for node is closed so the
// next outbound envelope redials with the new address.
func (r *Remote) SetNodeAddress(node uint8, addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addrs[node] = addr
	if w, ok := r.writers[node]; ok {
		delete(r.writers, node)
		w.close()
	}
}

// RemoveNode drops a node's dial address and tears down its writer,
// called when discovery reports the peer gone.
func (r *Remote) RemoveNode(node uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.addrs, node)
	if w, ok := r.writers[node]; ok {
		delete(r.writers, node)
		w.close()
	}
}

func (r *Remote) writerFor(node uint8) (*streamWriter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.writers[node]; ok {
		return w, true
	}
	addr, ok := r.addrs[node]
	if !ok {
		return nil, false
	}
	w := newStreamWriter(r, node, addr)
	r.writers[node] = w
	w.start()
	return w, true
}

func (r *Remote) forgetWriter(node uint8, w *streamWriter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writers[node] == w {
		delete(r.writers, node)
	}
}

// handleHarbor is the Handler installed on the delegate Service: every
// message forwarded here is a PtypeHarbor envelope that sendFrom
// classified as non-local (spec.md §4.11).
func (r *Remote) handleHarbor(ctx *actor.Context, source actor.Handle, session int32, mtype uint8, payload []byte) bool {
	env, ok := actor.DecodeHarborEnvelope(payload)
	if !ok {
		slog.Warn("harbor: malformed envelope", "source", source.String())
		return false
	}
	node := env.Destination.Node()
	w, ok := r.writerFor(node)
	if !ok {
		slog.Warn("harbor: no dial address for node", "node", node)
		return false
	}
	w.send(payload)
	return false
}

// deliverInbound is called by a streamReader after it decodes a frame
// that arrived from a remote node: it injects the envelope straight into
// the destination's mailbox, skipping the local/remote classification
// already performed by the originating node.
func (r *Remote) deliverInbound(body []byte) {
	env, ok := actor.DecodeHarborEnvelope(body)
	if !ok {
		slog.Warn("harbor: malformed inbound envelope")
		return
	}
	if err := r.engine.DeliverRemote(env); err != nil {
		slog.Warn("harbor: inbound delivery failed", "err", err)
	}
}

func (r *Remote) acceptLoop() {
	defer r.wg.Done()
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			select {
			case <-r.stopCh:
				return
			default:
				slog.Error("harbor: accept", "err", err)
				return
			}
		}
		reader := newStreamReader(r, conn)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			reader.run()
		}()
	}
}

func (r *Remote) shutdown() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.ln != nil {
			_ = r.ln.Close()
		}
		r.mu.Lock()
		for node, w := range r.writers {
			delete(r.writers, node)
			w.close()
		}
		r.mu.Unlock()
	})
	r.wg.Wait()
}
