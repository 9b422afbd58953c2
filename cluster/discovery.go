// Package cluster fills the harbor delegate's node → dial-address table
// (spec.md §4.11's Non-goal: "cluster/cross-node message forwarding...
// treated as an ordinary service" — this package is that collaborator's
// address book, not a second routing layer). SPEC_FULL.md §3 supplements
// it with two independent ways to learn peer addresses: LAN mDNS
// broadcast (this file) and polling a Consul KV registry (registry.go).
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/grandcat/zeroconf"
)

const (
	serviceName = "_skynet-harbor._tcp"
	domain      = "local."
)

// NodeSetter is the subset of remote.Remote's API discovery needs,
// avoiding an import of the remote package for a two-method interface.
type NodeSetter interface {
	SetNodeAddress(node uint8, addr string)
	RemoveNode(node uint8)
}

// Discovery announces this node's harbor address over mDNS and applies
// every peer it browses to a NodeSetter, kept from the teacher's
// SelfManaged provider (selfmanaged.go), generalized from an
// actor.Receiver driven by Started/Stopped/Ping messages (the framework
// that drove it no longer exists in this port) to a goroutine started
// and stopped directly by the caller.
type Discovery struct {
	node   uint8
	remote NodeSetter

	resolver  *zeroconf.Resolver
	announcer *zeroconf.Server

	cancel context.CancelFunc
}

// NewDiscovery announces node at listenAddr and starts browsing for
// siblings, applying every one it finds to remote.
func NewDiscovery(node uint8, listenAddr string, remote NodeSetter) (*Discovery, error) {
	host, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return nil, fmt.Errorf("cluster: bad listen address %q: %w", listenAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("cluster: bad listen port %q: %w", portStr, err)
	}
	if host == "" {
		host = "0.0.0.0"
	}

	instance := fmt.Sprintf("node-%d", node)
	announcer, err := zeroconf.RegisterProxy(
		instance, serviceName, domain, port, instance, []string{host},
		[]string{fmt.Sprintf("node=%d", node)}, nil)
	if err != nil {
		return nil, fmt.Errorf("cluster: mDNS register: %w", err)
	}

	resolver, err := zeroconf.NewResolver()
	if err != nil {
		announcer.Shutdown()
		return nil, fmt.Errorf("cluster: mDNS resolver: %w", err)
	}

	d := &Discovery{node: node, remote: remote, resolver: resolver, announcer: announcer}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go d.browse(ctx, instance)

	return d, nil
}

func (d *Discovery) browse(ctx context.Context, selfInstance string) {
	entries := make(chan *zeroconf.ServiceEntry, 16)
	go func() {
		for entry := range entries {
			if entry.Instance == selfInstance {
				continue
			}
			node, ok := peerNode(entry)
			if !ok || len(entry.AddrIPv4) == 0 {
				continue
			}
			addr := fmt.Sprintf("%s:%d", entry.AddrIPv4[0], entry.Port)
			slog.Debug("cluster: mDNS peer found", "node", node, "addr", addr)
			d.remote.SetNodeAddress(node, addr)
		}
	}()

	if err := d.resolver.Browse(ctx, serviceName, domain, entries); err != nil {
		slog.Error("cluster: mDNS browse", "err", err)
	}
}

func peerNode(entry *zeroconf.ServiceEntry) (uint8, bool) {
	for _, txt := range entry.Text {
		if id, ok := strings.CutPrefix(txt, "node="); ok {
			n, err := strconv.Atoi(id)
			if err != nil || n < 0 || n > 255 {
				return 0, false
			}
			return uint8(n), true
		}
	}
	return 0, false
}

// Stop shuts down the mDNS announcer and stops browsing.
func (d *Discovery) Stop() {
	d.cancel()
	d.announcer.Shutdown()
}
