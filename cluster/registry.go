package cluster

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	consulapi "github.com/hashicorp/consul/api"
)

const kvPrefix = "skynet/harbor/"

// ConsulRegistry keeps a NodeSetter in sync with a Consul KV tree of
// node id -> dial address, for deployments where mDNS multicast doesn't
// reach (across subnets, most container networks). This is the home the
// teacher's go.mod-only, never-imported hashicorp/consul/api dependency
// gets in this port.
type ConsulRegistry struct {
	client *consulapi.Client
	remote NodeSetter
	self   uint8
	addr   string

	stop chan struct{}
}

// NewConsulRegistry connects to Consul (using consulapi.DefaultConfig's
// environment-driven address/token resolution, the teacher's convention
// for every other env-driven boot parameter) and registers selfNode's
// dial address under skynet/harbor/<id>.
func NewConsulRegistry(selfNode uint8, selfAddr string, remote NodeSetter) (*ConsulRegistry, error) {
	client, err := consulapi.NewClient(consulapi.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("cluster: consul client: %w", err)
	}
	r := &ConsulRegistry{client: client, remote: remote, self: selfNode, addr: selfAddr, stop: make(chan struct{})}
	if err := r.registerSelf(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ConsulRegistry) registerSelf() error {
	key := kvPrefix + strconv.Itoa(int(r.self))
	_, err := r.client.KV().Put(&consulapi.KVPair{Key: key, Value: []byte(r.addr)}, nil)
	if err != nil {
		return fmt.Errorf("cluster: consul register: %w", err)
	}
	return nil
}

// Poll starts a background loop applying the KV tree's contents to the
// NodeSetter every interval, until Stop is called.
func (r *ConsulRegistry) Poll(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.refresh()
			}
		}
	}()
}

func (r *ConsulRegistry) refresh() {
	pairs, _, err := r.client.KV().List(kvPrefix, nil)
	if err != nil {
		slog.Error("cluster: consul list", "err", err)
		return
	}
	for _, kv := range pairs {
		idStr := strings.TrimPrefix(kv.Key, kvPrefix)
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 0 || id > 255 || uint8(id) == r.self {
			continue
		}
		r.remote.SetNodeAddress(uint8(id), string(kv.Value))
	}
}

// Stop ends the poll loop. It does not deregister self's KV entry, so a
// restarted node with the same id republishes the same address.
func (r *ConsulRegistry) Stop() {
	close(r.stop)
}
