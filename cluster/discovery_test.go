package cluster

import (
	"testing"

	"github.com/grandcat/zeroconf"
)

type fakeNodeSetter struct {
	set     map[uint8]string
	removed []uint8
}

func (f *fakeNodeSetter) SetNodeAddress(node uint8, addr string) {
	if f.set == nil {
		f.set = make(map[uint8]string)
	}
	f.set[node] = addr
}

func (f *fakeNodeSetter) RemoveNode(node uint8) {
	f.removed = append(f.removed, node)
}

func TestPeerNodeExtractsNodeIDFromTXTRecord(t *testing.T) {
	entry := &zeroconf.ServiceEntry{Text: []string{"other=ignored", "node=7"}}
	node, ok := peerNode(entry)
	if !ok || node != 7 {
		t.Fatalf("peerNode() = (%d, %v), want (7, true)", node, ok)
	}
}

func TestPeerNodeRejectsMissingOrMalformedTXTRecord(t *testing.T) {
	cases := [][]string{
		nil,
		{"no-node-key=1"},
		{"node=not-a-number"},
		{"node=256"},
		{"node=-1"},
	}
	for _, txt := range cases {
		if _, ok := peerNode(&zeroconf.ServiceEntry{Text: txt}); ok {
			t.Fatalf("peerNode(%v) unexpectedly succeeded", txt)
		}
	}
}

func TestFakeNodeSetterSatisfiesNodeSetter(t *testing.T) {
	var ns NodeSetter = &fakeNodeSetter{}
	ns.SetNodeAddress(3, "10.0.0.1:7001")
	ns.RemoveNode(3)
}
