package actor

import (
	"sort"
	"sync"

	"github.com/zeebo/xxh3"
)

// registry is the identity registry (spec.md §4.1, C1): an open-addressed
// slot array of *Service plus a sorted (name, Handle) table for name
// lookup, both behind one RWMutex. Grounded on the teacher's
// actor/registry.go (a plain map under RWMutex), generalized to the
// spec's slot-array-with-doubling and binary-searched name table.
type registry struct {
	mu   sync.RWMutex
	node uint8

	slots     []*Service
	nextIndex uint32

	names []nameEntry
}

type nameEntry struct {
	name   string
	hash   uint64
	handle Handle
}

func newRegistry(node uint8) *registry {
	return &registry{
		node:  node,
		slots: make([]*Service, 4),
	}
}

// register allocates a Handle for svc and installs it in the slot array,
// per spec.md §4.1 register(): probe forward from next_index, double and
// rehash on collision with a full array, wrap skips Handle 0.
func (r *registry) register(svc *Service) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		if h, ok := r.tryAllocLocked(svc); ok {
			return h, nil
		}
		if uint32(len(r.slots)) >= maxSlots {
			return 0, ErrRegistryFull
		}
		if err := r.grow(); err != nil {
			return 0, err
		}
	}
}

// tryAllocLocked probes forward from nextIndex for one full pass over the
// current slot array, skipping the idx==0/node==0 combination that would
// produce the reserved Handle 0.
func (r *registry) tryAllocLocked(svc *Service) (Handle, bool) {
	size := uint32(len(r.slots))
	for attempts := uint32(0); attempts < size; attempts++ {
		idx := r.nextIndex
		r.nextIndex++
		if r.nextIndex >= size {
			r.nextIndex = 0
		}
		if idx == 0 && r.node == 0 {
			continue
		}
		if r.slots[idx] == nil {
			h := NewHandle(r.node, idx)
			svc.handle = h
			svc.addRef() // the registry's own baseline reference, spec.md §3
			r.slots[idx] = svc
			return h, true
		}
	}
	return 0, false
}

// grow doubles the slot array, rehashing every live service's slot modulo
// the new size, matching spec.md §4.1's "every live service's Handle's low
// bits must land in the new modulo".
func (r *registry) grow() error {
	oldSize := uint32(len(r.slots))
	newSize := oldSize * 2
	if newSize > maxSlots {
		newSize = maxSlots
	}
	if newSize <= oldSize {
		return ErrRegistryFull
	}
	newSlots := make([]*Service, newSize)
	for _, svc := range r.slots {
		if svc == nil {
			continue
		}
		newSlots[svc.handle.Slot()%newSize] = svc
	}
	r.slots = newSlots
	return nil
}

// retire clears the slot and every name entry pointing at h, then returns
// the retired Service (so the caller can drop the registry's own
// reference) and whether h was present. The reference is dropped after
// unlocking (see Service.release), so the final destructor can't recurse
// back under this lock.
func (r *registry) retire(h Handle) (*Service, bool) {
	r.mu.Lock()
	idx := h.Slot()
	var svc *Service
	if int(idx) < len(r.slots) {
		svc = r.slots[idx]
		if svc != nil && svc.handle == h {
			r.slots[idx] = nil
		} else {
			svc = nil
		}
	}
	if svc != nil {
		kept := r.names[:0]
		for _, e := range r.names {
			if e.handle != h {
				kept = append(kept, e)
			}
		}
		r.names = kept
	}
	r.mu.Unlock()
	return svc, svc != nil
}

// grab resolves h to its Service and adds one reference, returning nil if
// h is not currently registered (spec.md §4.1 grab()).
func (r *registry) grab(h Handle) *Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := h.Slot()
	if int(idx) >= len(r.slots) {
		return nil
	}
	svc := r.slots[idx]
	if svc == nil || svc.handle != h {
		return nil
	}
	svc.addRef()
	return svc
}

// bindName binary-inserts name into the sorted name table; fails if the
// name is already bound (names are append-only per spec.md §4.1).
func (r *registry) bindName(name string, h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash := xxh3.HashString(name)
	i := sort.Search(len(r.names), func(i int) bool {
		return compareEntry(r.names[i], hash, name) >= 0
	})
	if i < len(r.names) && r.names[i].name == name {
		return ErrNameTaken
	}
	r.names = append(r.names, nameEntry{})
	copy(r.names[i+1:], r.names[i:])
	r.names[i] = nameEntry{name: name, hash: hash, handle: h}
	return nil
}

// find binary-searches the sorted name table.
func (r *registry) find(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hash := xxh3.HashString(name)
	i := sort.Search(len(r.names), func(i int) bool {
		return compareEntry(r.names[i], hash, name) >= 0
	})
	if i < len(r.names) && r.names[i].name == name {
		return r.names[i].handle, true
	}
	return 0, false
}

// compareEntry orders name entries by hash then by name, giving
// bindName/find a stable total order to binary search over: negative if e
// sorts before (hash, name), zero if equal, positive if after.
func compareEntry(e nameEntry, hash uint64, name string) int {
	switch {
	case e.hash < hash:
		return -1
	case e.hash > hash:
		return 1
	case e.name < name:
		return -1
	case e.name > name:
		return 1
	default:
		return 0
	}
}

// retireAll repeatedly scans all slots retiring each until a scan finds
// none left, per spec.md §4.1 retire_all() (used by the ABORT command).
func (r *registry) retireAll(release func(*Service)) {
	for {
		r.mu.RLock()
		var victim *Service
		for _, svc := range r.slots {
			if svc != nil {
				victim = svc
				break
			}
		}
		r.mu.RUnlock()
		if victim == nil {
			return
		}
		if _, ok := r.retire(victim.handle); ok {
			release(victim)
		}
	}
}

// liveCount returns the number of occupied slots, used by the engine's
// shutdown predicate (spec.md §4.5 Shutdown).
func (r *registry) liveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, svc := range r.slots {
		if svc != nil {
			n++
		}
	}
	return n
}
