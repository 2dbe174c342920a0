package dht

import (
	"sort"
	"sync"
)

// RoutingTable keeps the contacts known to this node, split over one k-bucket
// per bit of the XOR distance to our own ID.
type RoutingTable struct {
	me      Contact
	buckets [IDLength * 8]*bucket
	mu      sync.RWMutex

	// pingFunc, when set, is called outside the lock to test liveness of the
	// least-recently-seen contact of a full bucket.
	pingFunc func(Contact) bool
}

// NewRoutingTable returns an empty routing table centered on me.
func NewRoutingTable(me Contact) *RoutingTable {
	rt := &RoutingTable{me: me}
	for i := 0; i < IDLength*8; i++ {
		rt.buckets[i] = newBucket()
	}
	return rt
}

// SetPingFunc wires a liveness probe used by the eviction policy.
func (rt *RoutingTable) SetPingFunc(pf func(Contact) bool) {
	rt.mu.Lock()
	rt.pingFunc = pf
	rt.mu.Unlock()
}

// AddContact inserts contact into the correct bucket. Existing contacts are
// moved to the front. When the bucket is full, the least-recently-seen
// contact is probed for liveness outside the lock: if it is dead it is
// evicted, otherwise the newcomer is dropped. Returns true if the contact was
// inserted or refreshed.
func (rt *RoutingTable) AddContact(contact Contact) bool {
	if contact.Addr == "" {
		return false
	}
	// Ignore self.
	if rt.me.ID.Equals(contact.ID) {
		return false
	}

	index := rt.bucketIndex(contact.ID)

	rt.mu.Lock()
	b := rt.buckets[index]
	if e := b.find(contact.ID); e != nil {
		e.Value = contact
		b.list.MoveToFront(e)
		rt.mu.Unlock()
		return true
	}
	if b.Len() < BucketSize {
		b.list.PushFront(contact)
		rt.mu.Unlock()
		return true
	}

	// Full: capture the current LRU and release the lock to probe it.
	lru := b.list.Back().Value.(Contact)
	pf := rt.pingFunc
	rt.mu.Unlock()

	alive := false
	if pf != nil {
		alive = pf(lru)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	b = rt.buckets[index]

	if alive {
		// Keep the old contact, refresh its position, drop the newcomer.
		if e := b.find(lru.ID); e != nil {
			b.list.MoveToFront(e)
		}
		return false
	}

	if e := b.find(lru.ID); e != nil {
		b.list.Remove(e)
	}
	if b.Len() < BucketSize {
		b.list.PushFront(contact)
		return true
	}
	return false
}

// FindClosest returns up to count contacts closest to target.
func (rt *RoutingTable) FindClosest(target NodeID, count int) []Contact {
	rt.mu.RLock()
	candidates := []Contact{}
	for _, b := range rt.buckets {
		candidates = append(candidates, b.contacts()...)
	}
	rt.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		di := candidates[i].ID.Distance(target)
		dj := candidates[j].ID.Distance(target)
		return di.Less(dj)
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates
}

// Len returns the total number of contacts in the table.
func (rt *RoutingTable) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	total := 0
	for _, b := range rt.buckets {
		total += b.Len()
	}
	return total
}

// bucketIndex returns the bucket index of id: the position of the first bit
// that differs from our own ID.
func (rt *RoutingTable) bucketIndex(id NodeID) int {
	distance := id.Distance(rt.me.ID)
	for i := 0; i < IDLength; i++ {
		for j := 0; j < 8; j++ {
			if (distance[i]>>uint8(7-j))&0x1 != 0 {
				return i*8 + j
			}
		}
	}
	return IDLength*8 - 1
}
