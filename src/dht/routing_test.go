package dht

import (
	"fmt"
	"testing"
)

func TestAddContactIgnoresSelf(t *testing.T) {
	me := Contact{ID: RandomNodeID(), Addr: "127.0.0.1:4001"}
	rt := NewRoutingTable(me)

	if rt.AddContact(me) {
		t.Fatal("routing table accepted our own contact")
	}
	if rt.Len() != 0 {
		t.Fatalf("expected empty table, got %d contacts", rt.Len())
	}
}

func TestAddContactRefreshesExisting(t *testing.T) {
	rt := NewRoutingTable(Contact{ID: RandomNodeID(), Addr: "127.0.0.1:4001"})

	c := Contact{ID: RandomNodeID(), Addr: "127.0.0.1:5000"}
	rt.AddContact(c)
	rt.AddContact(c)

	if rt.Len() != 1 {
		t.Fatalf("expected 1 contact, got %d", rt.Len())
	}
}

func TestFindClosestOrdering(t *testing.T) {
	me := Contact{ID: RandomNodeID(), Addr: "127.0.0.1:4001"}
	rt := NewRoutingTable(me)

	for i := 0; i < 50; i++ {
		rt.AddContact(Contact{
			ID:   RandomNodeID(),
			Addr: fmt.Sprintf("127.0.0.1:%d", 5000+i),
		})
	}

	target := RandomNodeID()
	closest := rt.FindClosest(target, BucketSize)

	if len(closest) == 0 {
		t.Fatal("no contacts returned")
	}
	if len(closest) > BucketSize {
		t.Fatalf("got %d contacts, expected at most %d", len(closest), BucketSize)
	}

	for i := 1; i < len(closest); i++ {
		prev := closest[i-1].ID.Distance(target)
		cur := closest[i].ID.Distance(target)
		if cur.Less(prev) {
			t.Fatalf("contacts not ordered by distance at index %d", i)
		}
	}
}

func TestFindClosestCount(t *testing.T) {
	rt := NewRoutingTable(Contact{ID: RandomNodeID(), Addr: "127.0.0.1:4001"})

	for i := 0; i < 10; i++ {
		rt.AddContact(Contact{
			ID:   RandomNodeID(),
			Addr: fmt.Sprintf("127.0.0.1:%d", 5000+i),
		})
	}

	if got := len(rt.FindClosest(RandomNodeID(), 3)); got != 3 {
		t.Fatalf("got %d contacts, expected 3", got)
	}
}

func TestNodeIDFromKeyDeterministic(t *testing.T) {
	key := []byte("some record key")
	if !NodeIDFromKey(key).Equals(NodeIDFromKey(key)) {
		t.Fatal("key mapping is not deterministic")
	}
}
