package dht

import (
	"bytes"
	"testing"
	"time"

	"github.com/misaka19683/miga/src/common"
)

func newTestEngine(t *testing.T) *Kademlia {
	conf := DefaultConfig("127.0.0.1:0")
	conf.Logger = common.NewTestEntry(t)
	conf.QueryTimeout = 3 * time.Second

	k, err := NewKademlia(RandomNodeID(), NewInmemStore(), conf)
	if err != nil {
		t.Fatal(err)
	}
	k.Run()
	t.Cleanup(k.Shutdown)

	return k
}

// waitForEvent drains the engine's stream until an event of the wanted kind
// shows up.
func waitForEvent(t *testing.T, k *Kademlia, kind EventKind, timeout time.Duration) Event {
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-k.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event within %v", kind, timeout)
		}
	}
}

func TestListenerReady(t *testing.T) {
	k := newTestEngine(t)

	ev := waitForEvent(t, k, ListenerReady, time.Second)
	if ev.Addr == "" {
		t.Fatal("ListenerReady event carries no address")
	}
}

func TestBootstrapRequiresSeeds(t *testing.T) {
	k := newTestEngine(t)

	if err := k.Bootstrap(); err == nil {
		t.Fatal("Bootstrap should fail with an empty routing table")
	}
}

func TestBootstrapAgainstPeer(t *testing.T) {
	a := newTestEngine(t)
	b := newTestEngine(t)

	b.AddPeer(a.id, a.AdvertiseAddrs()[0])

	if err := b.Bootstrap(); err != nil {
		t.Fatal(err)
	}

	ev := waitForEvent(t, b, BootstrapProgress, 5*time.Second)
	if ev.Err != nil {
		t.Fatalf("bootstrap failed: %v", ev.Err)
	}
}

func TestGetRecordFromPeer(t *testing.T) {
	a := newTestEngine(t)
	b := newTestEngine(t)

	key := []byte("the-lookup-key")
	rec := &Record{Key: key, Value: []byte("the content"), Publisher: a.id}
	if err := a.store.PutRecord(rec); err != nil {
		t.Fatal(err)
	}

	b.AddPeer(a.id, a.AdvertiseAddrs()[0])
	b.GetRecord(key)

	ev := waitForEvent(t, b, QueryProgress, 5*time.Second)
	if ev.Err != nil {
		t.Fatalf("lookup failed: %v", ev.Err)
	}
	if !bytes.Equal(ev.Record.Value, rec.Value) {
		t.Fatalf("got %q, expected %q", ev.Record.Value, rec.Value)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	a := newTestEngine(t)
	b := newTestEngine(t)

	b.AddPeer(a.id, a.AdvertiseAddrs()[0])
	b.GetRecord([]byte("missing-key"))

	ev := waitForEvent(t, b, QueryProgress, 5*time.Second)
	if ev.Err == nil {
		t.Fatal("expected a not-found outcome")
	}
}

func TestPutRecordReachesPeer(t *testing.T) {
	a := newTestEngine(t)
	b := newTestEngine(t)

	b.AddPeer(a.id, a.AdvertiseAddrs()[0])

	key := []byte("published-key")
	rec := &Record{Key: key, Value: []byte("published"), Publisher: b.id}
	if err := b.PutRecord(rec, QuorumOne); err != nil {
		t.Fatal(err)
	}

	// The fanout is asynchronous; poll the receiving store.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got, err := a.store.GetRecord(key); err == nil {
			if !bytes.Equal(got.Value, rec.Value) {
				t.Fatalf("got %q, expected %q", got.Value, rec.Value)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("record never reached the peer")
}

func TestPutRecordWithoutPeers(t *testing.T) {
	k := newTestEngine(t)

	rec := &Record{Key: []byte("k"), Value: []byte("v"), Publisher: k.id}
	if err := k.PutRecord(rec, QuorumOne); err == nil {
		t.Fatal("PutRecord should fail with an empty routing table")
	}
}
