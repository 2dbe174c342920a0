package dht

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the tunables of the Kademlia engine.
type Config struct {
	// BindAddr is the UDP address the engine listens on.
	BindAddr string

	// RequestTimeout bounds a single request/response exchange.
	RequestTimeout time.Duration

	// QueryTimeout bounds a whole iterative lookup.
	QueryTimeout time.Duration

	// Alpha is the number of parallel requests per lookup round.
	Alpha int

	Logger *logrus.Entry
}

// DefaultConfig returns a Config with sensible defaults for everything but
// the bind address.
func DefaultConfig(bindAddr string) *Config {
	return &Config{
		BindAddr:       bindAddr,
		RequestTimeout: 800 * time.Millisecond,
		QueryTimeout:   60 * time.Second,
		Alpha:          3,
	}
}

// Kademlia implements Engine over a UDP transport with an XOR-metric routing
// table.
type Kademlia struct {
	conf *Config

	id      NodeID
	me      Contact
	routing *RoutingTable
	store   RecordStore
	trans   *transport

	events chan Event
	logger *logrus.Entry

	runOnce      sync.Once
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewKademlia binds the UDP listener and wires the routing table. A bind
// failure is returned as-is: the caller treats it as fatal.
func NewKademlia(id NodeID, store RecordStore, conf *Config) (*Kademlia, error) {
	logger := conf.Logger
	if logger == nil {
		logger = logrus.New().WithField("prefix", "dht")
	}

	trans, err := newTransport(conf.BindAddr, logger)
	if err != nil {
		return nil, err
	}

	me := Contact{ID: id, Addr: trans.localAddr()}

	k := &Kademlia{
		conf:       conf,
		id:         id,
		me:         me,
		routing:    NewRoutingTable(me),
		store:      store,
		trans:      trans,
		events:     make(chan Event, 64),
		logger:     logger,
		shutdownCh: make(chan struct{}),
	}

	trans.handler = func(env envelope, src *net.UDPAddr) {
		go k.handleRequest(env, src)
	}

	k.routing.SetPingFunc(k.ping)

	return k, nil
}

// Run starts the read loop and announces the listener.
func (k *Kademlia) Run() {
	k.runOnce.Do(func() {
		go k.trans.readLoop()
		k.emit(Event{Kind: ListenerReady, Addr: k.trans.localAddr()})
	})
}

// Events returns the engine's lifecycle stream.
func (k *Kademlia) Events() <-chan Event {
	return k.events
}

// AdvertiseAddrs returns the addresses other nodes can dial.
func (k *Kademlia) AdvertiseAddrs() []string {
	return []string{k.trans.localAddr()}
}

// AddPeer seeds the routing table.
func (k *Kademlia) AddPeer(id NodeID, addr string) {
	k.addContact(Contact{ID: id, Addr: addr})
}

// Bootstrap joins the overlay by looking up our own ID, which populates the
// routing table with the neighborhood around us. Progress is reported as a
// BootstrapProgress event.
func (k *Kademlia) Bootstrap() error {
	if k.routing.Len() == 0 {
		return errors.New("no known peers: seed the routing table first")
	}

	go func() {
		discovered, responded := k.lookupNodes(k.id)
		if responded == 0 {
			k.emit(Event{Kind: BootstrapProgress, Err: errors.New("no bootstrap peer reachable")})
			return
		}
		k.emit(Event{Kind: BootstrapProgress, Remaining: discovered})
	}()

	return nil
}

// GetRecord starts an asynchronous lookup for key.
func (k *Kademlia) GetRecord(key []byte) {
	go k.getRecord(key)
}

// PutRecord stores rec locally and fans it out to the closest known peers.
func (k *Kademlia) PutRecord(rec *Record, quorum Quorum) error {
	if err := k.store.PutRecord(rec); err != nil {
		return err
	}

	contacts := k.routing.FindClosest(NodeIDFromKey(rec.Key), BucketSize)
	if len(contacts) == 0 {
		return errors.New("no peers to store the record with")
	}

	go k.storeFanout(rec, contacts, quorum)

	return nil
}

// Shutdown stops the engine. The record store is owned by the caller and is
// not closed here.
func (k *Kademlia) Shutdown() {
	k.shutdownOnce.Do(func() {
		close(k.shutdownCh)
		k.trans.close()
	})
}

/*
Internals
*/

func (k *Kademlia) addContact(c Contact) {
	if k.routing.AddContact(c) {
		contact := c
		k.emit(Event{Kind: RoutingUpdated, Contact: &contact})
	}
}

// emit delivers ev to the consumer. Informational events are dropped when the
// consumer lags; the rest block until delivered or shutdown.
func (k *Kademlia) emit(ev Event) {
	select {
	case k.events <- ev:
		return
	default:
	}

	if ev.Kind == RoutingUpdated {
		return
	}

	select {
	case k.events <- ev:
	case <-k.shutdownCh:
	}
}

func (k *Kademlia) ping(c Contact) bool {
	env := envelope{Kind: msgPing, From: k.me}
	reply, err := k.trans.request(c.Addr, env, k.conf.RequestTimeout)
	return err == nil && reply.Kind == msgPong
}

// nextBatch selects the next alpha closest unvisited contacts.
func (k *Kademlia) nextBatch(target NodeID, visited map[string]struct{}) []Contact {
	candidates := k.routing.FindClosest(target, BucketSize)
	batch := make([]Contact, 0, k.conf.Alpha)
	for _, c := range candidates {
		if len(batch) >= k.conf.Alpha {
			break
		}
		if _, seen := visited[c.Addr]; seen {
			continue
		}
		visited[c.Addr] = struct{}{}
		batch = append(batch, c)
	}
	return batch
}

// lookupNodes performs an iterative FIND_NODE walk towards target. It
// returns the number of new contacts discovered and the number of peers that
// answered.
func (k *Kademlia) lookupNodes(target NodeID) (int, int) {
	visited := make(map[string]struct{})
	deadline := time.Now().Add(k.conf.QueryTimeout)
	discovered := 0
	responded := 0

	for time.Now().Before(deadline) {
		batch := k.nextBatch(target, visited)
		if len(batch) == 0 {
			break
		}

		replies := k.fanout(batch, envelope{
			Kind:   msgFindNode,
			From:   k.me,
			Target: target[:],
		})

		responded += len(replies)

		for _, reply := range replies {
			for _, c := range reply.Contacts {
				if k.routing.AddContact(c) {
					discovered++
				}
			}
		}
	}

	return discovered, responded
}

func (k *Kademlia) getRecord(key []byte) {
	// Local store first.
	if rec, err := k.store.GetRecord(key); err == nil {
		k.emit(Event{Kind: QueryProgress, Record: rec})
		return
	}

	target := NodeIDFromKey(key)
	visited := make(map[string]struct{})
	deadline := time.Now().Add(k.conf.QueryTimeout)

	for time.Now().Before(deadline) {
		batch := k.nextBatch(target, visited)
		if len(batch) == 0 {
			break
		}

		replies := k.fanout(batch, envelope{
			Kind:   msgGetValue,
			From:   k.me,
			Target: key,
		})

		for _, reply := range replies {
			if reply.Found && reply.Record != nil {
				// Cache locally so later lookups and restarts are served
				// without touching the network.
				if err := k.store.PutRecord(reply.Record); err != nil {
					k.logger.WithError(err).Warn("Failed to cache record")
				}
				k.emit(Event{Kind: QueryProgress, Record: reply.Record})
				return
			}
			for _, c := range reply.Contacts {
				k.routing.AddContact(c)
			}
		}
	}

	k.emit(Event{Kind: QueryProgress, Err: ErrKeyNotFound})
}

// fanout sends env to every contact in batch in parallel and collects the
// replies that arrived in time.
func (k *Kademlia) fanout(batch []Contact, env envelope) []envelope {
	var wg sync.WaitGroup
	replyCh := make(chan envelope, len(batch))

	for _, c := range batch {
		wg.Add(1)
		go func(c Contact) {
			defer wg.Done()
			req := env
			req.MsgID = nextMsgID()
			reply, err := k.trans.request(c.Addr, req, k.conf.RequestTimeout)
			if err != nil {
				k.logger.WithFields(logrus.Fields{
					"peer":  c.String(),
					"error": err,
				}).Debug("Request failed")
				return
			}
			replyCh <- reply
		}(c)
	}

	wg.Wait()
	close(replyCh)

	replies := make([]envelope, 0, len(batch))
	for reply := range replyCh {
		replies = append(replies, reply)
	}
	return replies
}

func (k *Kademlia) storeFanout(rec *Record, contacts []Contact, quorum Quorum) {
	acks := 0
	for _, c := range contacts {
		env := envelope{
			Kind:   msgStore,
			From:   k.me,
			Target: rec.Key,
			Record: rec,
		}
		reply, err := k.trans.request(c.Addr, env, k.conf.RequestTimeout)
		if err != nil || reply.Kind != msgStoreOK {
			continue
		}
		acks++
		if acks >= int(quorum) {
			k.logger.WithFields(logrus.Fields{
				"acks":   acks,
				"quorum": int(quorum),
			}).Debug("Record published")
			return
		}
	}

	if acks < int(quorum) {
		k.logger.WithFields(logrus.Fields{
			"acks":   acks,
			"quorum": int(quorum),
		}).Warn("Record stored with fewer acks than requested")
	}
}

// handleRequest processes one inbound request. It runs on its own goroutine
// so that slow routing-table maintenance cannot stall the read loop.
func (k *Kademlia) handleRequest(env envelope, src *net.UDPAddr) {
	// The datagram source is authoritative for the sender's address.
	sender := Contact{ID: env.From.ID, Addr: src.String()}
	k.addContact(sender)

	switch env.Kind {
	case msgPing:
		k.trans.reply(src, envelope{Kind: msgPong, MsgID: env.MsgID, From: k.me})

	case msgFindNode:
		target := NewNodeID(env.Target)
		k.trans.reply(src, envelope{
			Kind:     msgFindNodeOK,
			MsgID:    env.MsgID,
			From:     k.me,
			Contacts: k.routing.FindClosest(target, BucketSize),
		})

	case msgGetValue:
		if rec, err := k.store.GetRecord(env.Target); err == nil {
			k.trans.reply(src, envelope{
				Kind:   msgGetValueOK,
				MsgID:  env.MsgID,
				From:   k.me,
				Found:  true,
				Record: rec,
			})
			return
		}
		k.trans.reply(src, envelope{
			Kind:     msgGetValueOK,
			MsgID:    env.MsgID,
			From:     k.me,
			Contacts: k.routing.FindClosest(NodeIDFromKey(env.Target), BucketSize),
		})

	case msgStore:
		if env.Record == nil {
			return
		}
		if err := k.store.PutRecord(env.Record); err != nil {
			k.logger.WithError(err).Warn("Failed to store record")
			return
		}
		k.trans.reply(src, envelope{Kind: msgStoreOK, MsgID: env.MsgID, From: k.me})

	default:
		k.logger.WithField("kind", env.Kind).Debug("Unknown message kind")
	}
}
