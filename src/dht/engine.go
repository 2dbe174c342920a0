package dht

// Engine is the interface the retrieval loop needs from the DHT. Get and Put
// outcomes, as well as lifecycle notifications, are delivered asynchronously
// on the Events channel.
type Engine interface {
	// Run starts the engine's background routines and emits a ListenerReady
	// event once the node is reachable.
	Run()

	// AddPeer seeds the routing table with a known peer. No network I/O is
	// performed.
	AddPeer(id NodeID, addr string)

	// Bootstrap joins the overlay using previously seeded peers. Progress is
	// reported through BootstrapProgress events. It returns an error when no
	// peers have been seeded.
	Bootstrap() error

	// GetRecord starts an asynchronous lookup for key. The outcome is
	// delivered as a QueryProgress event.
	GetRecord(key []byte)

	// PutRecord publishes rec to the closest known peers, requesting the
	// given durability. An immediate error means the record could not even
	// be handed to the network.
	PutRecord(rec *Record, quorum Quorum) error

	// Events returns the engine's lifecycle stream. It is meant for a single
	// consumer; events are delivered in arrival order.
	Events() <-chan Event

	// AdvertiseAddrs returns the addresses other nodes can dial.
	AdvertiseAddrs() []string

	// Shutdown stops the engine and closes its transport.
	Shutdown()
}
