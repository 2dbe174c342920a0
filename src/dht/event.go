package dht

// EventKind tags the variants of the engine event union. The set is closed:
// consumers are expected to switch on the kind with an explicit default arm,
// so that new kinds cannot silently change behavior.
type EventKind int

const (
	// ListenerReady signals that the engine is bound and reachable on Addr.
	ListenerReady EventKind = iota

	// BootstrapProgress reports progress of the network join. Err is set when
	// the join step failed; Remaining is the number of peers discovered so
	// far.
	BootstrapProgress

	// QueryProgress reports the outcome of a record lookup: Record on
	// success, Err otherwise.
	QueryProgress

	// RoutingUpdated signals that a contact was added to the routing table.
	// It is informational only.
	RoutingUpdated
)

// String returns the string representation of an EventKind.
func (k EventKind) String() string {
	switch k {
	case ListenerReady:
		return "ListenerReady"
	case BootstrapProgress:
		return "BootstrapProgress"
	case QueryProgress:
		return "QueryProgress"
	case RoutingUpdated:
		return "RoutingUpdated"
	default:
		return "Unknown"
	}
}

// Event is a single item of the engine's lifecycle stream. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Addr      string
	Remaining int
	Record    *Record
	Contact   *Contact
	Err       error
}
