package state

import (
	"sync"
	"sync/atomic"
)

// State captures the state of the retrieval loop. Exactly one instance exists
// per run and it is mutated only by the event loop.
type State uint32

const (
	// Idle is the initial state, before the listener is ready.
	Idle State = iota

	// Bootstrapping is entered when the network join has been triggered.
	Bootstrapping

	// AwaitingQueryResult is entered when a lookup is outstanding.
	AwaitingQueryResult

	// Found is entered when a lookup returned the value.
	Found

	// Exhausted is entered when the engine can no longer make progress, for
	// instance when its event stream closes.
	Exhausted

	// Shutdown is entered when the node stops responding to engine events.
	Shutdown
)

// String ...
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Bootstrapping:
		return "Bootstrapping"
	case AwaitingQueryResult:
		return "AwaitingQueryResult"
	case Found:
		return "Found"
	case Exhausted:
		return "Exhausted"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Manager wraps a State with atomic get and set methods, so that background
// routines can observe the loop's progress.
type Manager struct {
	state State
	wg    sync.WaitGroup
}

// GetState returns the current state.
func (m *Manager) GetState() State {
	stateAddr := (*uint32)(&m.state)
	return State(atomic.LoadUint32(stateAddr))
}

// SetState sets the state.
func (m *Manager) SetState(s State) {
	stateAddr := (*uint32)(&m.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// GoFunc launches a goroutine for a given function and adds it to the
// waitgroup.
func (m *Manager) GoFunc(f func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		f()
	}()
}

// WaitRoutines waits for all the goroutines in the waitgroup.
func (m *Manager) WaitRoutines() {
	m.wg.Wait()
}
