package node

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/misaka19683/miga/src/content"
	"github.com/misaka19683/miga/src/dht"
	"github.com/misaka19683/miga/src/node/state"
	"github.com/misaka19683/miga/src/service"
)

// Node drives exactly one lookup for a single key to either success or an
// operator-visible termination. It is the single consumer of the engine's
// event stream, so the retrieval state is never mutated concurrently.
type Node struct {
	state.Manager

	conf   *Config
	logger *logrus.Entry

	engine dht.Engine
	id     dht.NodeID
	key    *content.Key

	// registerCh hands retrieved content to the exposure surface. It is nil
	// when no HTTP surface is configured.
	registerCh chan<- service.SharedContent

	retryTimer *RetryTimer

	sigintCh     chan os.Signal
	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	// bootstrapped guards at-most-once bootstrap per run: additional
	// listener-ready events must not re-trigger the join.
	bootstrapped bool

	outputPath string
}

// NewNode is a factory method that returns a Node instance.
func NewNode(
	conf *Config,
	id dht.NodeID,
	key *content.Key,
	engine dht.Engine,
	registerCh chan<- service.SharedContent,
) *Node {
	// Prepare sigintCh to relay SIGINT system calls
	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGINT)

	return &Node{
		conf:       conf,
		logger:     conf.Logger.WithField("this_id", id.String()),
		engine:     engine,
		id:         id,
		key:        key,
		registerCh: registerCh,
		retryTimer: NewRetryTimer(),
		sigintCh:   sigintCh,
		shutdownCh: make(chan struct{}),
	}
}

// sharing reports whether any re-exposure behavior is enabled, in which case
// the process parks after retrieval instead of exiting.
func (n *Node) sharing() bool {
	return n.conf.RePublish || n.registerCh != nil
}

// Run invokes the retrieval loop. It returns once content has been found and
// persisted when sharing is disabled, on interruption otherwise.
func (n *Node) Run() error {
	events := n.engine.Events()

	go n.retryTimer.Run(0)
	defer n.retryTimer.Shutdown()

	n.engine.Run()

	// The initial lookup is issued immediately, independent of bootstrap
	// completion, to avoid unnecessary latency when the node already has
	// viable peers.
	n.logger.WithField("cid", n.key.String()).Info("Searching for content")
	n.engine.GetRecord(n.key.Bytes())

	for n.GetState() != state.Found {
		select {
		case ev, ok := <-events:
			if !ok {
				n.SetState(state.Exhausted)
				return errors.New("engine event stream closed before content was found")
			}
			n.handleEvent(ev)
		case <-n.retryTimer.tickCh:
			n.logger.Debug("Re-issuing lookup")
			n.engine.GetRecord(n.key.Bytes())
		case <-n.sigintCh:
			n.Shutdown()
			return nil
		case <-n.shutdownCh:
			n.SetState(state.Shutdown)
			return nil
		}
	}

	if !n.sharing() {
		return nil
	}

	return n.keepAlive(events)
}

// handleEvent applies one engine event to the retrieval state. The event
// union is closed; anything the loop does not react to lands in the explicit
// default arm.
func (n *Node) handleEvent(ev dht.Event) {
	switch ev.Kind {
	case dht.ListenerReady:
		n.logger.WithField("addr", ev.Addr).Info("Listening")
		if !n.bootstrapped {
			n.bootstrapped = true
			n.logger.Info("Bootstrapping DHT")
			if err := n.engine.Bootstrap(); err != nil {
				n.logger.WithError(err).Error("Failed to bootstrap")
			}
			n.SetState(state.Bootstrapping)
		}

	case dht.BootstrapProgress:
		if ev.Err != nil {
			n.logger.WithError(ev.Err).Warn("Bootstrap round failed")
			return
		}
		if n.conf.Verbose {
			n.logger.WithField("peers", ev.Remaining).Info("Bootstrap progress")
		}
		// The freshly discovered peers improve lookup odds.
		n.engine.GetRecord(n.key.Bytes())
		n.SetState(state.AwaitingQueryResult)

	case dht.QueryProgress:
		if ev.Err == nil && ev.Record != nil {
			n.found(ev.Record)
			return
		}
		n.logger.WithFields(logrus.Fields{
			"error":    ev.Err,
			"retry-in": n.conf.RetryInterval,
		}).Warn("Lookup failed")
		n.retryTimer.Reset(n.conf.RetryInterval)
		n.SetState(state.AwaitingQueryResult)

	default:
		if n.conf.Verbose {
			n.logger.WithField("event", ev.Kind.String()).Debug("Ignoring engine event")
		}
	}
}

// found persists the retrieved value and runs the enabled sharing behaviors.
// A persistence failure does not demote the retrieval itself; it only skips
// sharing, which is gated on a successfully written file.
func (n *Node) found(rec *dht.Record) {
	fmt.Printf("Received content from the network (%d bytes)\n", len(rec.Value))

	outputPath := content.ResolveOutput(n.conf.Output, n.sharing(), n.key.String(), n.conf.ShareDir)

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := content.EnsureDir(dir); err != nil {
			n.logger.WithError(err).Error("Failed to create output directory")
			n.SetState(state.Found)
			return
		}
	}

	if err := content.Save(outputPath, rec.Value); err != nil {
		n.logger.WithError(err).Error("Failed to write content to file")
		n.SetState(state.Found)
		return
	}

	fmt.Printf("Content saved to: %s\n", outputPath)
	n.outputPath = outputPath

	if n.conf.RePublish {
		n.rePublish(rec.Value)
	}

	if n.registerCh != nil {
		n.register()
	}

	n.SetState(state.Found)
}

// rePublish puts the retrieved value back into the DHT under the same key,
// attributed to this node, with no expiry and single-replica durability.
func (n *Node) rePublish(value []byte) {
	rec := &dht.Record{
		Key:       n.key.Bytes(),
		Value:     value,
		Publisher: n.id,
	}

	if err := n.engine.PutRecord(rec, dht.QuorumOne); err != nil {
		n.logger.WithError(err).Error("Failed to publish content to the network")
		return
	}

	fmt.Printf("Content is now available on the network with CID: %s\n", n.key)
	fmt.Println("Other nodes can access this content using the CID")

	if addrs := n.engine.AdvertiseAddrs(); len(addrs) > 0 {
		fmt.Printf("Your node address: %s/p2p/%s\n", addrs[0], n.id.Pretty())
	}
}

// register hands the persisted file to the exposure surface. A full channel
// is a logged, non-fatal error.
func (n *Node) register() {
	entry := service.SharedContent{
		CID:         n.key.String(),
		Path:        n.outputPath,
		Description: n.conf.Description,
	}

	select {
	case n.registerCh <- entry:
		n.logger.WithField("cid", entry.CID).Info("Registered content with the exposure service")
	default:
		n.logger.Error("Registration channel is full; entry dropped")
	}
}

// keepAlive parks the process so the node remains dialable and the exposure
// surface reachable. It keeps draining engine events so the engine never
// stalls, and wakes periodically as a liveness no-op.
func (n *Node) keepAlive(events <-chan dht.Event) error {
	fmt.Println("Content retrieval complete. The node will keep running to serve it.")
	fmt.Println("Press Ctrl+C to stop")

	ticker := time.NewTicker(n.conf.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.logger.Debug("Keep-alive")
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if n.conf.Verbose {
				n.logger.WithField("event", ev.Kind.String()).Debug("Engine event")
			}
		case <-n.sigintCh:
			n.Shutdown()
			return nil
		case <-n.shutdownCh:
			n.SetState(state.Shutdown)
			return nil
		}
	}
}

// OutputPath returns the path the retrieved content was persisted to. It is
// empty until the content has been found and written.
func (n *Node) OutputPath() string {
	return n.outputPath
}

// Shutdown terminates the retrieval loop.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		n.logger.Debug("Shutdown")
		n.SetState(state.Shutdown)
		close(n.shutdownCh)
	})
}
