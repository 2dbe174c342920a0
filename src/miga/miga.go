package miga

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/misaka19683/miga/src/config"
	"github.com/misaka19683/miga/src/content"
	"github.com/misaka19683/miga/src/crypto/keys"
	"github.com/misaka19683/miga/src/dht"
	"github.com/misaka19683/miga/src/node"
	"github.com/misaka19683/miga/src/peers"
	"github.com/misaka19683/miga/src/service"
)

// Miga is a wrapper around the retrieval node, the DHT engine, and the
// optional exposure surface. Init assembles the components in dependency
// order; only fatal conditions unwind from here to the process boundary.
type Miga struct {
	Config  *config.Config
	Key     *content.Key
	ID      dht.NodeID
	Store   dht.RecordStore
	Engine  dht.Engine
	Service *service.Service
	Node    *node.Node

	logger *logrus.Entry
}

// NewMiga ...
func NewMiga(conf *config.Config) *Miga {
	return &Miga{
		Config: conf,
		logger: conf.Logger(),
	}
}

// initKey validates the content identifier. This runs first: a malformed
// identifier must be rejected before any network setup.
func (m *Miga) initKey() error {
	key, err := content.ParseKey(m.Config.CID)
	if err != nil {
		return err
	}

	if m.Config.Verbose {
		fmt.Printf("Fetching content with CID: %s\n", key)
	}

	m.Key = key

	return nil
}

// initIdentity generates the ephemeral node keypair and derives the node ID
// from the public key.
func (m *Miga) initIdentity() error {
	privKey, err := keys.GenerateECDSAKey()
	if err != nil {
		return err
	}

	m.ID = dht.NodeIDFromPublicKey(keys.FromECDSAPub(&privKey.PublicKey))

	fmt.Printf("Local node ID: %s\n", m.ID.Pretty())

	return nil
}

func (m *Miga) initStore() error {
	if !m.Config.Store {
		m.Store = dht.NewInmemStore()

		m.logger.Debug("created new in-mem record store")

		return nil
	}

	m.logger.WithField("path", m.Config.DatabaseDir).Debug("Attempting to load or create database")

	store, err := dht.NewBadgerStore(m.Config.DatabaseDir)
	if err != nil {
		return err
	}

	m.Store = store

	return nil
}

// initEngine binds the DHT listener. A bind failure is fatal.
func (m *Miga) initEngine() error {
	engineConf := dht.DefaultConfig(fmt.Sprintf("0.0.0.0:%d", m.Config.DHTPort))
	engineConf.QueryTimeout = m.Config.QueryTimeout
	engineConf.Logger = m.logger

	engine, err := dht.NewKademlia(m.ID, m.Store, engineConf)
	if err != nil {
		return fmt.Errorf("failed to create transport: %v", err)
	}

	m.Engine = engine

	return nil
}

// initPeers seeds the routing table with the well-known bootstrap entries.
// Malformed entries have already been skipped with a warning.
func (m *Miga) initPeers() error {
	bootstrapPeers := peers.ParseBootstrap(peers.DefaultBootstrapAddrs, m.logger)

	for _, p := range bootstrapPeers {
		m.Engine.AddPeer(p.ID, p.NetAddr)
		if m.Config.Verbose {
			fmt.Printf("Added bootstrap node: %s\n", p)
		}
	}

	m.logger.WithField("count", len(bootstrapPeers)).Debug("Seeded routing table")

	return nil
}

func (m *Miga) initShareDir() error {
	if !m.Config.Sharing() {
		return nil
	}

	if err := content.EnsureDir(m.Config.ShareDir); err != nil {
		// Persistence re-attempts directory creation once content is found.
		m.logger.WithError(err).Warn("Failed to create share directory")
		return nil
	}

	m.logger.WithField("dir", m.Config.ShareDir).Debug("Share directory ready")

	return nil
}

func (m *Miga) initService() error {
	if m.Config.ExposureMode() == config.ExposureHTTPServe {
		m.Service = service.NewService(
			fmt.Sprintf(":%d", m.Config.HTTPPort),
			m.Config.ShareDir,
			m.logger,
		)
	}
	return nil
}

func (m *Miga) initNode() error {
	nodeConf := &node.Config{
		RetryInterval:     m.Config.RetryInterval,
		KeepAliveInterval: m.Config.KeepAliveInterval,
		Verbose:           m.Config.Verbose,
		Output:            m.Config.Output,
		ShareDir:          m.Config.ShareDir,
		Description:       m.Config.Description,
		RePublish:         m.Config.Share,
		Logger:            m.logger,
	}

	var registerCh chan<- service.SharedContent
	if m.Service != nil {
		registerCh = m.Service.RegisterCh()
	}

	m.Node = node.NewNode(nodeConf, m.ID, m.Key, m.Engine, registerCh)

	return nil
}

// Init initializes all the components in dependency order. The returned
// error is fatal: nothing network-facing has been left running when it is
// non-nil, except the bound listener which the caller tears down via
// Shutdown.
func (m *Miga) Init() error {
	if err := m.initKey(); err != nil {
		return err
	}

	if err := m.initIdentity(); err != nil {
		return err
	}

	if err := m.initStore(); err != nil {
		return err
	}

	if err := m.initEngine(); err != nil {
		return err
	}

	if err := m.initPeers(); err != nil {
		return err
	}

	if err := m.initShareDir(); err != nil {
		return err
	}

	if err := m.initService(); err != nil {
		return err
	}

	if err := m.initNode(); err != nil {
		return err
	}

	return nil
}

// Run starts the exposure surface, when configured, and blocks on the
// retrieval loop.
func (m *Miga) Run() error {
	if m.Service != nil {
		go m.Service.Serve()
	}

	err := m.Node.Run()

	m.Shutdown()

	return err
}

// Shutdown tears the engine and the record store down.
func (m *Miga) Shutdown() {
	if m.Engine != nil {
		m.Engine.Shutdown()
	}
	if m.Store != nil {
		if err := m.Store.Close(); err != nil {
			m.logger.WithError(err).Warn("Failed to close record store")
		}
		m.Store = nil
	}
}
