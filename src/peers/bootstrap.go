package peers

import "github.com/sirupsen/logrus"

// DefaultBootstrapAddrs is the fixed list of well-known entry points seeded
// into the routing table on every run.
var DefaultBootstrapAddrs = []string{
	// DNS-based addresses (more stable over time)
	"/dnsaddr/bootstrap.libp2p.io/p2p/QmNnooDu7bfjPFoTZYxMNLWUQJyrVwtbZg5gBMjTezGAJN",
	"/dnsaddr/bootstrap.libp2p.io/p2p/QmQCU2EcMqAqQPR2i9bChDtGNJchTbq5TbXJJ16u19uLTa",
	"/dnsaddr/bootstrap.libp2p.io/p2p/QmbLHAnMoJPWSCR5Zhtx6BHJX9KiKNN6tpvbUcqanj75Nb",
	"/dnsaddr/bootstrap.libp2p.io/p2p/QmcZf59bWwK5XFi76CZX8cbJ4BhTzzA3gU1ZjYZcYW3dwt",
	// IP-based addresses
	"/ip4/104.131.131.82/tcp/4001/p2p/QmaCpDMGvV2BGHeYERUEnRQAwe3N8SzbUtfsmvsqQLuvuJ",
	"/ip4/104.236.179.241/tcp/4001/p2p/QmSoLPppuBtQSGwKDZT2M73ULpjvfd3aZ6ha4oFGL1KrGM",
}

// ParseBootstrap parses a list of bootstrap address strings. A malformed
// entry is logged and skipped; it never aborts startup.
func ParseBootstrap(addrs []string, logger *logrus.Entry) []*Peer {
	parsed := make([]*Peer, 0, len(addrs))
	for _, addr := range addrs {
		peer, err := Parse(addr)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"addr":  addr,
				"error": err,
			}).Warn("Skipping bootstrap entry")
			continue
		}
		parsed = append(parsed, peer)
	}
	return parsed
}
