package peers

import (
	"fmt"
	"net"
	"strconv"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/multiformats/go-multihash"

	"github.com/misaka19683/miga/src/dht"
)

// DefaultPort is assumed for bootstrap entries whose address carries no
// transport port, such as dnsaddr entries.
const DefaultPort = 4001

// Peer is a bootstrap entry: a network address paired with the node
// identifier embedded in the original multiaddr string.
type Peer struct {
	ID      dht.NodeID
	NetAddr string

	// Raw is the multiaddr string the entry was parsed from.
	Raw string
}

func (p *Peer) String() string {
	return fmt.Sprintf("%s (%s)", p.NetAddr, p.ID.Pretty())
}

// Parse converts a multiaddr-style string into a Peer. It fails when the
// address cannot be parsed, carries no embedded node identifier, or has no
// usable host.
func Parse(addr string) (*Peer, error) {
	maddr, err := ma.NewMultiaddr(addr)
	if err != nil {
		return nil, err
	}

	idStr, err := maddr.ValueForProtocol(ma.P_P2P)
	if err != nil {
		return nil, fmt.Errorf("no node identifier in %s", addr)
	}

	mh, err := multihash.FromB58String(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid node identifier in %s: %v", addr, err)
	}
	decoded, err := multihash.Decode(mh)
	if err != nil {
		return nil, fmt.Errorf("invalid node identifier in %s: %v", addr, err)
	}

	host, err := hostOf(maddr)
	if err != nil {
		return nil, err
	}

	port := DefaultPort
	if v, err := maddr.ValueForProtocol(ma.P_TCP); err == nil {
		port, _ = strconv.Atoi(v)
	} else if v, err := maddr.ValueForProtocol(ma.P_UDP); err == nil {
		port, _ = strconv.Atoi(v)
	}

	return &Peer{
		ID:      dht.NewNodeID(decoded.Digest),
		NetAddr: net.JoinHostPort(host, strconv.Itoa(port)),
		Raw:     addr,
	}, nil
}

func hostOf(maddr ma.Multiaddr) (string, error) {
	for _, code := range []int{ma.P_IP4, ma.P_IP6, ma.P_DNS4, ma.P_DNS6, ma.P_DNS, ma.P_DNSADDR} {
		if v, err := maddr.ValueForProtocol(code); err == nil {
			return v, nil
		}
	}
	return "", fmt.Errorf("no host component in %s", maddr)
}
